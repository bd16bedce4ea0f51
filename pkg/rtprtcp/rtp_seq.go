// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp

// SeqChecker 根据rtp序号统计网络丢包
type SeqChecker struct {
	inited bool
	next   uint16
	lost   uint64
}

// Feed
//
// @return: 本包之前丢失的包数，乱序或重复的包返回0
//
func (c *SeqChecker) Feed(seq uint16) int {
	if !c.inited {
		c.inited = true
		c.next = seq + 1
		return 0
	}
	gap := seq - c.next
	if gap >= 0x8000 {
		// 比期望的小，认为是乱序或重复
		return 0
	}
	c.next = seq + 1
	c.lost += uint64(gap)
	return int(gap)
}

func (c *SeqChecker) Lost() uint64 {
	return c.lost
}
