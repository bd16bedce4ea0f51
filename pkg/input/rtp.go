// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package input

import (
	"github.com/tssplit/tssplit/pkg/mpegts"
	"github.com/tssplit/tssplit/pkg/rtprtcp"
)

// StripRtp 如果负载开头是rtp头，则返回去掉rtp头后的TS数据，否则原样返回
//
// 以0x47开头并且长度是188整数倍的负载认为是裸TS
//
func StripRtp(b []byte) []byte {
	var rs rtpStripper
	return rs.strip(b)
}

// rtpStripper 去掉rtp头，并根据序号统计丢包
type rtpStripper struct {
	seq rtprtcp.SeqChecker
}

func (rs *rtpStripper) strip(b []byte) []byte {
	if len(b) >= mpegts.PacketSize && len(b)%mpegts.PacketSize == 0 && b[0] == 0x47 {
		return b
	}
	h, err := rtprtcp.ParseRtpHeader(b)
	if err != nil {
		return b
	}
	if lost := rs.seq.Feed(h.Seq); lost > 0 {
		Log.Warnf("rtp packet lost. seq=%d, lost=%d, total lost=%d", h.Seq, lost, rs.seq.Lost())
	}
	return h.Payload(b)
}

func (rs *rtpStripper) Lost() uint64 {
	return rs.seq.Lost()
}
