// Copyright 2023, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

// CRC-32/MPEG-2
// poly 0x04C11DB7, init 0xFFFFFFFF, 不反转输入输出, 结果不异或
//
// hash/crc32只支持反转的形式，所以这里自己建表

var crc32Mpeg2Table [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ 0x04C11DB7
			} else {
				crc <<= 1
			}
		}
		crc32Mpeg2Table[i] = crc
	}
}

// CalcCrc32Mpeg2
//
// @param b: PSI section中从table_id开始，到CRC_32之前的内容
//
// 如果b包含了末尾的CRC_32字段，返回值为0则表示校验通过
//
func CalcCrc32Mpeg2(b []byte) uint32 {
	return UpdateCrc32Mpeg2(0xFFFFFFFF, b)
}

func UpdateCrc32Mpeg2(crc uint32, b []byte) uint32 {
	for _, v := range b {
		crc = (crc << 8) ^ crc32Mpeg2Table[byte(crc>>24)^v]
	}
	return crc
}
