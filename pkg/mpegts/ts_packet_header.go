// Copyright 2020, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"github.com/q191201771/naza/pkg/nazabits"
	"github.com/tssplit/tssplit/pkg/base"
)

// ------------------------------------------------
// <iso13818-1.pdf> <2.4.3.2> <page 36/174>
// sync_byte                    [8b]  * always 0x47
// transport_error_indicator    [1b]
// payload_unit_start_indicator [1b]
// transport_priority           [1b]
// PID                          [13b] **
// transport_scrambling_control [2b]
// adaptation_field_control     [2b]
// continuity_counter           [4b]  *
// ------------------------------------------------
type TsPacketHeader struct {
	Sync             uint8
	Err              uint8
	PayloadUnitStart uint8
	Prio             uint8
	Pid              uint16
	Scra             uint8
	Adaptation       uint8
	Cc               uint8
}

// ----------------------------------------------------------
// <iso13818-1.pdf> <Table 2-6> <page 40/174>
// adaptation_field_length              [8b] * 不包括自己这1字节
// discontinuity_indicator              [1b]
// random_access_indicator              [1b]
// elementary_stream_priority_indicator [1b]
// PCR_flag                             [1b]
// OPCR_flag                            [1b]
// splicing_point_flag                  [1b]
// transport_private_data_flag          [1b]
// adaptation_field_extension_flag      [1b] *
// ----------------------------------------------------------
type TsPacketAdaptation struct {
	Length        uint8
	Discontinuity uint8
	RandomAccess  uint8
}

// ParseTsPacketHeader 解析4字节TS Packet header
//
func ParseTsPacketHeader(b []byte) (h TsPacketHeader, err error) {
	if len(b) < 4 {
		return h, base.NewErrMpegtsShortBuffer(4, len(b), "ts packet header")
	}
	br := nazabits.NewBitReader(b)
	h.Sync, _ = br.ReadBits8(8)
	h.Err, _ = br.ReadBits8(1)
	h.PayloadUnitStart, _ = br.ReadBits8(1)
	h.Prio, _ = br.ReadBits8(1)
	h.Pid, _ = br.ReadBits16(13)
	h.Scra, _ = br.ReadBits8(2)
	h.Adaptation, _ = br.ReadBits8(2)
	h.Cc, _ = br.ReadBits8(4)
	if h.Sync != syncByte {
		err = base.ErrMpegtsSyncByte
	}
	return
}

func ParseTsPacketAdaptation(b []byte) (f TsPacketAdaptation) {
	if len(b) == 0 {
		return
	}
	br := nazabits.NewBitReader(b)
	f.Length, _ = br.ReadBits8(8)
	if f.Length > 0 {
		f.Discontinuity, _ = br.ReadBits8(1)
		f.RandomAccess, _ = br.ReadBits8(1)
	}
	return
}

// ----- 下面这些函数在热路径上使用，不做长度检查，调用方保证b至少4字节 -------------------------------------------------------

func PacketPid(b []byte) uint16 {
	return uint16(b[1]&0x1F)<<8 | uint16(b[2])
}

func PacketCc(b []byte) uint8 {
	return b[3] & 0x0F
}

func PacketPayloadUnitStart(b []byte) bool {
	return b[1]&0x40 != 0
}

// PacketHasPayload adaptation_field_control为01或11
func PacketHasPayload(b []byte) bool {
	return b[3]&0x10 != 0
}

// PayloadOffset 计算payload在packet中的位置，跳过adaptation field
//
// @return ok: 如果packet没有payload，或者adaptation_field_length越界，返回false
//
func PayloadOffset(b []byte) (offset int, ok bool) {
	if len(b) < 4 || !PacketHasPayload(b) {
		return 0, false
	}
	offset = 4
	if b[3]&0x20 != 0 {
		if len(b) < 5 {
			return 0, false
		}
		offset += 1 + int(b[4])
	}
	if offset >= len(b) {
		return 0, false
	}
	return offset, true
}
