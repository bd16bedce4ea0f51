// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package rtprtcp 解析承载TS的rtp包(rfc3550, payload type 33 MP2T)
//
package rtprtcp

import (
	"github.com/q191201771/naza/pkg/bele"
	"github.com/tssplit/tssplit/pkg/base"
)

// -----------------------------------
// rfc3550 5.1 RTP Fixed Header Fields
// -----------------------------------
//
// 0                   1                   2                   3
// 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |V=2|P|X|  CC   |M|     PT      |       sequence number         |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |                           timestamp                           |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |           synchronization source (SSRC) identifier            |
// +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
// |            contributing source (CSRC) identifiers             |
// |                             ....                              |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+

var ErrRtp = base.ErrRtp

const (
	RtpFixedHeaderLength = 12

	DefaultRtpVersion = 2

	// PacketTypeMp2t rfc3551 MP2T
	PacketTypeMp2t = 33
)

type RtpHeader struct {
	Version    uint8  // 2b  *
	Padding    uint8  // 1b
	Extension  uint8  // 1
	CsrcCount  uint8  // 4b
	Mark       uint8  // 1b  *
	PacketType uint8  // 7b
	Seq        uint16 // 16b **
	Timestamp  uint32 // 32b **** samples
	Ssrc       uint32 // 32b **** Synchronization source

	payloadOffset int
	payloadEnd    int
}

func (h *RtpHeader) PackTo(out []byte) {
	out[0] = h.CsrcCount | (h.Extension << 4) | (h.Padding << 5) | (h.Version << 6)
	out[1] = h.PacketType | (h.Mark << 7)
	bele.BePutUint16(out[2:], h.Seq)
	bele.BePutUint32(out[4:], h.Timestamp)
	bele.BePutUint32(out[8:], h.Ssrc)
}

func MakeDefaultRtpHeader() RtpHeader {
	return RtpHeader{
		Version:    DefaultRtpVersion,
		PacketType: PacketTypeMp2t,
	}
}

// MakeRtpPacket 只生成固定头，不带CSRC以及扩展头
func MakeRtpPacket(h RtpHeader, payload []byte) []byte {
	h.CsrcCount = 0
	h.Extension = 0
	h.Padding = 0
	b := make([]byte, RtpFixedHeaderLength+len(payload))
	h.PackTo(b)
	copy(b[RtpFixedHeaderLength:], payload)
	return b
}

// ParseRtpHeader 解析固定头，并根据CSRC、扩展头以及padding计算负载的位置
func ParseRtpHeader(b []byte) (h RtpHeader, err error) {
	if len(b) < RtpFixedHeaderLength {
		err = ErrRtp
		return
	}

	h.Version = b[0] >> 6
	h.Padding = (b[0] >> 5) & 0x1
	h.Extension = (b[0] >> 4) & 0x1
	h.CsrcCount = b[0] & 0xF
	h.Mark = b[1] >> 7
	h.PacketType = b[1] & 0x7F
	h.Seq = bele.BeUint16(b[2:])
	h.Timestamp = bele.BeUint32(b[4:])
	h.Ssrc = bele.BeUint32(b[8:])

	if h.Version != DefaultRtpVersion {
		err = ErrRtp
		return
	}

	offset := RtpFixedHeaderLength + 4*int(h.CsrcCount)
	if h.Extension == 1 {
		// rfc3550 5.3.1 profile(16b) length(16b，单位4字节)
		if len(b) < offset+4 {
			err = ErrRtp
			return
		}
		offset += 4 + 4*int(bele.BeUint16(b[offset+2:]))
	}
	end := len(b)
	if h.Padding == 1 {
		end -= int(b[end-1])
	}
	if offset > end {
		err = ErrRtp
		return
	}
	h.payloadOffset = offset
	h.payloadEnd = end
	return
}

// Payload 需要先调用 ParseRtpHeader
func (h *RtpHeader) Payload(b []byte) []byte {
	return b[h.payloadOffset:h.payloadEnd]
}
