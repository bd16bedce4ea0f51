// Copyright 2020, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/naza/pkg/nazabits"
	"github.com/tssplit/tssplit/pkg/base"
)

// ---------------------------------------------------------------------------------------------------
// Program association section
// <iso13818-1.pdf> <2.4.4.3> <page 61/174>
// table_id                 [8b] *
// section_syntax_indicator [1b]
// '0'                      [1b]
// reserved                 [2b]
// section_length           [12b] **
// transport_stream_id      [16b] **
// reserved                 [2b]
// version_number           [5b]
// current_next_indicator   [1b]  *
// section_number           [8b]  *
// last_section_number      [8b]  *
// -----loop-----
// program_number           [16b] **
// reserved                 [3b]
// program_map_PID          [13b] ** if program_number == 0 then network_PID else then program_map_PID
// --------------
// CRC_32                   [32b] ****
// ---------------------------------------------------------------------------------------------------
type Pat struct {
	TableId           uint8
	SectionLength     uint16
	TransportStreamId uint16
	Version           uint8
	CurrentNext       uint8
	SectionNumber     uint8
	LastSectionNumber uint8
	ProgramElements   []PatProgramElement
	Crc32             uint32
}

type PatProgramElement struct {
	ProgramNumber uint16
	ProgramMapPid uint16 // ProgramNumber为0时是network_PID
}

// ParsePat
//
// @param b: 从table_id开始，也即调用方需要先跳过pointer_field
//
func ParsePat(b []byte) (pat Pat, err error) {
	if len(b) < 3 {
		return pat, base.NewErrMpegtsShortBuffer(3, len(b), "pat")
	}
	br := nazabits.NewBitReader(b)
	pat.TableId, _ = br.ReadBits8(8)
	_, _ = br.ReadBits8(4)
	pat.SectionLength, _ = br.ReadBits16(12)
	if pat.SectionLength < 9 {
		return pat, base.NewErrMpegtsShortBuffer(9, int(pat.SectionLength), "pat section_length")
	}
	if len(b) < 3+int(pat.SectionLength) {
		return pat, base.NewErrMpegtsShortBuffer(3+int(pat.SectionLength), len(b), "pat")
	}
	pat.TransportStreamId, _ = br.ReadBits16(16)
	_, _ = br.ReadBits8(2)
	pat.Version, _ = br.ReadBits8(5)
	pat.CurrentNext, _ = br.ReadBits8(1)
	pat.SectionNumber, _ = br.ReadBits8(8)
	pat.LastSectionNumber, _ = br.ReadBits8(8)

	length := pat.SectionLength - 9
	for i := uint16(0); i+4 <= length; i += 4 {
		var ppe PatProgramElement
		ppe.ProgramNumber, _ = br.ReadBits16(16)
		_, _ = br.ReadBits8(3)
		ppe.ProgramMapPid, _ = br.ReadBits16(13)
		pat.ProgramElements = append(pat.ProgramElements, ppe)
	}
	pat.Crc32 = bele.BeUint32(b[3+int(pat.SectionLength)-4:])
	return
}

// Programs 除去NIT以外的节目
func (pat *Pat) Programs() []PatProgramElement {
	var ret []PatProgramElement
	for _, ppe := range pat.ProgramElements {
		if ppe.ProgramNumber != 0 {
			ret = append(ret, ppe)
		}
	}
	return ret
}

func (pat *Pat) SearchPid(pid uint16) bool {
	for _, ppe := range pat.ProgramElements {
		if ppe.ProgramNumber != 0 && pid == ppe.ProgramMapPid {
			return true
		}
	}
	return false
}

// VerifySectionCrc 对完整section(包含末尾CRC_32)做校验
func VerifySectionCrc(section []byte) bool {
	if len(section) < 3 {
		return false
	}
	total := 3 + (int(section[1]&0x0F)<<8 | int(section[2]))
	if total < 7 || total > len(section) {
		return false
	}
	return CalcCrc32Mpeg2(section[:total]) == 0
}
