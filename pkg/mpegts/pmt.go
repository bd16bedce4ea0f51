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

// Pmt
//
// ----------------------------------------
// Program Map Table
// <iso13818-1.pdf> <2.4.4.8> <page 64/174>
// table_id                 [8b]  *
// section_syntax_indicator [1b]
// 0                        [1b]
// reserved                 [2b]
// section_length           [12b] **
// program_number           [16b] **
// reserved                 [2b]
// version_number           [5b]
// current_next_indicator   [1b]  *
// section_number           [8b]  *
// last_section_number      [8b]  *
// reserved                 [3b]
// PCR_PID                  [13b] **
// reserved                 [4b]
// program_info_length      [12b] **
// -----loop-----
// stream_type              [8b]  *
// reserved                 [3b]
// elementary_PID           [13b] **
// reserved                 [4b]
// ES_info_length_length    [12b] **
// --------------
// CRC32                    [32b] ****
// ----------------------------------------
//
type Pmt struct {
	TableId         uint8
	SectionLength   uint16
	ProgramNumber   uint16
	Version         uint8
	CurrentNext     uint8
	PcrPid          uint16
	ProgramInfo     []Descriptor
	ProgramElements []PmtProgramElement
	Crc32           uint32
}

type PmtProgramElement struct {
	StreamType  uint8
	Pid         uint16
	Descriptors []Descriptor
}

// Descriptor 只保留原始数据，需要的字段由调用方自行解析，比如 CaPid
type Descriptor struct {
	Tag  uint8
	Data []byte
}

// ParsePmt
//
// @param b: 从table_id开始
//
func ParsePmt(b []byte) (pmt Pmt, err error) {
	if len(b) < 3 {
		return pmt, base.NewErrMpegtsShortBuffer(3, len(b), "pmt")
	}
	br := nazabits.NewBitReader(b)
	pmt.TableId, _ = br.ReadBits8(8)
	_, _ = br.ReadBits8(4)
	pmt.SectionLength, _ = br.ReadBits16(12)
	if pmt.SectionLength < 13 {
		return pmt, base.NewErrMpegtsShortBuffer(13, int(pmt.SectionLength), "pmt section_length")
	}
	end := 3 + int(pmt.SectionLength)
	if len(b) < end {
		return pmt, base.NewErrMpegtsShortBuffer(end, len(b), "pmt")
	}
	pmt.ProgramNumber, _ = br.ReadBits16(16)
	_, _ = br.ReadBits8(2)
	pmt.Version, _ = br.ReadBits8(5)
	pmt.CurrentNext, _ = br.ReadBits8(1)
	_, _ = br.ReadBits16(16) // section_number, last_section_number
	_, _ = br.ReadBits8(3)
	pmt.PcrPid, _ = br.ReadBits16(13)
	_, _ = br.ReadBits8(4)
	pil, _ := br.ReadBits16(12)

	pos := 12
	esStart := pos + int(pil)
	if esStart > end-4 {
		return pmt, base.NewErrMpegtsShortBuffer(esStart, end-4, "pmt program_info_length")
	}
	if pmt.ProgramInfo, err = parseDescriptors(b[pos:esStart]); err != nil {
		return pmt, err
	}

	pos = esStart
	for pos+5 <= end-4 {
		var ppe PmtProgramElement
		ppe.StreamType = b[pos]
		ppe.Pid = bele.BeUint16(b[pos+1:]) & 0x1FFF
		eil := int(bele.BeUint16(b[pos+3:]) & 0x0FFF)
		pos += 5
		if pos+eil > end-4 {
			return pmt, base.NewErrMpegtsShortBuffer(pos+eil, end-4, "pmt ES_info_length")
		}
		if ppe.Descriptors, err = parseDescriptors(b[pos : pos+eil]); err != nil {
			return pmt, err
		}
		pos += eil
		pmt.ProgramElements = append(pmt.ProgramElements, ppe)
	}
	pmt.Crc32 = bele.BeUint32(b[end-4:])
	return
}

func (pmt *Pmt) SearchPid(pid uint16) *PmtProgramElement {
	for i := range pmt.ProgramElements {
		if pmt.ProgramElements[i].Pid == pid {
			return &pmt.ProgramElements[i]
		}
	}
	return nil
}

// CaPids program_info以及各ES的descriptor中CA descriptor携带的ECM PID
func (pmt *Pmt) CaPids() []uint16 {
	var ret []uint16
	collect := func(ds []Descriptor) {
		for _, d := range ds {
			if pid, ok := d.CaPid(); ok {
				ret = append(ret, pid)
			}
		}
	}
	collect(pmt.ProgramInfo)
	for _, ppe := range pmt.ProgramElements {
		collect(ppe.Descriptors)
	}
	return ret
}

// CaPid
//
// ------------------------
// CA_descriptor
// <iso13818-1.pdf> <2.6.16>
// descriptor_tag   [8b]  * 0x09
// descriptor_length[8b]  *
// CA_system_ID     [16b] **
// reserved         [3b]
// CA_PID           [13b] **
// ------------------------
//
func (d *Descriptor) CaPid() (uint16, bool) {
	if d.Tag != DescriptorTagCa || len(d.Data) < 4 {
		return 0, false
	}
	return bele.BeUint16(d.Data[2:]) & 0x1FFF, true
}

func parseDescriptors(b []byte) (ds []Descriptor, err error) {
	for pos := 0; pos < len(b); {
		if pos+2 > len(b) {
			return nil, base.NewErrMpegtsShortBuffer(pos+2, len(b), "descriptor header")
		}
		l := int(b[pos+1])
		if pos+2+l > len(b) {
			return nil, base.NewErrMpegtsShortBuffer(pos+2+l, len(b), "descriptor")
		}
		ds = append(ds, Descriptor{Tag: b[pos], Data: b[pos+2 : pos+2+l]})
		pos += 2 + l
	}
	return
}
