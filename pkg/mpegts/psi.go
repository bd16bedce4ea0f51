// Copyright 2023, Chef.  All rights reserved.
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
)

// PsiId
const (
	TsPsiIdPas       = 0x00 // program_association_section
	TsPsiIdCas       = 0x01 // conditional_access_section (CA_section)
	TsPsiIdPms       = 0x02 // TS_program_map_section
	TsPsiIdDs        = 0x03 // TS_description_section
	TsPsiIdUserStart = 0x40 // User private
	TsPsiIdUserEnd   = 0xFE
	TsPsiIdForbidden = 0xFF // forbidden
)

// PsiSection 用于生成PAT、PMT section，主要给测试、以及需要自己构造流的业务方使用
//
type PsiSection struct {
	header  PsiTableHeader
	section PsiTableSyntaxSection
	patData PatSpecificData
	pmtData PmtSpecificData
}

type PsiTableHeader struct {
	tableId                uint8
	sectionSyntaxIndicator uint8
	sectionLength          uint16
}

type PsiTableSyntaxSection struct {
	tableIdExtension     uint16
	versionNumber        uint8
	currentNextIndicator uint8
	sectionNumber        uint8
	lastSectionNumber    uint8
}

type PatSpecificData struct {
	pes []PatProgramElement
}

type PmtSpecificData struct {
	pcrPid      uint16
	programInfo []Descriptor
	pes         []PmtProgramElement
}

// NewPatSection
//
// @param pes: 如果需要NIT，需要由调用方放在pes中(ProgramNumber为0)
//
func NewPatSection(transportStreamId uint16, version uint8, pes []PatProgramElement) *PsiSection {
	psi := newPsi(TsPsiIdPas, transportStreamId, version)
	psi.patData.pes = pes
	return psi
}

func NewPmtSection(programNumber uint16, version uint8, pcrPid uint16, programInfo []Descriptor, pes []PmtProgramElement) *PsiSection {
	psi := newPsi(TsPsiIdPms, programNumber, version)
	psi.pmtData.pcrPid = pcrPid
	psi.pmtData.programInfo = programInfo
	psi.pmtData.pes = pes
	return psi
}

// NewCaDescriptor 生成一个CA descriptor
func NewCaDescriptor(caSystemId uint16, caPid uint16) Descriptor {
	d := Descriptor{Tag: DescriptorTagCa, Data: make([]byte, 4)}
	bele.BePutUint16(d.Data, caSystemId)
	bele.BePutUint16(d.Data[2:], 0xE000|caPid)
	return d
}

// Pack
//
// @return: 从table_id开始，到CRC_32结束(包含)，不包含pointer_field
//
func (psi *PsiSection) Pack() []byte {
	psi.header.sectionLength = psi.calcPsiSectionLength()
	out := make([]byte, 3+int(psi.header.sectionLength))
	bw := nazabits.NewBitWriter(out)

	psi.writePsiTableHeader(&bw)
	psi.writePsiTableSyntaxSection(&bw)

	crc := CalcCrc32Mpeg2(out[:len(out)-4])
	bele.BePutUint32(out[len(out)-4:], crc)
	return out
}

func newPsi(tableId uint8, tableIdExtension uint16, version uint8) *PsiSection {
	psi := &PsiSection{}
	psi.header.tableId = tableId
	psi.header.sectionSyntaxIndicator = 1
	psi.section.tableIdExtension = tableIdExtension
	psi.section.versionNumber = version & 0x1F
	psi.section.currentNextIndicator = 1
	return psi
}

func (psi *PsiSection) writePsiTableHeader(bw *nazabits.BitWriter) {
	bw.WriteBits8(8, psi.header.tableId)
	bw.WriteBit(psi.header.sectionSyntaxIndicator)
	bw.WriteBit(0)
	bw.WriteBits8(2, 0xff)
	bw.WriteBits16(12, psi.header.sectionLength)
}

func (psi *PsiSection) writePsiTableSyntaxSection(bw *nazabits.BitWriter) {
	bw.WriteBits16(16, psi.section.tableIdExtension)
	bw.WriteBits8(2, 0xff)
	bw.WriteBits8(5, psi.section.versionNumber)
	bw.WriteBit(psi.section.currentNextIndicator)
	bw.WriteBits8(8, psi.section.sectionNumber)
	bw.WriteBits8(8, psi.section.lastSectionNumber)

	switch psi.header.tableId {
	case TsPsiIdPas:
		psi.writePatSection(bw)
	case TsPsiIdPms:
		psi.writePmtSection(bw)
	}
}

func (psi *PsiSection) calcPsiSectionLength() (length uint16) {
	// Table ID extension(16 bits)+Reserved bits(2 bits)+Version number(5 bits)+Current next Indicator(1 bit)+Section number(8 bits)+Last section number(8 bits)
	length += 5

	switch psi.header.tableId {
	case TsPsiIdPas:
		length += uint16(4 * len(psi.patData.pes))
	case TsPsiIdPms:
		length += psi.calcPmtSectionLength()
	}

	length += 4 //crc32
	return
}

func (psi *PsiSection) calcPmtSectionLength() (length uint16) {
	// Reserved bits(3 bits)+PCR PID(13 bits)+Reserved bits(4 bits)+Program info length(12 bits)
	length = 4
	length += calcDescriptorsLength(psi.pmtData.programInfo)

	for _, pe := range psi.pmtData.pes {
		length += 5
		length += calcDescriptorsLength(pe.Descriptors)
	}
	return
}

func calcDescriptorsLength(ds []Descriptor) uint16 {
	length := uint16(0)
	for _, d := range ds {
		length += 2 + uint16(len(d.Data))
	}
	return length
}

func (psi *PsiSection) writePatSection(bw *nazabits.BitWriter) {
	for _, pe := range psi.patData.pes {
		bw.WriteBits16(16, pe.ProgramNumber)
		bw.WriteBits8(3, 0xff)
		bw.WriteBits16(13, pe.ProgramMapPid)
	}
}

func (psi *PsiSection) writePmtSection(bw *nazabits.BitWriter) {
	bw.WriteBits8(3, 0xff)
	bw.WriteBits16(13, psi.pmtData.pcrPid)
	writeDescriptorsWithLength(bw, psi.pmtData.programInfo)

	for _, pe := range psi.pmtData.pes {
		bw.WriteBits8(8, pe.StreamType)
		bw.WriteBits8(3, 0xff)
		bw.WriteBits16(13, pe.Pid)
		writeDescriptorsWithLength(bw, pe.Descriptors)
	}
}

func writeDescriptorsWithLength(bw *nazabits.BitWriter, ds []Descriptor) {
	bw.WriteBits8(4, 0xff)
	bw.WriteBits16(12, calcDescriptorsLength(ds))

	for _, d := range ds {
		bw.WriteBits8(8, d.Tag)
		bw.WriteBits8(8, uint8(len(d.Data)))
		for _, b := range d.Data {
			bw.WriteBits8(8, b)
		}
	}
}
