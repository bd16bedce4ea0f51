// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package splitter

import (
	"github.com/q191201771/naza/pkg/bele"
	"github.com/tssplit/tssplit/pkg/base"
	"github.com/tssplit/tssplit/pkg/mpegts"
)

// PMT section中从table_id到program_info_length的长度
const pmtHeaderLen = 12

// 1021 = 0x3FD，section_length的最大值
const maxSectionLength = 1021

// pmtSection 一个PMT PID上正在重组的section
//
// 收到的数据追加到buf中，pos之前的数据已经解析过。
// ES entry或者descriptor跨越packet时，等下一个packet的数据到了再解析。
//
type pmtSection struct {
	active bool
	remain int   // 还没有收到的字节数
	seq    uint8 // 上一个packet的continuity_counter
	buf    []byte

	headerDone bool
	pos        int
	esStart    int // ES loop在section中的位置
	esEnd      int // CRC_32在section中的位置
}

func (sec *pmtSection) reset() {
	sec.active = false
	sec.remain = 0
	sec.buf = sec.buf[:0]
	sec.headerDone = false
	sec.pos = 0
	sec.esStart = 0
	sec.esEnd = 0
}

func (sec *pmtSection) feed(b []byte) {
	n := len(b)
	if n > sec.remain {
		n = sec.remain
	}
	sec.buf = append(sec.buf, b[:n]...)
	sec.remain -= n
}

func (s *Splitter) section(pid uint16) *pmtSection {
	sec, ok := s.sections[pid]
	if !ok {
		sec = &pmtSection{buf: make([]byte, 0, mpegts.PacketSize)}
		s.sections[pid] = sec
	}
	return sec
}

func (s *Splitter) resetSections() {
	for _, sec := range s.sections {
		sec.reset()
	}
}

// analyzePmt 解析一个PMT packet，把PCR PID、ES PID、ECM PID标记为mark
//
// @return done: section已经完整接收并解析，false表示还需要该PID后续的packet
//
func (s *Splitter) analyzePmt(packet []byte, mark uint8) (done bool, err error) {
	pid := mpegts.PacketPid(packet)
	offset, ok := mpegts.PayloadOffset(packet)
	if !ok {
		// 没有payload的packet不增加continuity_counter
		return false, nil
	}
	cc := mpegts.PacketCc(packet)
	sec := s.section(pid)

	var tailDone bool
	var tailErr error
	if mpegts.PacketPayloadUnitStart(packet) {
		start := offset + 1 + int(packet[offset])
		if start > len(packet) {
			start = len(packet)
		}
		// pointer_field之前是上一个section的尾部
		if sec.active && sec.remain > 0 && cc == (sec.seq+1)&0x0F && start > offset+1 {
			tailDone, tailErr = s.finishSection(pid, sec, packet[offset+1:start], mark)
		}
		if start+3 > len(packet) {
			sec.reset()
			return tailDone, base.NewErrSplitterMalformedSection(pid, start, "pointer_field out of packet")
		}
		sl := int(packet[start+1]&0x0F)<<8 | int(packet[start+2])
		if sl < pmtHeaderLen-3+4 || sl > maxSectionLength {
			sec.reset()
			return tailDone, base.NewErrSplitterMalformedSection(pid, 1, "invalid section_length")
		}
		sec.reset()
		sec.active = true
		sec.remain = 3 + sl
		sec.seq = cc
		done, err = s.finishSection(pid, sec, packet[start:], mark)
		if err == nil {
			err = tailErr
		}
		return done || tailDone, err
	}

	if !sec.active || sec.remain == 0 {
		return false, base.NewErrSplitterNoSection(pid)
	}
	expected := (sec.seq + 1) & 0x0F
	if cc != expected {
		return false, base.NewErrSplitterDiscontinuity(pid, expected, cc)
	}
	sec.seq = cc
	return s.finishSection(pid, sec, packet[offset:], mark)
}

// finishSection 把b追加到section中并解析
//
// @return done: section已经完整接收并解析
//
func (s *Splitter) finishSection(pid uint16, sec *pmtSection, b []byte, mark uint8) (done bool, err error) {
	sec.feed(b)
	if err = s.parsePmtSection(pid, sec, mark); err != nil {
		sec.reset()
		return false, err
	}
	if sec.remain > 0 {
		return false, nil
	}
	if sec.pos != sec.esEnd {
		sec.reset()
		return false, base.NewErrSplitterMalformedSection(pid, sec.pos, "es loop not finished")
	}
	sec.active = false
	return true, nil
}

// parsePmtSection 尽可能多地解析已经收到的数据
func (s *Splitter) parsePmtSection(pid uint16, sec *pmtSection, mark uint8) error {
	b := sec.buf

	if !sec.headerDone {
		if len(b) < pmtHeaderLen {
			return nil
		}
		if b[0] != mpegts.TsPsiIdPms {
			return base.NewErrSplitterMalformedSection(pid, 0, "table_id is not pmt")
		}
		sl := int(b[1]&0x0F)<<8 | int(b[2])
		sec.esEnd = 3 + sl - 4
		sec.esStart = pmtHeaderLen + (int(b[10]&0x0F)<<8 | int(b[11]))
		if sec.esStart > sec.esEnd {
			return base.NewErrSplitterMalformedSection(pid, 10, "program_info_length out of section")
		}

		s.versions.update(pid, b[5]&0x3E)

		pcrPid := bele.BeUint16(b[8:]) & 0x1FFF
		if pcrPid != mpegts.PidNull {
			s.mark(pcrPid, mark)
		}
		sec.pos = pmtHeaderLen
		sec.headerDone = true
	}

	// program info descriptor loop
	for sec.pos < sec.esStart {
		if sec.pos+2 > len(b) {
			return nil
		}
		next := sec.pos + 2 + int(b[sec.pos+1])
		if next > sec.esStart {
			return base.NewErrSplitterMalformedSection(pid, sec.pos, "descriptor out of program info")
		}
		if next > len(b) {
			return nil
		}
		s.markCa(b[sec.pos:next], mark)
		sec.pos = next
	}

	// ES loop
	for sec.pos < sec.esEnd {
		if sec.pos+5 > sec.esEnd {
			return base.NewErrSplitterMalformedSection(pid, sec.pos, "es entry out of section")
		}
		if sec.pos+5 > len(b) {
			return nil
		}
		streamType := b[sec.pos]
		esPid := bele.BeUint16(b[sec.pos+1:]) & 0x1FFF
		next := sec.pos + 5 + int(bele.BeUint16(b[sec.pos+3:])&0x0FFF)
		if next > sec.esEnd {
			return base.NewErrSplitterMalformedSection(pid, sec.pos, "es info out of section")
		}
		if next > len(b) {
			return nil
		}
		if streamType != mpegts.StreamTypeDsmcc {
			s.mark(esPid, mark)
			s.markCaLoop(b[sec.pos+5:next], mark)
		}
		sec.pos = next
	}
	return nil
}

// markCa 如果descriptor是CA descriptor，标记它的ECM PID
func (s *Splitter) markCa(d []byte, mark uint8) {
	if d[0] != mpegts.DescriptorTagCa || d[1] < 4 {
		return
	}
	s.mark(bele.BeUint16(d[4:])&0x1FFF, mark)
}

// markCaLoop ES_info中的descriptor loop，格式错误时忽略剩余部分
func (s *Splitter) markCaLoop(b []byte, mark uint8) {
	for pos := 0; pos+2 <= len(b); {
		next := pos + 2 + int(b[pos+1])
		if next > len(b) {
			return
		}
		s.markCa(b[pos:next], mark)
		pos = next
	}
}

// pmtVersion 从PMT的首个packet中读取version，也即section第5字节 & 0x3E
func pmtVersion(packet []byte) (uint8, bool) {
	offset, ok := mpegts.PayloadOffset(packet)
	if !ok {
		return 0, false
	}
	start := offset + 1 + int(packet[offset])
	if start+6 > len(packet) {
		return 0, false
	}
	return packet[start+5] & 0x3E, true
}
