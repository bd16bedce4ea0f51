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

// section中从table_id到last_section_number的长度，也即第一个program entry的位置
const patHeaderLen = 8

// ISDB的PAT以NIT开头，节目entry的位置不能小于这个值
const patMinServiceOffset = patHeaderLen + 4

type patEntry struct {
	serviceId uint16
	pmtPid    uint16
	offset    int // 在section中的位置
}

// analyzePat 分析PAT，确定需要跟踪的PMT，并生成新的PAT
//
// 只在PAT还没有生成时调用。出错时保持未生成状态，下一个PAT packet会再次分析。
//
func (s *Splitter) analyzePat(packet []byte) error {
	if !mpegts.PacketPayloadUnitStart(packet) {
		return nil
	}
	offset, ok := mpegts.PayloadOffset(packet)
	if !ok {
		return nil
	}
	start := offset + 1 + int(packet[offset])
	if start+patHeaderLen+4 > len(packet) {
		return base.NewErrSplitterMalformedSection(mpegts.PidPat, start, "pointer_field out of packet")
	}
	section := packet[start:]
	if section[0] != mpegts.TsPsiIdPas {
		return base.NewErrSplitterMalformedSection(mpegts.PidPat, 0, "table_id is not pat")
	}

	// 只处理当前packet内的部分
	size := 3 + (int(section[1]&0x0F)<<8 | int(section[2]))
	end := size - 4
	if size > len(section) {
		Log.Warnf("[%s] pat larger than one packet, clip it. size=%d", s.uniqueKey, size)
		end = len(section)
	} else if s.option.CheckPatCrc && mpegts.CalcCrc32Mpeg2(section[:size]) != 0 {
		return base.NewErrSplitterMalformedSection(mpegts.PidPat, size-4, "crc mismatch")
	}

	// prescan
	var entries []patEntry
	for pos := patHeaderLen; pos+4 <= end; pos += 4 {
		e := patEntry{
			serviceId: bele.BeUint16(section[pos:]),
			pmtPid:    bele.BeUint16(section[pos+2:]) & 0x1FFF,
			offset:    pos,
		}
		if e.serviceId == 0 || e.pmtPid == mpegts.PidNit {
			continue
		}
		if pos < patMinServiceOffset {
			return base.NewErrSplitterMalformedSection(mpegts.PidPat, pos, "service entry before nit")
		}
		Log.Infof("[%s] Available sid=%d(0x%04x), pmt pid=0x%04x", s.uniqueKey, e.serviceId, e.serviceId, e.pmtPid)
		entries = append(entries, e)
	}

	// select
	var chosen []patEntry
	for i, e := range entries {
		for j := range s.selectors {
			if !s.selectors[j].match(i, len(entries), e) {
				continue
			}
			if s.selectPmt(e) {
				chosen = append(chosen, e)
			}
			break
		}
	}
	for _, sel := range s.selectors {
		for _, pid := range sel.fixedPids {
			s.mark(pid, markFirst)
			s.pinned = append(s.pinned, pid)
		}
	}
	if len(chosen) == 0 {
		Log.Warnf("[%s] nothing selected. selection=%s, available=%d", s.uniqueKey, s.selection, len(entries))
	}

	s.rebuildPat(section, chosen)
	s.state = patStateBuilt
	s.patCc = mpegts.PacketCc(packet)
	return nil
}

// selectPmt 返回false表示没有选中，比如版本表已满
func (s *Splitter) selectPmt(e patEntry) bool {
	if s.pmtPids[e.pmtPid] != PmtStateNone {
		// 多个节目共享同一个PMT
		return true
	}
	if !s.versions.add(e.pmtPid) {
		Log.Warnf("[%s] too many services, ignore it. sid=%d, max=%d", s.uniqueKey, e.serviceId, s.option.MaxServices)
		return false
	}
	Log.Infof("[%s] Chosen sid=%d(0x%04x), Available PMT=0x%04x", s.uniqueKey, e.serviceId, e.serviceId, e.pmtPid)
	s.pmtPids[e.pmtPid] = PmtStateSelected
	s.pids[e.pmtPid] = markFirst
	s.pmtRetain++
	return true
}

// rebuildPat
//
// ---------------------------------------
// 4    TS header
// 1    pointer_field = 0
// 8    section header，拷贝自原始PAT
// 4    NIT，program_number=0，network_PID=0x10
// 4*n  选中的program entry，拷贝自原始PAT
// 4    CRC_32
// ...  0xFF
// ---------------------------------------
//
func (s *Splitter) rebuildPat(section []byte, chosen []patEntry) {
	for i := range s.pat {
		s.pat[i] = 0xFF
	}
	s.pat[0] = 0x47
	s.pat[1] = 0x40
	s.pat[2] = 0x00
	s.pat[3] = 0x10
	s.pat[4] = 0x00

	out := s.pat[5:]
	wpos := copy(out, section[:patHeaderLen])
	out[wpos] = 0x00
	out[wpos+1] = 0x00
	out[wpos+2] = 0xE0
	out[wpos+3] = byte(mpegts.PidNit)
	wpos += 4

	maxEntries := (len(out) - wpos - 4) / 4
	if len(chosen) > maxEntries {
		Log.Warnf("[%s] too many entries for one pat packet, truncate. chosen=%d, max=%d", s.uniqueKey, len(chosen), maxEntries)
		chosen = chosen[:maxEntries]
	}
	for _, e := range chosen {
		wpos += copy(out[wpos:], section[e.offset:e.offset+4])
	}

	// section_length包含CRC_32
	sl := wpos - 3 + 4
	out[1] = (out[1] & 0xF0) | uint8(sl>>8)&0x0F
	out[2] = uint8(sl)

	bele.BePutUint32(out[wpos:], mpegts.CalcCrc32Mpeg2(out[:wpos]))
}

// nextPat 更新continuity_counter，返回缓存的PAT
//
// 第一次发送时沿用原始PAT的continuity_counter
//
func (s *Splitter) nextPat() []byte {
	if s.patEmitted {
		s.patCc = (s.patCc + 1) & 0x0F
	}
	s.patEmitted = true
	s.pat[3] = 0x10 | s.patCc
	return s.pat[:]
}
