// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package splitter_test

import (
	"github.com/tssplit/tssplit/pkg/mpegts"
)

const testTsid = 0x7FE1

type service struct {
	sid uint16
	pid uint16
}

func patSection(services ...service) []byte {
	pes := []mpegts.PatProgramElement{{ProgramNumber: 0, ProgramMapPid: mpegts.PidNit}}
	for _, s := range services {
		pes = append(pes, mpegts.PatProgramElement{ProgramNumber: s.sid, ProgramMapPid: s.pid})
	}
	return mpegts.NewPatSection(testTsid, 0, pes).Pack()
}

func patPacket(cc uint8, services ...service) []byte {
	return mpegts.PackSection(mpegts.PidPat, cc, patSection(services...))
}

type pmtConf struct {
	pid         uint16
	sid         uint16
	version     uint8
	pcrPid      uint16
	programInfo []mpegts.Descriptor
	es          []mpegts.PmtProgramElement
}

func pmtPackets(cc uint8, c pmtConf) []byte {
	section := mpegts.NewPmtSection(c.sid, c.version, c.pcrPid, c.programInfo, c.es).Pack()
	return mpegts.PackSection(c.pid, cc, section)
}

func esPacket(pid uint16, cc uint8) []byte {
	return mpegts.PackPayload(pid, false, cc, []byte{0xAA, 0xBB})
}

func es(streamType uint8, pids ...uint16) []mpegts.PmtProgramElement {
	var ret []mpegts.PmtProgramElement
	for _, pid := range pids {
		ret = append(ret, mpegts.PmtProgramElement{StreamType: streamType, Pid: pid})
	}
	return ret
}

func concat(bs ...[]byte) []byte {
	var ret []byte
	for _, b := range bs {
		ret = append(ret, b...)
	}
	return ret
}

func packetsOf(b []byte) [][]byte {
	var ret [][]byte
	for i := 0; i+mpegts.PacketSize <= len(b); i += mpegts.PacketSize {
		ret = append(ret, b[i:i+mpegts.PacketSize])
	}
	return ret
}

func pidsOf(b []byte) []uint16 {
	var ret []uint16
	for _, p := range packetsOf(b) {
		ret = append(ret, mpegts.PacketPid(p))
	}
	return ret
}

// packSections 把多个section首尾相接打包，section可以从packet中间开始，pointer_field指向packet中第一个section的起始位置
func packSections(pid uint16, cc uint8, sections ...[]byte) []byte {
	var stream []byte
	var starts []int
	for _, s := range sections {
		starts = append(starts, len(stream))
		stream = append(stream, s...)
	}

	var out []byte
	for pos, si := 0, 0; pos < len(stream); cc++ {
		for si < len(starts) && starts[si] < pos {
			si++
		}
		packet := make([]byte, mpegts.PacketSize)
		pusi := si < len(starts) && starts[si] < pos+mpegts.PacketSize-5
		wpos := 4
		if pusi {
			packet[wpos] = uint8(starts[si] - pos)
			wpos++
		}
		pl := mpegts.PackPayload(pid, pusi, cc, nil)
		copy(packet, pl[:4])
		end := len(stream)
		if !pusi && si < len(starts) {
			// 下一个section必须从带pointer_field的packet开始
			end = starts[si]
		}
		n := copy(packet[wpos:], stream[pos:end])
		for i := wpos + n; i < mpegts.PacketSize; i++ {
			packet[i] = 0xFF
		}
		pos += n
		out = append(out, packet...)
	}
	return out
}
