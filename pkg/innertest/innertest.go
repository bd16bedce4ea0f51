// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package innertest 生成用于单元测试的合成TS流，其他包的测试共用
//
package innertest

import (
	"github.com/tssplit/tssplit/pkg/mpegts"
)

const DefaultTsid = 0x7FE1

type Service struct {
	Sid         uint16
	PmtPid      uint16
	PcrPid      uint16
	Version     uint8
	ProgramInfo []mpegts.Descriptor
	Es          []mpegts.PmtProgramElement
}

// DefaultServices 一个典型地上波数字的多路复用：三个高清/标清节目加一个1SEG节目
func DefaultServices() []Service {
	return []Service{
		NewService(0x0400, 0x01F0, 0x0111, 0x0112),
		NewService(0x0401, 0x01F1, 0x0121, 0x0122),
		NewService(0x0402, 0x01F2, 0x0131, 0x0132),
		NewService(0x0581, 0x1FC8, 0x0181, 0x0182),
	}
}

// NewService 第一个es是视频，其余是音频，视频pid同时作为pcr pid
func NewService(sid, pmtPid, videoPid uint16, audioPids ...uint16) Service {
	s := Service{
		Sid:    sid,
		PmtPid: pmtPid,
		PcrPid: videoPid,
		Es:     []mpegts.PmtProgramElement{{StreamType: mpegts.StreamTypeAvc, Pid: videoPid}},
	}
	for _, pid := range audioPids {
		s.Es = append(s.Es, mpegts.PmtProgramElement{StreamType: mpegts.StreamTypeAdtsAac, Pid: pid})
	}
	return s
}

func (s *Service) EsPids() []uint16 {
	var ret []uint16
	for _, e := range s.Es {
		ret = append(ret, e.Pid)
	}
	return ret
}

// Stream 按pid维护continuity_counter，依次生成PAT、PMT和es包
//
type Stream struct {
	Tsid     uint16
	Services []Service

	cc [mpegts.PidNum]uint8
}

func NewStream(services ...Service) *Stream {
	if len(services) == 0 {
		services = DefaultServices()
	}
	return &Stream{
		Tsid:     DefaultTsid,
		Services: services,
	}
}

func (s *Stream) PatSection() []byte {
	pes := []mpegts.PatProgramElement{{ProgramNumber: 0, ProgramMapPid: mpegts.PidNit}}
	for _, svc := range s.Services {
		pes = append(pes, mpegts.PatProgramElement{ProgramNumber: svc.Sid, ProgramMapPid: svc.PmtPid})
	}
	return mpegts.NewPatSection(s.Tsid, 0, pes).Pack()
}

func (s *Stream) PmtSection(svc Service) []byte {
	return mpegts.NewPmtSection(svc.Sid, svc.Version, svc.PcrPid, svc.ProgramInfo, svc.Es).Pack()
}

// Psi PAT加上所有PMT
func (s *Stream) Psi() []byte {
	b := s.section(mpegts.PidPat, s.PatSection())
	for _, svc := range s.Services {
		b = append(b, s.section(svc.PmtPid, s.PmtSection(svc))...)
	}
	return b
}

// Es 生成一个负载为固定内容的es包
func (s *Stream) Es(pid uint16) []byte {
	packet := mpegts.PackPayload(pid, false, s.cc[pid], []byte{0xAA, 0xBB})
	s.cc[pid] = (s.cc[pid] + 1) & 0x0F
	return packet
}

// Round 一组PSI，之后每个es pid各一个包
func (s *Stream) Round() []byte {
	b := s.Psi()
	for _, svc := range s.Services {
		for _, pid := range svc.EsPids() {
			b = append(b, s.Es(pid)...)
		}
	}
	return b
}

func (s *Stream) Rounds(n int) []byte {
	var b []byte
	for i := 0; i < n; i++ {
		b = append(b, s.Round()...)
	}
	return b
}

func (s *Stream) section(pid uint16, section []byte) []byte {
	b := mpegts.PackSection(pid, s.cc[pid], section)
	s.cc[pid] = (s.cc[pid] + uint8(len(b)/mpegts.PacketSize)) & 0x0F
	return b
}

// PidCount 统计b中每个pid的包数
func PidCount(b []byte) map[uint16]int {
	m := make(map[uint16]int)
	for i := 0; i+mpegts.PacketSize <= len(b); i += mpegts.PacketSize {
		m[mpegts.PacketPid(b[i:])]++
	}
	return m
}
