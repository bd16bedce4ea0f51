// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package probe 列出TS流中的节目，用于构造selection
//
package probe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/asticode/go-astits"
	"github.com/tssplit/tssplit/pkg/base"
	"github.com/tssplit/tssplit/pkg/mpegts"
	"github.com/tssplit/tssplit/pkg/splitter"
)

var Log = base.Log

type Option struct {
	// MaxPackets 最多读取这么多个TS packet，超过后返回已经拿到的信息
	MaxPackets int
}

var defaultOption = Option{
	MaxPackets: 100000,
}

type ModOption func(option *Option)

type Es struct {
	Pid        uint16 `json:"pid"`
	StreamType uint8  `json:"stream_type"`
}

type Service struct {
	Index     int      `json:"index"`
	ServiceId uint16   `json:"service_id"`
	PmtPid    uint16   `json:"pmt_pid"`
	PcrPid    uint16   `json:"pcr_pid"`
	Es        []Es     `json:"es"`
	CaPids    []uint16 `json:"ca_pids"`
	Tokens    []string `json:"tokens"` // 可以选中该节目的selection token
	HasPmt    bool     `json:"has_pmt"`
}

type Result struct {
	TransportStreamId uint16    `json:"transport_stream_id"`
	Services          []Service `json:"services"`
	Packets           int       `json:"packets"`
}

// Probe 读取r直到拿到PAT以及其中所有节目的PMT
//
// 读到结尾或者超过 Option.MaxPackets 时，如果已经拿到PAT，返回结果以及 base.ErrProbeIncomplete
//
func Probe(ctx context.Context, r io.Reader, modOptions ...ModOption) (*Result, error) {
	option := defaultOption
	for _, fn := range modOptions {
		fn(&option)
	}

	// 计数放在bufio之上，只统计demuxer实际取走的packet
	cr := &countReader{r: bufio.NewReader(r)}
	dmx := astits.NewDemuxer(ctx, cr, astits.DemuxerOptPacketSize(mpegts.PacketSize))
	var result *Result
	pmtIndex := make(map[uint16][]int)

	for {
		if cr.n/mpegts.PacketSize >= option.MaxPackets {
			break
		}
		d, err := dmx.NextData()
		if err != nil {
			if errors.Is(err, astits.ErrNoMorePackets) || errors.Is(err, io.EOF) {
				break
			}
			return result, err
		}
		if d.PAT != nil && result == nil {
			result = newResult(d.PAT)
			for i, svc := range result.Services {
				pmtIndex[svc.PmtPid] = append(pmtIndex[svc.PmtPid], i)
			}
		}
		if d.PMT == nil || result == nil {
			continue
		}
		for _, i := range pmtIndex[d.PID] {
			svc := &result.Services[i]
			if svc.HasPmt || svc.ServiceId != d.PMT.ProgramNumber {
				continue
			}
			fillPmt(svc, d.PMT)
		}
		if result.complete() {
			break
		}
	}

	if result == nil {
		return nil, base.ErrProbeNoPat
	}
	result.Packets = cr.n / mpegts.PacketSize
	if !result.complete() {
		return result, base.ErrProbeIncomplete
	}
	return result, nil
}

func newResult(pat *astits.PATData) *Result {
	result := &Result{
		TransportStreamId: pat.TransportStreamID,
	}
	var programs []*astits.PATProgram
	for _, p := range pat.Programs {
		if p.ProgramNumber != 0 && p.ProgramMapID != mpegts.PidNit {
			programs = append(programs, p)
		}
	}
	for i, p := range programs {
		result.Services = append(result.Services, Service{
			Index:     i,
			ServiceId: p.ProgramNumber,
			PmtPid:    p.ProgramMapID,
			Tokens:    splitter.MatchingTokens(i, len(programs), p.ProgramNumber, p.ProgramMapID),
		})
	}
	return result
}

func fillPmt(svc *Service, pmt *astits.PMTData) {
	svc.HasPmt = true
	svc.PcrPid = pmt.PCRPID
	svc.CaPids = appendCaPids(svc.CaPids, pmt.ProgramDescriptors)
	for _, es := range pmt.ElementaryStreams {
		svc.Es = append(svc.Es, Es{
			Pid:        es.ElementaryPID,
			StreamType: uint8(es.StreamType),
		})
		svc.CaPids = appendCaPids(svc.CaPids, es.ElementaryStreamDescriptors)
	}
}

// appendCaPids go-astits不解析CA descriptor，从未知descriptor的原始内容中取
func appendCaPids(pids []uint16, ds []*astits.Descriptor) []uint16 {
	for _, d := range ds {
		if d.Tag != mpegts.DescriptorTagCa || d.Unknown == nil || len(d.Unknown.Content) < 4 {
			continue
		}
		c := d.Unknown.Content
		pids = append(pids, (uint16(c[2])<<8|uint16(c[3]))&0x1FFF)
	}
	return pids
}

func (r *Result) complete() bool {
	for _, svc := range r.Services {
		if !svc.HasPmt {
			return false
		}
	}
	return true
}

// String 多行可读格式
func (r *Result) String() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "transport_stream_id=%d(0x%04x), services=%d\n", r.TransportStreamId, r.TransportStreamId, len(r.Services))
	for _, svc := range r.Services {
		_, _ = fmt.Fprintf(&sb, "  sid=%d(0x%04x) pmt=0x%04x pcr=0x%04x tokens=%s\n",
			svc.ServiceId, svc.ServiceId, svc.PmtPid, svc.PcrPid, strings.Join(svc.Tokens, ","))
		for _, es := range svc.Es {
			_, _ = fmt.Fprintf(&sb, "    es pid=0x%04x stream_type=0x%02x\n", es.Pid, es.StreamType)
		}
		for _, pid := range svc.CaPids {
			_, _ = fmt.Fprintf(&sb, "    ca pid=0x%04x\n", pid)
		}
	}
	return sb.String()
}

type countReader struct {
	r io.Reader
	n int
}

func (cr *countReader) Read(b []byte) (int, error) {
	n, err := cr.r.Read(b)
	cr.n += n
	return n, err
}
