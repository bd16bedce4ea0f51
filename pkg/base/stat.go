// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "github.com/q191201771/naza/pkg/nazaatomic"

// StatPipeline 一路输入流的统计信息，可被多个goroutine并发读写
//
type StatPipeline struct {
	ReadBytes     nazaatomic.Uint64
	InPackets     nazaatomic.Uint64
	OutPackets    nazaatomic.Uint64
	ResyncCount   nazaatomic.Uint64 // 丢失sync byte后重新同步的次数
	SplitErrCount nazaatomic.Uint64
}

// StatPipelineSnapshot StatPipeline 在某一时刻的快照，用于打印日志以及http api
//
type StatPipelineSnapshot struct {
	ReadBytes     uint64 `json:"read_bytes"`
	InPackets     uint64 `json:"in_packets"`
	OutPackets    uint64 `json:"out_packets"`
	ResyncCount   uint64 `json:"resync_count"`
	SplitErrCount uint64 `json:"split_err_count"`
}

func (s *StatPipeline) Snapshot() StatPipelineSnapshot {
	return StatPipelineSnapshot{
		ReadBytes:     s.ReadBytes.Load(),
		InPackets:     s.InPackets.Load(),
		OutPackets:    s.OutPackets.Load(),
		ResyncCount:   s.ResyncCount.Load(),
		SplitErrCount: s.SplitErrCount.Load(),
	}
}

// StatSubSession 一个http拉流者的信息
//
type StatSubSession struct {
	SessionId  string `json:"session_id"`
	Protocol   string `json:"protocol"`
	Selection  string `json:"selection"`
	RemoteAddr string `json:"remote_addr"`
	StartTime  string `json:"start_time"`
	WroteBytes uint64 `json:"wrote_bytes"`
}

const (
	SessionProtocolTsStr = "HTTP-TS"
	SessionProtocolWsStr = "WS-TS"
)

