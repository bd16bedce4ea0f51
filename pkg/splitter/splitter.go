// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package splitter 从ISDB/DVB TS流中只保留选中的节目(service)
//
// 它负责对每个TS packet按PID分类，使用重新生成的PAT替换原始PAT，
// 对跨packet的PMT做重组，并在PMT版本变化时重新扫描PID集合(rescan)。
//
// Splitter 本身不做任何IO，也不是并发安全的，每路流需要使用自己的实例。
//
package splitter

import (
	"github.com/tssplit/tssplit/pkg/base"
	"github.com/tssplit/tssplit/pkg/mpegts"
)

var Log = base.Log

const (
	// DefaultMaxServices 版本表的容量，也即最多可以选中的PMT个数
	DefaultMaxServices = 50
)

// pid表中的标记值
const (
	markDrop   uint8 = 0
	markFirst  uint8 = 1 // 首次解析PMT时确认
	markRescan uint8 = 2 // rescan时重新确认
)

// pmt pid表中的状态值
const (
	PmtStateNone     uint8 = 0 // 不是选中的PMT
	PmtStateSelected uint8 = 1 // 选中了，但是还没有成功解析过
	PmtStateParsed   uint8 = 2 // 至少成功解析过一次
)

type patState int

const (
	patStateUninit patState = iota
	patStateBuilt
)

type Option struct {
	// MaxServices 最多可以选中多少个PMT，超出的节目不会被选中
	MaxServices int

	// CheckPatCrc 为true时，CRC_32校验失败的PAT被当作格式错误
	CheckPatCrc bool
}

var defaultOption = Option{
	MaxServices: DefaultMaxServices,
	CheckPatCrc: false,
}

type ModOption func(option *Option)

// Splitter
//
// 选择表达式在创建时确定，之后不可修改，需要修改时创建新的实例
//
type Splitter struct {
	uniqueKey string
	option    Option
	selection string
	selectors []selector

	state      patState
	pat        [mpegts.PacketSize]byte
	patCc      uint8
	patEmitted bool

	pids    [mpegts.PidNum]uint8
	pmtPids [mpegts.PidNum]uint8
	pinned  []uint16 // EPG等固定保留的PID

	pmtRetain  int
	pmtCounter int
	versions   versionTable
	sections   map[uint16]*pmtSection

	primed      bool // 首次选择完成过
	rescanCount uint64
	dropCount   uint64
}

// New
//
// @param selection: 逗号分隔的选择表达式，比如 "HD"、"101,102"、"1SEG,EPG1SEG"、"all"
//
func New(selection string, modOptions ...ModOption) *Splitter {
	option := defaultOption
	for _, fn := range modOptions {
		fn(&option)
	}
	if option.MaxServices <= 0 {
		option.MaxServices = DefaultMaxServices
	}

	s := &Splitter{
		uniqueKey: base.GenUkSplitter(),
		option:    option,
		selection: selection,
		selectors: parseSelection(selection),
		sections:  make(map[uint16]*pmtSection),
	}
	s.versions.init(option.MaxServices)
	Log.Debugf("[%s] lifecycle new splitter. selection=%s", s.uniqueKey, selection)
	return s
}

func (s *Splitter) UniqueKey() string {
	return s.uniqueKey
}

func (s *Splitter) Selection() string {
	return s.selection
}

// Ready 选中的PMT在当前轮次是否全部解析完成
func (s *Splitter) Ready() bool {
	return s.state == patStateBuilt && s.pmtCounter == s.pmtRetain
}

// PmtRetain 需要解析的PMT个数，PAT还没有分析时返回-1
func (s *Splitter) PmtRetain() int {
	if s.state == patStateUninit {
		return -1
	}
	return s.pmtRetain
}

func (s *Splitter) PmtCounter() int {
	return s.pmtCounter
}

// Mark
//
// @return: 原始的标记值，0表示丢弃，1或2表示保留，2表示在rescan中重新确认过
//
func (s *Splitter) Mark(pid uint16) uint8 {
	return s.pids[pid&0x1FFF]
}

// IsKept 把标记值归一化为是否保留
func (s *Splitter) IsKept(pid uint16) bool {
	return s.pids[pid&0x1FFF] != markDrop
}

// PmtState 返回值见 PmtStateNone 等
func (s *Splitter) PmtState(pid uint16) uint8 {
	return s.pmtPids[pid&0x1FFF]
}

func (s *Splitter) IsPmt(pid uint16) bool {
	return s.pmtPids[pid&0x1FFF] != PmtStateNone
}

// Marks 返回pid标记表的拷贝
func (s *Splitter) Marks() [mpegts.PidNum]uint8 {
	return s.pids
}

// PmtStates 返回pmt pid表的拷贝
func (s *Splitter) PmtStates() [mpegts.PidNum]uint8 {
	return s.pmtPids
}

// PatPacket
//
// @return: 重新生成的PAT packet的拷贝，还没有生成时返回false
//
func (s *Splitter) PatPacket() ([]byte, bool) {
	if s.state != patStateBuilt {
		return nil, false
	}
	out := make([]byte, mpegts.PacketSize)
	copy(out, s.pat[:])
	return out, true
}

// RescanCount rescan发生的次数
func (s *Splitter) RescanCount() uint64 {
	return s.rescanCount
}

// DropCount 被丢弃的packet个数，只用于观察
func (s *Splitter) DropCount() uint64 {
	return s.dropCount
}

func (s *Splitter) mark(pid uint16, mark uint8) {
	pid &= 0x1FFF
	if s.pids[pid] < mark {
		s.pids[pid] = mark
	}
}
