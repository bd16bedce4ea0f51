// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package dropcheck 基于 splitter 的PID分类表，检查continuity_counter，统计丢包
//
package dropcheck

import (
	"sort"

	"github.com/tssplit/tssplit/pkg/base"
	"github.com/tssplit/tssplit/pkg/mpegts"
)

var Log = base.Log

// 检查范围：PMT，以及小于这个值并且被保留的PID
const checkPidLimit uint16 = 0x100

// maxDropRecord 最多保留多少条丢包记录，统计不受影响
const maxDropRecord = 1024

// Classifier 由 splitter.Splitter 实现
type Classifier interface {
	IsPmt(pid uint16) bool
	IsKept(pid uint16) bool
}

type Drop struct {
	Pid      uint16
	Got      uint8
	Expected uint8
	Index    uint64 // 从0开始的packet序号
}

type Option struct {
	// CheckAll 为true时检查所有PID，否则只检查PMT以及小于0x100并被保留的PID
	CheckAll bool

	// OnDrop 发现丢包时回调，可以为nil
	OnDrop func(d Drop)
}

type ModOption func(option *Option)

type Checker struct {
	option     Option
	classifier Classifier

	seen  [mpegts.PidNum]bool
	next  [mpegts.PidNum]uint8
	dup   [mpegts.PidNum]bool // 上一个packet是否已经是重复packet
	index uint64

	dropCount map[uint16]uint64
	drops     []Drop
}

func New(classifier Classifier, modOptions ...ModOption) *Checker {
	var option Option
	for _, fn := range modOptions {
		fn(&option)
	}
	return &Checker{
		option:     option,
		classifier: classifier,
		dropCount:  make(map[uint16]uint64),
	}
}

// Feed 检查b中的所有完整packet
//
// @return: 本次发现的丢包个数
//
func (c *Checker) Feed(b []byte) int {
	n := 0
	for i := 0; i+mpegts.PacketSize <= len(b); i += mpegts.PacketSize {
		if c.check(b[i : i+mpegts.PacketSize]) {
			n++
		}
		c.index++
	}
	return n
}

func (c *Checker) check(packet []byte) bool {
	if packet[0] != 0x47 {
		return false
	}
	pid := mpegts.PacketPid(packet)
	if pid == mpegts.PidNull {
		return false
	}
	cc := mpegts.PacketCc(packet)

	// adaptation_field_control为10时continuity_counter不增加
	if !mpegts.PacketHasPayload(packet) {
		return false
	}
	if packet[3]&0x20 != 0 {
		if af := mpegts.ParseTsPacketAdaptation(packet[4:]); af.Discontinuity == 1 {
			c.seen[pid] = false
		}
	}

	defer func() {
		c.next[pid] = (cc + 1) & 0x0F
		c.seen[pid] = true
	}()

	if !c.seen[pid] {
		c.dup[pid] = false
		return false
	}
	if cc == c.next[pid] {
		c.dup[pid] = false
		return false
	}
	// 允许一次重复packet
	if cc == (c.next[pid]-1)&0x0F && !c.dup[pid] {
		c.dup[pid] = true
		return false
	}
	c.dup[pid] = false

	if !c.option.CheckAll && !c.classifier.IsPmt(pid) && !(pid < checkPidLimit && c.classifier.IsKept(pid)) {
		return false
	}

	d := Drop{Pid: pid, Got: cc, Expected: c.next[pid], Index: c.index}
	c.dropCount[pid]++
	if len(c.drops) < maxDropRecord {
		c.drops = append(c.drops, d)
	}
	Log.Warnf("packet drop. pid=%d(0x%04x), cc=%d, expected=%d, index=%d", pid, pid, d.Got, d.Expected, d.Index)
	if c.option.OnDrop != nil {
		c.option.OnDrop(d)
	}
	return true
}

// Report 统计结果
type Report struct {
	TotalPackets uint64
	TotalDrops   uint64
	Pids         []PidReport // 按PID排序
}

type PidReport struct {
	Pid   uint16
	Drops uint64
}

func (c *Checker) Report() Report {
	r := Report{TotalPackets: c.index}
	for pid, n := range c.dropCount {
		r.TotalDrops += n
		r.Pids = append(r.Pids, PidReport{Pid: pid, Drops: n})
	}
	sort.Slice(r.Pids, func(i, j int) bool { return r.Pids[i].Pid < r.Pids[j].Pid })
	return r
}

// Drops 最近的丢包记录，最多 maxDropRecord 条
func (c *Checker) Drops() []Drop {
	return c.drops
}
