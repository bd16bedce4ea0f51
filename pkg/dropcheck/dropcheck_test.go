// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package dropcheck_test

import (
	"testing"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/tssplit/tssplit/pkg/dropcheck"
	"github.com/tssplit/tssplit/pkg/mpegts"
	"github.com/tssplit/tssplit/pkg/splitter"
)

type fakeClassifier struct {
	pmt  map[uint16]bool
	kept map[uint16]bool
}

func (f *fakeClassifier) IsPmt(pid uint16) bool  { return f.pmt[pid] }
func (f *fakeClassifier) IsKept(pid uint16) bool { return f.kept[pid] }

func packets(pid uint16, ccs ...uint8) []byte {
	var ret []byte
	for _, cc := range ccs {
		ret = append(ret, mpegts.PackPayload(pid, false, cc, nil)...)
	}
	return ret
}

func TestChecker(t *testing.T) {
	fc := &fakeClassifier{
		pmt:  map[uint16]bool{0x1F0: true},
		kept: map[uint16]bool{0x11: true, 0x1F0: true, 0x111: true},
	}
	var cbs []dropcheck.Drop
	c := dropcheck.New(fc, func(option *dropcheck.Option) {
		option.OnDrop = func(d dropcheck.Drop) {
			cbs = append(cbs, d)
		}
	})

	// 连续
	assert.Equal(t, 0, c.Feed(packets(0x1F0, 14, 15, 0, 1)))
	// 丢了2
	assert.Equal(t, 1, c.Feed(packets(0x1F0, 3)))
	// 一次重复是允许的，两次不允许
	assert.Equal(t, 0, c.Feed(packets(0x11, 5, 5)))
	assert.Equal(t, 1, c.Feed(packets(0x11, 5)))
	// 0x111 >= 0x100 并且不是PMT，不检查
	assert.Equal(t, 0, c.Feed(packets(0x111, 0, 5, 9)))

	r := c.Report()
	assert.Equal(t, uint64(11), r.TotalPackets)
	assert.Equal(t, uint64(2), r.TotalDrops)
	assert.Equal(t, []dropcheck.PidReport{{Pid: 0x11, Drops: 1}, {Pid: 0x1F0, Drops: 1}}, r.Pids)
	assert.Equal(t, dropcheck.Drop{Pid: 0x1F0, Got: 3, Expected: 2, Index: 4}, c.Drops()[0])
	assert.Equal(t, c.Drops(), cbs)

	c = dropcheck.New(fc, func(option *dropcheck.Option) {
		option.CheckAll = true
	})
	assert.Equal(t, 2, c.Feed(packets(0x111, 0, 5, 9)))
}

func TestCheckerNoPayload(t *testing.T) {
	c := dropcheck.New(&fakeClassifier{pmt: map[uint16]bool{0x1F0: true}})

	b := packets(0x1F0, 0, 1, 2)
	// 第二个packet只有adaptation field，continuity_counter不变
	b[188+3] = 0x20 | 1
	b[188+4] = 183
	assert.Equal(t, 1, c.Feed(b))

	b = packets(0x1F0, 0, 1, 1)
	b[188+3] = 0x20 | 1
	b[188+4] = 183
	c = dropcheck.New(&fakeClassifier{pmt: map[uint16]bool{0x1F0: true}})
	assert.Equal(t, 0, c.Feed(b))
}

func TestCheckerDiscontinuityIndicator(t *testing.T) {
	c := dropcheck.New(&fakeClassifier{pmt: map[uint16]bool{0x1F0: true}})
	b := packets(0x1F0, 0, 7)
	b[188+3] = 0x30 | 7
	b[188+4] = 1
	b[188+5] = 0x80 // discontinuity_indicator
	assert.Equal(t, 0, c.Feed(b))
}

func TestCheckerWithSplitter(t *testing.T) {
	pat := mpegts.PackSection(mpegts.PidPat, 0, mpegts.NewPatSection(1, 0, []mpegts.PatProgramElement{
		{ProgramNumber: 0, ProgramMapPid: mpegts.PidNit},
		{ProgramNumber: 101, ProgramMapPid: 0x1F0},
	}).Pack())

	sp := splitter.New("all")
	_ = sp.Select(pat)
	c := dropcheck.New(sp)
	assert.Equal(t, 1, c.Feed(packets(0x1F0, 0, 2)))
	assert.Equal(t, 0, c.Feed(packets(0x1F1, 0, 2)))
}
