// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package splitter

import "github.com/tssplit/tssplit/pkg/mpegts"

// rescan 所有选中的PMT重新解析一轮，重新确认需要保留的PID
//
// 新一轮开始时，所有PID的标记保持不变，重新确认的PID被标记为 markRescan。
// 一轮结束时所有非0标记减1，只在旧一轮中出现的PID变为0，重新确认过的变为1。
//
func (s *Splitter) rescan(packet []byte) error {
	pid := mpegts.PacketPid(packet)

	if s.pmtCounter == s.pmtRetain {
		s.beginRescan(pid)
	}

	done, err := s.analyzePmt(packet, markRescan)
	if done {
		if slot := s.versions.find(pid); slot != nil && !slot.counted {
			slot.counted = true
			s.pmtCounter++
		}
	}
	if (done || err == nil) && s.pmtCounter == s.pmtRetain {
		s.finishRescan()
	}
	return err
}

func (s *Splitter) beginRescan(trigger uint16) {
	s.rescanCount++
	Log.Infof("[%s] rescan begin. trigger pid=0x%04x, pmt=%d, count=%d", s.uniqueKey, trigger, s.pmtRetain, s.rescanCount)

	s.pmtCounter = 0
	s.versions.clearCounted()
	s.resetSections()

	// PMT自身以及EPG固定PID不会出现在PMT的内容中，这里重新确认
	for _, slot := range s.versions.slots {
		s.mark(slot.pid, markRescan)
	}
	for _, pid := range s.pinned {
		s.mark(pid, markRescan)
	}
}

func (s *Splitter) finishRescan() {
	kept := 0
	for i := range s.pids {
		if s.pids[i] != markDrop {
			s.pids[i]--
			if s.pids[i] != markDrop {
				kept++
			}
		}
	}
	Log.Infof("[%s] rescan finish. kept pids=%d", s.uniqueKey, kept)
}
