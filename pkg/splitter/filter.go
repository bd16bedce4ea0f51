// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package splitter

import (
	"github.com/tssplit/tssplit/pkg/base"
	"github.com/tssplit/tssplit/pkg/mpegts"
)

// Select 只做分类，分析PAT以及首次解析选中的PMT，不产生输出
//
// 用于在开始Split之前确定需要保留的PID。
// 只处理完整的packet，末尾不足188字节的部分被忽略，需要调用方下次和后续数据一起传入。
//
// @return: nil 表示选择已完成，可以开始 Split。
//          base.ErrSplitterNotReady 表示还需要更多数据。
//          其他错误表示某个PAT或PMT格式错误，或者重组失败，调用方可以继续传入后续数据。
//
func (s *Splitter) Select(b []byte) error {
	var firstErr error
	for i := 0; i+mpegts.PacketSize <= len(b); i += mpegts.PacketSize {
		packet := b[i : i+mpegts.PacketSize]
		if packet[0] != 0x47 {
			continue
		}
		if err := s.classify(packet); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.Ready() {
		return nil
	}
	if firstErr != nil {
		return firstErr
	}
	return base.ErrSplitterNotReady
}

// Split 过滤b中的packet，把需要保留的packet以及重新生成的PAT追加到out后面
//
// 输出保持输入的顺序。出错时继续处理后续的packet，返回第一个错误。
//
// @param out: 可以为nil，也可以传入复用的内存块，比如 out[:0]
//
func (s *Splitter) Split(b []byte, out []byte) ([]byte, error) {
	var firstErr error
	for i := 0; i+mpegts.PacketSize <= len(b); i += mpegts.PacketSize {
		packet := b[i : i+mpegts.PacketSize]
		if packet[0] != 0x47 {
			s.dropCount++
			continue
		}

		pid := mpegts.PacketPid(packet)
		if pid == mpegts.PidPat {
			if s.state == patStateUninit {
				if err := s.analyzePat(packet); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			if s.state == patStateBuilt {
				out = append(out, s.nextPat()...)
			} else {
				s.dropCount++
			}
			continue
		}

		if s.pmtPids[pid] != PmtStateNone {
			if err := s.filterPmt(packet); err != nil && firstErr == nil {
				firstErr = err
			}
		}

		if s.pids[pid] != markDrop {
			out = append(out, packet...)
		} else {
			s.dropCount++
		}
	}
	return out, firstErr
}

func (s *Splitter) classify(packet []byte) error {
	pid := mpegts.PacketPid(packet)
	if pid == mpegts.PidPat {
		if s.state == patStateUninit {
			if err := s.analyzePat(packet); err != nil {
				return err
			}
			s.checkReady()
		}
		return nil
	}
	if s.pmtPids[pid] == PmtStateSelected {
		return s.firstPmt(packet)
	}
	return nil
}

// firstPmt 首次解析某个PMT
func (s *Splitter) firstPmt(packet []byte) error {
	pid := mpegts.PacketPid(packet)
	// 上一个section的尾部完成时，即使新section出错也计数
	done, err := s.analyzePmt(packet, markFirst)
	if done {
		s.pmtPids[pid] = PmtStateParsed
		if slot := s.versions.find(pid); slot != nil {
			slot.counted = true
		}
		s.pmtCounter++
		s.checkReady()
	}
	return err
}

func (s *Splitter) checkReady() {
	if !s.primed && s.Ready() {
		s.primed = true
		Log.Infof("[%s] selection ready. selection=%s, pmt=%d", s.uniqueKey, s.selection, s.pmtRetain)
	}
}

// filterPmt Split中处理PMT packet，检查version变化，必要时rescan
func (s *Splitter) filterPmt(packet []byte) error {
	pid := mpegts.PacketPid(packet)
	if s.pmtPids[pid] == PmtStateSelected {
		return s.firstPmt(packet)
	}
	if !s.primed {
		return nil
	}

	if mpegts.PacketPayloadUnitStart(packet) {
		version, ok := pmtVersion(packet)
		if (ok && version != s.versions.get(pid)) || s.pmtRetain != s.pmtCounter {
			return s.rescan(packet)
		}
		return nil
	}
	if s.pmtRetain != s.pmtCounter {
		return s.rescan(packet)
	}
	return nil
}
