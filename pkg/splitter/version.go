// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package splitter

const versionUnknown uint8 = 0xFF

// versionTable 选中的PMT PID以及它最近一次的version，容量固定
//
// 槽位序号即选中的顺序。数量很少，线性查找即可。
//
type versionTable struct {
	slots []versionSlot
	cap   int
}

type versionSlot struct {
	pid     uint16
	version uint8 // 即 PMT 第5字节 & 0x3E
	counted bool  // 在当前rescan轮次中是否已经计数
}

func (t *versionTable) init(capacity int) {
	t.cap = capacity
	t.slots = make([]versionSlot, 0, capacity)
}

func (t *versionTable) full() bool {
	return len(t.slots) >= t.cap
}

// add 返回false表示容量已满
func (t *versionTable) add(pid uint16) bool {
	if t.full() {
		return false
	}
	t.slots = append(t.slots, versionSlot{pid: pid, version: versionUnknown})
	return true
}

func (t *versionTable) find(pid uint16) *versionSlot {
	for i := range t.slots {
		if t.slots[i].pid == pid {
			return &t.slots[i]
		}
	}
	return nil
}

func (t *versionTable) get(pid uint16) uint8 {
	if slot := t.find(pid); slot != nil {
		return slot.version
	}
	return versionUnknown
}

func (t *versionTable) update(pid uint16, version uint8) {
	if slot := t.find(pid); slot != nil {
		slot.version = version
	}
}

func (t *versionTable) clearCounted() {
	for i := range t.slots {
		t.slots[i].counted = false
	}
}
