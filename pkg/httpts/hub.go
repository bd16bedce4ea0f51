// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package httpts

import (
	"sync"

	"github.com/q191201771/naza/pkg/nazaatomic"
	"github.com/tssplit/tssplit/pkg/base"
)

// Hub 把一路输入流分发给所有拉流者
//
// 每个拉流者有自己的发送队列，队列满了说明该拉流者消费太慢，直接将其踢掉，不影响其他拉流者。
//
type Hub struct {
	uniqueKey string
	chanSize  int

	mutex    sync.Mutex
	subs     map[*HubSubscriber]struct{}
	disposed bool

	inBytes nazaatomic.Uint64
}

type HubSubscriber struct {
	ch  chan []byte
	err error
}

// NewHub
//
// @param chanSize: 每个拉流者的队列大小，为0时使用默认值
//
func NewHub(chanSize int) *Hub {
	if chanSize <= 0 {
		chanSize = subSessionWriteChanSize
	}
	h := &Hub{
		uniqueKey: base.GenUkHub(),
		chanSize:  chanSize,
		subs:      make(map[*HubSubscriber]struct{}),
	}
	Log.Infof("[%s] lifecycle new hub.", h.uniqueKey)
	return h
}

// Write 实现io.Writer，b会被拷贝一份，所以调用方可以复用b
func (h *Hub) Write(b []byte) (int, error) {
	h.inBytes.Add(uint64(len(b)))

	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.disposed {
		return 0, base.ErrHttptsHubDisposed
	}
	if len(h.subs) == 0 {
		return len(b), nil
	}

	// 所有拉流者共享同一块只读内存
	chunk := make([]byte, len(b))
	copy(chunk, b)
	for sub := range h.subs {
		select {
		case sub.ch <- chunk:
		default:
			Log.Warnf("[%s] subscriber too slow, kick it.", h.uniqueKey)
			h.closeSub(sub, base.ErrHttptsSubscriberSlow)
		}
	}
	return len(b), nil
}

func (h *Hub) Subscribe() (*HubSubscriber, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.disposed {
		return nil, base.ErrHttptsHubDisposed
	}
	sub := &HubSubscriber{
		ch: make(chan []byte, h.chanSize),
	}
	h.subs[sub] = struct{}{}
	return sub, nil
}

// Unsubscribe 可以重复调用
func (h *Hub) Unsubscribe(sub *HubSubscriber) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.subs[sub]; ok {
		h.closeSub(sub, nil)
	}
}

// Dispose 关闭所有拉流者，之后的Write和Subscribe都返回 base.ErrHttptsHubDisposed
func (h *Hub) Dispose() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.disposed {
		return
	}
	Log.Infof("[%s] lifecycle dispose hub. sub num=%d", h.uniqueKey, len(h.subs))
	h.disposed = true
	for sub := range h.subs {
		h.closeSub(sub, base.ErrHttptsHubDisposed)
	}
}

func (h *Hub) UniqueKey() string {
	return h.uniqueKey
}

func (h *Hub) InBytes() uint64 {
	return h.inBytes.Load()
}

func (h *Hub) SubscriberCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.subs)
}

// 调用方持有锁
func (h *Hub) closeSub(sub *HubSubscriber, err error) {
	delete(h.subs, sub)
	sub.err = err
	close(sub.ch)
}

// C 被关闭后，通过 Err 获取原因
func (sub *HubSubscriber) C() <-chan []byte {
	return sub.ch
}

// Err 主动 Unsubscribe 时为nil
func (sub *HubSubscriber) Err() error {
	return sub.err
}
