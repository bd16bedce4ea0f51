// Copyright 2020, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package httpts

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/q191201771/naza/pkg/nazaatomic"
	"github.com/tssplit/tssplit/pkg/base"
	"github.com/tssplit/tssplit/pkg/pipeline"
)

// SubSession 一个拉流者，拥有自己独立的 pipeline 以及 splitter
//
type SubSession struct {
	uniqueKey  string
	protocol   string
	selection  string
	remoteAddr string
	startTime  string

	w        io.Writer
	pipeline *pipeline.Pipeline
	sub      *HubSubscriber
	hub      *Hub

	wroteBytes  nazaatomic.Uint64
	disposeOnce sync.Once
}

func newSubSession(uk, protocol, selection, remoteAddr string, w io.Writer, hub *Hub, sub *HubSubscriber, pipelineOptions []pipeline.ModOption) *SubSession {
	s := &SubSession{
		uniqueKey:  uk,
		protocol:   protocol,
		selection:  selection,
		remoteAddr: remoteAddr,
		startTime:  base.ReadableNowTime(),
		w:          w,
		hub:        hub,
		sub:        sub,
	}
	s.pipeline = pipeline.New(selection, writerFunc(s.write), pipelineOptions...)
	Log.Infof("[%s] lifecycle new %s SubSession. selection=%s, remote addr=%s", uk, protocol, selection, remoteAddr)
	return s
}

// RunLoop 阻塞直到ctx取消或者拉流结束
//
// 拉流结束的原因包括hub关闭，拉流者太慢被踢掉，写失败，被 Dispose 。
//
func (s *SubSession) RunLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-s.sub.C():
			if !ok {
				return s.sub.Err()
			}
			if err := s.pipeline.Feed(b); err != nil {
				return err
			}
		}
	}
}

// Dispose 可以重复调用，也可以在 RunLoop 所在协程之外调用
func (s *SubSession) Dispose() {
	s.disposeOnce.Do(func() {
		Log.Infof("[%s] lifecycle dispose %s SubSession.", s.uniqueKey, s.protocol)
		s.hub.Unsubscribe(s.sub)
	})
}

func (s *SubSession) UniqueKey() string {
	return s.uniqueKey
}

func (s *SubSession) Selection() string {
	return s.selection
}

func (s *SubSession) Pipeline() *pipeline.Pipeline {
	return s.pipeline
}

func (s *SubSession) GetStat() base.StatSubSession {
	return base.StatSubSession{
		SessionId:  s.uniqueKey,
		Protocol:   s.protocol,
		Selection:  s.selection,
		RemoteAddr: s.remoteAddr,
		StartTime:  s.startTime,
		WroteBytes: s.wroteBytes.Load(),
	}
}

func (s *SubSession) write(b []byte) (int, error) {
	n, err := s.w.Write(b)
	s.wroteBytes.Add(uint64(n))
	return n, err
}

// ---------------------------------------------------------------------------------------------------------------------

type writerFunc func(b []byte) (int, error)

func (fn writerFunc) Write(b []byte) (int, error) {
	return fn(b)
}

// httpWriter 每次写都刷新，并设置写超时
type httpWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func newHttpWriter(w http.ResponseWriter) *httpWriter {
	return &httpWriter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

func (hw *httpWriter) Write(b []byte) (int, error) {
	_ = hw.rc.SetWriteDeadline(time.Now().Add(time.Duration(subSessionWriteTimeoutMs) * time.Millisecond))
	n, err := hw.w.Write(b)
	if err != nil {
		return n, err
	}
	return n, hw.rc.Flush()
}

// wsWriter 每次写作为一个websocket二进制帧
type wsWriter struct {
	conn *websocket.Conn
}

func (ww *wsWriter) Write(b []byte) (int, error) {
	_ = ww.conn.SetWriteDeadline(time.Now().Add(time.Duration(subSessionWriteTimeoutMs) * time.Millisecond))
	if err := ww.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return 0, err
	}
	return len(b), nil
}
