// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

//go:build !nosrt
// +build !nosrt

package output

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"

	"github.com/haivision/srtgo"
	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/tssplit/tssplit/pkg/base"
	"github.com/tssplit/tssplit/pkg/mpegts"
)

var errSrtSocket = errors.New("tssplit.output: create srt socket failed")

// srtPayloadSize live模式下单次发送的最大长度
const srtPayloadSize = 7 * mpegts.PacketSize

// SrtWriter
//
// 默认caller模式；listener模式下等待第一个拉流连接
//
type SrtWriter struct {
	listener *srtgo.SrtSocket
	socket   *srtgo.SrtSocket

	closeOnce sync.Once
}

func openSrt(ctx context.Context, u *url.URL) (io.WriteCloser, error) {
	uc, err := base.ParseSrtUrl(u, base.SrtModeCaller)
	if err != nil {
		return nil, err
	}
	sck := srtgo.NewSrtSocket(uc.Host, uc.Port, uc.Options)
	if sck == nil {
		return nil, nazaerrors.Wrap(errSrtSocket)
	}

	w := &SrtWriter{}
	if uc.Mode != base.SrtModeListener {
		if err = sck.Connect(); err != nil {
			sck.Close()
			return nil, err
		}
		w.socket = sck
		return w, nil
	}

	if err = sck.Listen(1); err != nil {
		sck.Close()
		return nil, err
	}
	w.listener = sck
	go func() {
		<-ctx.Done()
		_ = w.Close()
	}()
	Log.Infof("srt listen. addr=%s:%d", uc.Host, uc.Port)
	socket, addr, err := sck.Accept()
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	Log.Infof("srt accept. remote=%s", addr.String())
	w.socket = socket
	return w, nil
}

func (w *SrtWriter) Write(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		l := srtPayloadSize
		if l > len(b) {
			l = len(b)
		}
		wn, err := w.socket.Write(b[:l])
		n += wn
		if err != nil {
			return n, err
		}
		b = b[l:]
	}
	return n, nil
}

func (w *SrtWriter) Close() error {
	w.closeOnce.Do(func() {
		if w.socket != nil {
			w.socket.Close()
		}
		if w.listener != nil {
			w.listener.Close()
		}
	})
	return nil
}
