// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

//go:build !nosrt
// +build !nosrt

package input

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"sync"

	"github.com/haivision/srtgo"
	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/tssplit/tssplit/pkg/base"
)

var errSrtSocket = errors.New("tssplit.input: create srt socket failed")

// SrtReader
//
// listener模式下只接受第一个推流的连接
//
type SrtReader struct {
	listener *srtgo.SrtSocket
	socket   *srtgo.SrtSocket
	stop     func()

	closeOnce sync.Once
}

func openSrt(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	uc, err := base.ParseSrtUrl(u, base.SrtModeListener)
	if err != nil {
		return nil, err
	}
	sck := srtgo.NewSrtSocket(uc.Host, uc.Port, uc.Options)
	if sck == nil {
		return nil, nazaerrors.Wrap(errSrtSocket)
	}

	r := &SrtReader{}
	if uc.Mode == base.SrtModeCaller {
		if err = sck.Connect(); err != nil {
			sck.Close()
			return nil, err
		}
		r.socket = sck
		r.stop = closeOnDone(ctx, func() { _ = r.Close() })
		return r, nil
	}

	sck.SetListenCallback(listenCallback)
	if err = sck.Listen(1); err != nil {
		sck.Close()
		return nil, err
	}
	r.listener = sck
	r.stop = closeOnDone(ctx, func() { _ = r.Close() })

	Log.Infof("srt listen. addr=%s:%d", uc.Host, uc.Port)
	socket, addr, err := sck.Accept()
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	Log.Infof("srt accept. remote=%s", addr.String())
	r.socket = socket
	return r, nil
}

func listenCallback(socket *srtgo.SrtSocket, version int, addr *net.UDPAddr, streamId string) bool {
	Log.Debugf("srt socket will connect. hsVersion=%d, streamid=%s", version, streamId)
	if streamId == "" {
		return true
	}
	id, err := ParseStreamId(streamId)
	if err != nil || !id.IsPublish() {
		socket.SetRejectReason(srtgo.RejectionReasonBadRequest)
		return false
	}
	return true
}

func (r *SrtReader) Read(b []byte) (int, error) {
	return r.socket.Read(b)
}

func (r *SrtReader) Close() error {
	r.closeOnce.Do(func() {
		if r.stop != nil {
			r.stop()
		}
		if r.socket != nil {
			r.socket.Close()
		}
		if r.listener != nil {
			r.listener.Close()
		}
	})
	return nil
}
