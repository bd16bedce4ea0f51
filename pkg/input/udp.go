// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package input

import (
	"context"
	"io"
	"net"
	"net/url"
	"sync"

	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/naza/pkg/nazanet"
)

// MaxUdpPacketSize 一个udp包最大的大小，通常是7个TS packet，也可能带rtp头
const MaxUdpPacketSize = 1500

type UdpReader struct {
	conn *nazanet.UdpConnection
	pr   *io.PipeReader
	pw   *io.PipeWriter
	stop func()
	rtp  rtpStripper

	closeOnce sync.Once
	closeErr  error
}

func openUdp(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", u.Host)
	if err != nil {
		return nil, err
	}

	var mc *net.UDPConn
	if udpAddr.IP != nil && udpAddr.IP.IsMulticast() {
		if mc, err = net.ListenMulticastUDP("udp", nil, udpAddr); err != nil {
			return nil, err
		}
	}

	conn, err := nazanet.NewUdpConnection(func(option *nazanet.UdpConnectionOption) {
		option.LAddr = u.Host
		option.Conn = mc
		option.MaxReadPacketSize = MaxUdpPacketSize
	})
	if err != nil {
		return nil, err
	}

	r := &UdpReader{conn: conn}
	r.pr, r.pw = io.Pipe()
	r.stop = closeOnDone(ctx, func() {
		_ = r.Close()
	})
	go r.runLoop()
	return r, nil
}

func (r *UdpReader) runLoop() {
	err := r.conn.RunLoop(func(b []byte, raddr *net.UDPAddr, err error) bool {
		if err != nil {
			return false
		}
		// 管道写入阻塞到读取方取走全部数据，所以b可以被复用
		_, werr := r.pw.Write(r.rtp.strip(b))
		return werr == nil
	})
	if err == nil {
		err = io.EOF
	}
	_ = r.pw.CloseWithError(err)
}

func (r *UdpReader) Read(b []byte) (int, error) {
	return r.pr.Read(b)
}

func (r *UdpReader) Close() error {
	r.closeOnce.Do(func() {
		r.stop()
		e1 := r.conn.Dispose()
		e2 := r.pr.Close()
		r.closeErr = nazaerrors.CombineErrors(e1, e2)
	})
	return r.closeErr
}
