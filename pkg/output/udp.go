// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package output

import (
	"io"
	"net/url"

	"github.com/q191201771/naza/pkg/nazanet"
	"github.com/tssplit/tssplit/pkg/base"
	"github.com/tssplit/tssplit/pkg/mpegts"
)

// PacketsPerDatagram 每个udp包中TS packet的个数，7*188=1316
const PacketsPerDatagram = 7

const datagramSize = PacketsPerDatagram * mpegts.PacketSize

// UdpWriter 攒够7个TS packet再发送，Close时发送剩余的部分
//
type UdpWriter struct {
	conn *nazanet.UdpConnection
	buf  []byte
}

func openUdp(u *url.URL) (io.WriteCloser, error) {
	return NewUdpWriter(u.Host)
}

func NewUdpWriter(raddr string) (*UdpWriter, error) {
	conn, err := nazanet.NewUdpConnection(func(option *nazanet.UdpConnectionOption) {
		option.RAddr = raddr
	})
	if err != nil {
		return nil, err
	}
	return &UdpWriter{
		conn: conn,
		buf:  make([]byte, 0, datagramSize),
	}, nil
}

func (w *UdpWriter) Write(b []byte) (int, error) {
	if w.conn == nil {
		return 0, base.ErrOutputDisposed
	}
	n := len(b)
	for len(b) > 0 {
		l := datagramSize - len(w.buf)
		if l > len(b) {
			l = len(b)
		}
		w.buf = append(w.buf, b[:l]...)
		b = b[l:]
		if len(w.buf) == datagramSize {
			if err := w.flush(); err != nil {
				return n - len(b), err
			}
		}
	}
	return n, nil
}

func (w *UdpWriter) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	err := w.conn.Write(w.buf)
	w.buf = w.buf[:0]
	return err
}

func (w *UdpWriter) Close() error {
	if w.conn == nil {
		return base.ErrOutputDisposed
	}
	err := w.flush()
	if derr := w.conn.Dispose(); err == nil {
		err = derr
	}
	w.conn = nil
	return err
}
