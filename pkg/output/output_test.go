// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package output

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/tssplit/tssplit/pkg/base"
)

func TestFileWriter(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "out.ts")
	w, err := Open(context.Background(), "file://"+filename)
	assert.Equal(t, nil, err)

	fw := w.(*FileWriter)
	assert.Equal(t, filename, fw.Name())
	n, err := fw.Write(make([]byte, 376))
	assert.Equal(t, nil, err)
	assert.Equal(t, 376, n)
	assert.Equal(t, uint64(376), fw.Written())
	assert.Equal(t, nil, fw.Close())

	_, err = fw.Write([]byte{0x47})
	assert.Equal(t, base.ErrOutputDisposed, err)
	assert.Equal(t, base.ErrOutputDisposed, fw.Close())
	assert.Equal(t, "", fw.Name())

	fi, err := os.Stat(filename)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(376), fi.Size())
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open(context.Background(), "rtmp://127.0.0.1/live/test")
	assert.Equal(t, true, errors.Is(err, base.ErrOutputUnsupportedScheme))
}

func TestUdpWriter(t *testing.T) {
	l, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	assert.Equal(t, nil, err)
	defer l.Close()

	w, err := Open(context.Background(), "udp://"+l.LocalAddr().String())
	assert.Equal(t, nil, err)

	// 10个TS packet，分两次写入
	b := make([]byte, 188*10)
	for i := range b {
		b[i] = byte(i)
	}
	_, err = w.Write(b[:300])
	assert.Equal(t, nil, err)
	_, err = w.Write(b[300:])
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, w.Close())

	_ = l.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 2048)
	n, _, err := l.ReadFromUDP(buf)
	assert.Equal(t, nil, err)
	assert.Equal(t, datagramSize, n)
	assert.Equal(t, b[:datagramSize], buf[:n])

	n, _, err = l.ReadFromUDP(buf)
	assert.Equal(t, nil, err)
	assert.Equal(t, 188*3, n)
	assert.Equal(t, b[datagramSize:], buf[:n])

	_, err = w.Write(b)
	assert.Equal(t, base.ErrOutputDisposed, err)
}
