// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package input

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/q191201771/naza/pkg/assert"
	"github.com/tssplit/tssplit/pkg/base"
)

func tsPayload(n int, seed byte) []byte {
	b := make([]byte, 188*n)
	for i := 0; i < n; i++ {
		p := b[i*188 : (i+1)*188]
		p[0] = 0x47
		for j := 1; j < 188; j++ {
			p[j] = seed + byte(i)
		}
	}
	return b
}

func rtpWrap(payload []byte, csrc int, ext []byte) []byte {
	h := []byte{0x80 | byte(csrc), 33, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1}
	if ext != nil {
		h[0] |= 0x10
	}
	h = append(h, make([]byte, 4*csrc)...)
	if ext != nil {
		h = append(h, 0xBE, 0xDE, 0, byte(len(ext)/4))
		h = append(h, ext...)
	}
	return append(h, payload...)
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "in.ts")
	content := tsPayload(3, 1)
	assert.Equal(t, nil, os.WriteFile(filename, content, 0644))

	for _, rawUrl := range []string{filename, "file://" + filename} {
		r, err := Open(context.Background(), rawUrl)
		assert.Equal(t, nil, err)
		b, err := io.ReadAll(r)
		assert.Equal(t, nil, err)
		assert.Equal(t, content, b)
		assert.Equal(t, nil, r.Close())
	}

	_, err := Open(context.Background(), filepath.Join(dir, "notexist.ts"))
	assert.Equal(t, base.ErrFileNotExist, err)
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open(context.Background(), "rtmp://127.0.0.1/live/test")
	assert.Equal(t, true, errors.Is(err, base.ErrInputUnsupportedScheme))
}

func TestParseStreamId(t *testing.T) {
	id, err := ParseStreamId("#!::u=chef,r=live/test,m=publish")
	assert.Equal(t, nil, err)
	assert.Equal(t, "chef", id.User)
	assert.Equal(t, "live/test", id.Resource)
	assert.Equal(t, true, id.IsPublish())

	id, err = ParseStreamId("#!::r=live/test,m=request")
	assert.Equal(t, nil, err)
	assert.Equal(t, false, id.IsPublish())

	_, err = ParseStreamId("live/test")
	assert.Equal(t, errInvalidStreamId, err)
	_, err = ParseStreamId("#!::r")
	assert.Equal(t, errInvalidStreamId, err)
}

func TestStripRtp(t *testing.T) {
	ts := tsPayload(7, 0x10)
	assert.Equal(t, ts, StripRtp(ts))
	assert.Equal(t, ts, StripRtp(rtpWrap(ts, 0, nil)))
	assert.Equal(t, ts, StripRtp(rtpWrap(ts, 2, nil)))
	assert.Equal(t, ts, StripRtp(rtpWrap(ts, 1, []byte{1, 2, 3, 4, 5, 6, 7, 8})))

	// padding
	padded := append(rtpWrap(ts, 0, nil), 0, 0, 3)
	padded[0] |= 0x20
	assert.Equal(t, ts, StripRtp(padded))

	short := []byte{0x80, 1, 2}
	assert.Equal(t, short, StripRtp(short))
}

func writePcap(t *testing.T, filename string, payloads [][]byte) {
	fp, err := os.Create(filename)
	assert.Equal(t, nil, err)
	defer fp.Close()

	w := pcapgo.NewWriter(fp)
	assert.Equal(t, nil, w.WriteFileHeader(65536, layers.LinkTypeEthernet))

	for i, payload := range payloads {
		eth := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
			DstMAC:       net.HardwareAddr{1, 0, 0x5e, 0, 0, 1},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    net.IP{192, 168, 0, 2},
			DstIP:    net.IP{239, 0, 0, 1},
		}
		udp := &layers.UDP{SrcPort: 5000, DstPort: 1234}
		assert.Equal(t, nil, udp.SetNetworkLayerForChecksum(ip))

		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		assert.Equal(t, nil, gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)))
		data := buf.Bytes()
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Unix(1600000000, int64(i)*1000),
			CaptureLength: len(data),
			Length:        len(data),
		}
		assert.Equal(t, nil, w.WritePacket(ci, data))
	}
}

func TestOpenPcap(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "in.pcap")
	p1 := tsPayload(7, 0x20)
	p2 := tsPayload(7, 0x40)
	writePcap(t, filename, [][]byte{p1, rtpWrap(p2, 0, nil)})

	r, err := Open(context.Background(), "pcap://"+filename)
	assert.Equal(t, nil, err)
	defer r.Close()

	b, err := io.ReadAll(r)
	assert.Equal(t, nil, err)
	assert.Equal(t, 188*14, len(b))
	assert.Equal(t, true, bytes.Equal(p1, b[:188*7]))
	assert.Equal(t, true, bytes.Equal(p2, b[188*7:]))
}

func TestOpenUdp(t *testing.T) {
	// 先占一个空闲端口
	l, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	assert.Equal(t, nil, err)
	addr := l.LocalAddr().String()
	_ = l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r, err := Open(ctx, "udp://"+addr)
	assert.Equal(t, nil, err)

	conn, err := net.Dial("udp", addr)
	assert.Equal(t, nil, err)
	defer conn.Close()

	payload := tsPayload(7, 0x30)
	_, err = conn.Write(rtpWrap(payload, 0, nil))
	assert.Equal(t, nil, err)

	b := make([]byte, 188*7)
	_, err = io.ReadFull(r, b)
	assert.Equal(t, nil, err)
	assert.Equal(t, payload, b)

	// ctx取消后Read返回错误
	cancel()
	_, err = r.Read(b)
	assert.IsNotNil(t, err)
	_ = r.Close()
}
