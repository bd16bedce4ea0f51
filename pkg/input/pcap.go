// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package input

import (
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/tssplit/tssplit/pkg/base"
)

// PcapReader 读取pcap文件中所有udp包的负载，不依赖libpcap
//
type PcapReader struct {
	fp      *os.File
	source  *gopacket.PacketSource
	rtp     rtpStripper
	pending []byte
}

func openPcap(filename string) (io.ReadCloser, error) {
	fp, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, base.ErrFileNotExist
		}
		return nil, err
	}
	return NewPcapReader(fp)
}

func NewPcapReader(fp *os.File) (*PcapReader, error) {
	pr, err := pcapgo.NewReader(fp)
	if err != nil {
		_ = fp.Close()
		return nil, nazaerrors.Wrap(err)
	}
	source := gopacket.NewPacketSource(pr, pr.LinkType())
	source.DecodeOptions = gopacket.DecodeOptions{Lazy: true, NoCopy: true}
	return &PcapReader{
		fp:     fp,
		source: source,
	}, nil
}

func (r *PcapReader) Read(b []byte) (int, error) {
	for len(r.pending) == 0 {
		packet, err := r.source.NextPacket()
		if err != nil {
			return 0, err
		}
		udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
		if !ok {
			continue
		}
		r.pending = r.rtp.strip(udp.Payload)
	}
	n := copy(b, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// RtpLost rtp序号不连续的包数
func (r *PcapReader) RtpLost() uint64 {
	return r.rtp.Lost()
}

func (r *PcapReader) Close() error {
	return r.fp.Close()
}
