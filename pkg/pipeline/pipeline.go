// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package pipeline 把输入的字节流切分成对齐的TS packet，经过解码器(可选)和 splitter，写入输出
//
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/tssplit/tssplit/pkg/base"
	"github.com/tssplit/tssplit/pkg/dropcheck"
	"github.com/tssplit/tssplit/pkg/mpegts"
	"github.com/tssplit/tssplit/pkg/splitter"
)

var Log = base.Log

// Decoder 位于splitter上游的解码器，比如解扰
//
// 输入输出都是对齐的TS packet。返回的内存块在下一次调用Decode之前有效。
//
type Decoder interface {
	Decode(b []byte) ([]byte, error)
}

// PassThroughDecoder 不做任何处理
type PassThroughDecoder struct{}

func (PassThroughDecoder) Decode(b []byte) ([]byte, error) {
	return b, nil
}

type Option struct {
	Decoder Decoder

	// DropCheck 为true时，对输入流做continuity_counter检查
	DropCheck        bool
	DropCheckOptions []dropcheck.ModOption

	// ReadBufSize Run 时每次读取的大小
	ReadBufSize int

	SplitterOptions []splitter.ModOption
}

var defaultOption = Option{
	Decoder:     PassThroughDecoder{},
	DropCheck:   false,
	ReadBufSize: base.PipelineReadBufSize,
}

type ModOption func(option *Option)

type Pipeline struct {
	uniqueKey string
	option    Option

	sp      *splitter.Splitter
	checker *dropcheck.Checker
	w       io.Writer

	carry  []byte
	packed []byte
	out    []byte
	ready  bool

	stat base.StatPipeline
}

// New
//
// @param w: splitter的输出写入w
//
func New(selection string, w io.Writer, modOptions ...ModOption) *Pipeline {
	option := defaultOption
	for _, fn := range modOptions {
		fn(&option)
	}
	if option.Decoder == nil {
		option.Decoder = PassThroughDecoder{}
	}
	if option.ReadBufSize < mpegts.PacketSize {
		option.ReadBufSize = base.PipelineReadBufSize
	}

	p := &Pipeline{
		uniqueKey: base.GenUkPipeline(),
		option:    option,
		sp:        splitter.New(selection, option.SplitterOptions...),
		w:         w,
	}
	if option.DropCheck {
		p.checker = dropcheck.New(p.sp, option.DropCheckOptions...)
	}
	Log.Infof("[%s] lifecycle new pipeline. selection=%s, splitter=%s", p.uniqueKey, selection, p.sp.UniqueKey())
	return p
}

// Run 从r中读取数据，直到r结束、出错或者ctx被取消
//
// r结束时返回nil。
// 注意，r的Read阻塞时无法感知ctx的取消，需要由r的实现方在ctx取消时关闭自己，参见 input 包。
//
func (p *Pipeline) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, p.option.ReadBufSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			if ferr := p.Feed(buf[:n]); ferr != nil {
				return ferr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				Log.Infof("[%s] input eof. stat=%+v", p.uniqueKey, p.Stat())
				return nil
			}
			return nazaerrors.Wrap(err)
		}
	}
}

// Feed 处理一块任意长度的输入数据，不完整的packet会留到下一次调用
//
// @return: 只返回写输出的错误，splitter的错误只做统计
//
func (p *Pipeline) Feed(b []byte) error {
	p.stat.ReadBytes.Add(uint64(len(b)))

	packets := p.align(b)
	if len(packets) == 0 {
		return nil
	}
	n := uint64(len(packets) / mpegts.PacketSize)
	p.stat.InPackets.Add(n)

	packets, err := p.option.Decoder.Decode(packets)
	if err != nil {
		Log.Warnf("[%s] decode failed. err=%+v", p.uniqueKey, err)
		return nil
	}

	if !p.ready {
		err = p.sp.Select(packets)
		if err != nil {
			if !errors.Is(err, base.ErrSplitterNotReady) {
				p.stat.SplitErrCount.Add(1)
				Log.Warnf("[%s] select failed. err=%+v", p.uniqueKey, err)
			}
			p.check(packets)
			return nil
		}
		p.ready = true
		Log.Infof("[%s] selection ready, start split. pmt=%d", p.uniqueKey, p.sp.PmtRetain())
	}

	p.out, err = p.sp.Split(packets, p.out[:0])
	if err != nil {
		p.stat.SplitErrCount.Add(1)
		Log.Warnf("[%s] split failed. err=%+v", p.uniqueKey, err)
	}
	p.check(packets)
	if len(p.out) == 0 {
		return nil
	}
	p.stat.OutPackets.Add(uint64(len(p.out) / mpegts.PacketSize))
	if _, err = p.w.Write(p.out); err != nil {
		return nazaerrors.Wrap(err)
	}
	return nil
}

// check 在splitter处理之后做，这样同一块数据中的PAT和PMT已经完成分类
func (p *Pipeline) check(packets []byte) {
	if p.checker != nil {
		p.checker.Feed(packets)
	}
}

func (p *Pipeline) Splitter() *splitter.Splitter {
	return p.sp
}

// DropChecker 没有开启 Option.DropCheck 时返回nil
func (p *Pipeline) DropChecker() *dropcheck.Checker {
	return p.checker
}

func (p *Pipeline) Ready() bool {
	return p.ready
}

func (p *Pipeline) UniqueKey() string {
	return p.uniqueKey
}

func (p *Pipeline) Stat() base.StatPipelineSnapshot {
	return p.stat.Snapshot()
}

// align 把上次剩余的数据和b拼接，返回对齐的完整packet，丢弃sync byte丢失的数据
func (p *Pipeline) align(b []byte) []byte {
	var data []byte
	if len(p.carry) > 0 {
		p.carry = append(p.carry, b...)
		data = p.carry
	} else {
		data = b
	}

	p.packed = p.packed[:0]
	pos := 0
	for len(data)-pos >= mpegts.PacketSize {
		// 当前位置以及下一个packet的位置都需要是sync byte，才认为是对齐的
		if data[pos] != 0x47 || (len(data)-pos >= 2*mpegts.PacketSize && data[pos+mpegts.PacketSize] != 0x47) {
			p.stat.ResyncCount.Add(1)
			next := bytes.IndexByte(data[pos+1:], 0x47)
			if next < 0 {
				pos = len(data)
				break
			}
			pos += 1 + next
			continue
		}
		p.packed = append(p.packed, data[pos:pos+mpegts.PacketSize]...)
		pos += mpegts.PacketSize
	}

	p.carry = append(p.carry[:0], data[pos:]...)
	return p.packed
}
