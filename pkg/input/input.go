// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package input 根据url打开TS输入流
//
// 支持的格式:
//   /path/to/file.ts 或 file:///path/to/file.ts
//   -                       标准输入
//   udp://0.0.0.0:1234      udp单播，或者 udp://239.0.0.1:1234 组播
//   srt://:6001             srt listener，也可以 srt://host:port?mode=caller
//   pcap:///path/to/cap     pcap抓包文件中的udp负载，rtp头会被去掉
//
package input

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/tssplit/tssplit/pkg/base"
)

var Log = base.Log

const (
	SchemeFile = "file"
	SchemeUdp  = "udp"
	SchemeSrt  = "srt"
	SchemePcap = "pcap"
)

// Open
//
// ctx取消后，阻塞中的Read会返回错误
//
func Open(ctx context.Context, rawUrl string) (io.ReadCloser, error) {
	if rawUrl == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	if !strings.Contains(rawUrl, "://") {
		return openFile(rawUrl)
	}

	u, err := url.Parse(rawUrl)
	if err != nil {
		return nil, base.NewErrUnsupportedScheme(base.ErrInvalidUrl, rawUrl)
	}
	Log.Infof("open input. url=%s", rawUrl)
	switch u.Scheme {
	case SchemeFile:
		return openFile(u.Path)
	case SchemeUdp:
		return openUdp(ctx, u)
	case SchemeSrt:
		return openSrt(ctx, u)
	case SchemePcap:
		return openPcap(u.Path)
	}
	return nil, base.NewErrUnsupportedScheme(base.ErrInputUnsupportedScheme, rawUrl)
}

func openFile(filename string) (io.ReadCloser, error) {
	fp, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, base.ErrFileNotExist
		}
		return nil, err
	}
	return fp, nil
}

// closeOnDone ctx取消时调用fn，返回的函数用于提前结束监听
func closeOnDone(ctx context.Context, fn func()) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			fn()
		case <-done:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
		})
	}
}
