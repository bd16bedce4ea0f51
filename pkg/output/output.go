// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package output 根据url打开分离后TS流的输出
//
// 支持的格式:
//   /path/to/file.ts 或 file:///path/to/file.ts
//   -                       标准输出
//   udp://127.0.0.1:1234    每个udp包携带7个TS packet
//   srt://host:6001         srt caller，也可以 srt://:6001?mode=listener
//
package output

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/tssplit/tssplit/pkg/base"
)

var Log = base.Log

const (
	SchemeFile = "file"
	SchemeUdp  = "udp"
	SchemeSrt  = "srt"
)

func Open(ctx context.Context, rawUrl string) (io.WriteCloser, error) {
	if rawUrl == "-" {
		return stdoutWriter{}, nil
	}
	if !strings.Contains(rawUrl, "://") {
		return openFile(rawUrl)
	}

	u, err := url.Parse(rawUrl)
	if err != nil {
		return nil, base.NewErrUnsupportedScheme(base.ErrInvalidUrl, rawUrl)
	}
	Log.Infof("open output. url=%s", rawUrl)
	switch u.Scheme {
	case SchemeFile:
		return openFile(u.Path)
	case SchemeUdp:
		return openUdp(u)
	case SchemeSrt:
		return openSrt(ctx, u)
	}
	return nil, base.NewErrUnsupportedScheme(base.ErrOutputUnsupportedScheme, rawUrl)
}

func openFile(filename string) (io.WriteCloser, error) {
	fw := &FileWriter{}
	if err := fw.Create(filename); err != nil {
		return nil, err
	}
	return fw, nil
}

// stdoutWriter 关闭时不关闭标准输出
type stdoutWriter struct{}

func (stdoutWriter) Write(b []byte) (int, error) {
	return os.Stdout.Write(b)
}

func (stdoutWriter) Close() error {
	return nil
}
