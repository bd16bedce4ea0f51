// Copyright 2020, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"net"
	"net/url"
	"strconv"
)

const (
	SrtModeListener = "listener"
	SrtModeCaller   = "caller"
)

// SrtUrlContext 从 srt://host:port?mode=caller&latency=200 中解析出的内容
//
type SrtUrlContext struct {
	Host string // 为空时是 0.0.0.0
	Port uint16
	Mode string

	// 除mode外的query参数，直接作为srtgo的option
	Options map[string]string
}

// ParseSrtUrl
//
// @param defaultMode 没有指定mode时使用
//
func ParseSrtUrl(u *url.URL, defaultMode string) (ctx SrtUrlContext, err error) {
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		return ctx, NewErrUnsupportedScheme(ErrInvalidUrl, u.String())
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return ctx, NewErrUnsupportedScheme(ErrInvalidUrl, u.String())
	}
	if host == "" {
		host = "0.0.0.0"
	}
	ctx.Host = host
	ctx.Port = uint16(port)

	ctx.Options = map[string]string{
		"transtype": "live",
		"blocking":  "1",
	}
	ctx.Mode = defaultMode
	for k, v := range u.Query() {
		if len(v) == 0 {
			continue
		}
		if k == "mode" {
			ctx.Mode = v[0]
			continue
		}
		ctx.Options[k] = v[0]
	}
	return ctx, nil
}
