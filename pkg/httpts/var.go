// Copyright 2020, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package httpts

import "github.com/tssplit/tssplit/pkg/base"

var Log = base.Log

const (
	RouteStat  = "/api/stat"
	RouteKick  = "/api/kick/{session_id}"
	RouteWs    = "/ws/{selection}"
	RouteTs    = "/{selection}"
	RouteEmpty = "/"
)

var (
	subSessionWriteChanSize  = base.HttptsSubWriteChanSize
	subSessionWriteTimeoutMs = base.HttptsSubWriteTimeoutMs
)
