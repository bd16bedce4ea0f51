// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "github.com/q191201771/naza/pkg/nazalog"

var Log = nazalog.GetGlobalLogger()

// ----- pipeline --------------------
var (
	// PipelineReadBufSize 从输入读取数据时一次读取的大小，188*7*16
	PipelineReadBufSize = 188 * 7 * 16
)

// ----- httpts --------------------
var (
	// HttptsSubWriteChanSize 每个拉流者的发送队列大小，队列满了之后该拉流者会被关闭
	HttptsSubWriteChanSize = 1024

	// HttptsSubWriteTimeoutMs 拉流者写超时
	HttptsSubWriteTimeoutMs = 10000
)
