// Copyright 2020, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package base

import (
	"os"
	"os/signal"
	"syscall"
)

// RunSignalHandler 收到SIGINT、SIGTERM或SIGHUP时回调cb，只回调一次
//
// SIGPIPE被忽略，输出到管道（比如 `tssplit --sid HD in - | player -`）的读端关闭时，
// 写输出返回EPIPE错误，由pipeline正常结束，而不是进程直接被杀掉。
//
func RunSignalHandler(cb func()) {
	signal.Ignore(syscall.SIGPIPE)

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	s := <-c
	signal.Stop(c)
	Log.Infof("recv signal, exiting. signal=%s", s)
	cb()
}
