// Copyright 2020, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/tssplit/tssplit/pkg/base"
)

var (
	config *Config
	server *Server
)

func GetConfig() *Config {
	return config
}

// Init 加载配置并初始化日志，配置有误时直接退出
//
// @param confFile: 为空时尝试默认路径
//
func Init(confFile string) {
	rawContent := base.WrapReadConfigFile(confFile, defaultConfigFiles, nil)
	var err error
	config, err = ParseConf(rawContent)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "parse conf failed. file=%s err=%+v", confFile, err)
		base.OsExitAndWaitPressIfWindows(1)
	}
	if err = nazalog.Init(func(option *nazalog.Option) {
		*option = config.LogConfig
	}); err != nil {
		nazalog.Errorf("initial log failed. err=%+v", err)
		base.OsExitAndWaitPressIfWindows(1)
	}
	base.LogoutStartInfo()
	nazalog.Infof("load conf succ. content=%+v", config)
}

func RunLoop() {
	server = NewServer(config)

	if config.PprofConfig.Enable {
		go runWebPprof(config.PprofConfig.Addr)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go base.RunSignalHandler(func() {
		cancel()
	})

	err := server.RunLoop(ctx)
	nazalog.Infof("server loop break. err=%+v", err)
}

func Dispose() {
	if server != nil {
		server.Dispose()
	}
}

func runWebPprof(addr string) {
	nazalog.Infof("start web pprof listen. addr=%s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		nazalog.Error(err)
		return
	}
}
