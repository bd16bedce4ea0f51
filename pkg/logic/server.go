// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/tssplit/tssplit/pkg/base"
	"github.com/tssplit/tssplit/pkg/httpts"
	"github.com/tssplit/tssplit/pkg/input"
	"github.com/tssplit/tssplit/pkg/pipeline"
	"github.com/tssplit/tssplit/pkg/splitter"
	"golang.org/x/sync/errgroup"
)

var errInputEnd = errors.New("tssplit.logic: input end")

// Server 读取一路输入流，通过httpts向多个拉流者输出各自选择的节目
//
type Server struct {
	config *Config
	hub    *httpts.Hub
	httpts *httpts.Server

	mutex     sync.Mutex
	subNum    int
	inputOpen func(ctx context.Context, rawUrl string) (io.ReadCloser, error)
}

func NewServer(config *Config) *Server {
	s := &Server{
		config:    config,
		hub:       httpts.NewHub(config.HttptsConfig.SubChanSize),
		inputOpen: input.Open,
	}
	s.httpts = httpts.NewServer(s, s.hub, func(option *httpts.Option) {
		option.Addr = config.HttptsConfig.Addr
		option.WsEnable = config.HttptsConfig.WsEnable
		option.PipelineOptions = []pipeline.ModOption{
			func(option *pipeline.Option) {
				option.DropCheck = config.SplitConfig.DropCheck
				option.SplitterOptions = []splitter.ModOption{
					func(option *splitter.Option) {
						option.MaxServices = config.SplitConfig.MaxServices
						option.CheckPatCrc = config.SplitConfig.CheckPatCrc
					},
				}
			},
		}
	})
	return s
}

// Listen 只监听端口，便于调用方在 RunLoop 之前拿到地址
func (s *Server) Listen() error {
	return s.httpts.Listen()
}

// RunLoop 阻塞直到ctx取消、输入结束或者出错
//
// ctx取消、到达duration_sec、输入结束(非loop模式)时返回nil。
//
func (s *Server) RunLoop(ctx context.Context) error {
	if s.config.DurationSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.config.DurationSec)*time.Second)
		defer cancel()
	}

	if s.httpts.Addr() == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.httpts.RunLoop()
	})
	g.Go(func() error {
		return s.runInputLoop(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		s.Dispose()
		return nil
	})
	if s.config.StatConfig.IntervalSec > 0 {
		g.Go(func() error {
			s.runStatLoop(gctx, time.Duration(s.config.StatConfig.IntervalSec)*time.Second)
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, errInputEnd) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (s *Server) Dispose() {
	s.httpts.Dispose()
	s.hub.Dispose()
}

func (s *Server) Hub() *httpts.Hub {
	return s.hub
}

func (s *Server) HttptsServer() *httpts.Server {
	return s.httpts
}

// ----- implement httpts.ServerObserver interface ---------------------------------------------------------------------

func (s *Server) OnNewHttptsSubSession(session *httpts.SubSession) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	maxNum := s.config.HttptsConfig.MaxSubSessions
	if maxNum > 0 && s.subNum >= maxNum {
		nazalog.Warnf("[%s] too many sub sessions, reject. max=%d", session.UniqueKey(), maxNum)
		return false
	}
	s.subNum++
	nazalog.Infof("[%s] new sub session. selection=%s, num=%d", session.UniqueKey(), session.Selection(), s.subNum)
	return true
}

func (s *Server) OnDelHttptsSubSession(session *httpts.SubSession) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.subNum--
	stat := session.Pipeline().Stat()
	nazalog.Infof("[%s] del sub session. in=%d, out=%d, resync=%d, num=%d",
		session.UniqueKey(), stat.InPackets, stat.OutPackets, stat.ResyncCount, s.subNum)
	if checker := session.Pipeline().DropChecker(); checker != nil {
		report := checker.Report()
		nazalog.Infof("[%s] drop check. packets=%d, drops=%d", session.UniqueKey(), report.TotalPackets, report.TotalDrops)
	}
}

// ---------------------------------------------------------------------------------------------------------------------

func (s *Server) runInputLoop(ctx context.Context) error {
	buf := make([]byte, base.PipelineReadBufSize)
	for {
		r, err := s.inputOpen(ctx, s.config.InputConfig.Url)
		if err != nil {
			return err
		}
		// 阻塞的Read在ctx取消时返回
		stop := context.AfterFunc(ctx, func() {
			_ = r.Close()
		})
		_, err = io.CopyBuffer(s.hub, r, buf)
		stop()
		_ = r.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return err
		}
		if !s.config.InputConfig.Loop {
			nazalog.Infof("input end. url=%s", s.config.InputConfig.Url)
			return errInputEnd
		}
		nazalog.Debugf("input end, reopen. url=%s", s.config.InputConfig.Url)
	}
}

func (s *Server) runStatLoop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			stat := s.httpts.GetStat()
			nazalog.Infof("stat. in bytes=%d, sub num=%d", stat.Hub.InBytes, stat.Hub.SubscriberCount)
			for _, session := range stat.Sessions {
				nazalog.Debugf("stat. [%s] protocol=%s, selection=%s, remote=%s, wrote=%d",
					session.SessionId, session.Protocol, session.Selection, session.RemoteAddr, session.WroteBytes)
			}
		}
	}
}
