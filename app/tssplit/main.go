// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/tssplit/tssplit/pkg/base"
	"github.com/tssplit/tssplit/pkg/input"
	"github.com/tssplit/tssplit/pkg/output"
	"github.com/tssplit/tssplit/pkg/pipeline"
	"github.com/tssplit/tssplit/pkg/splitter"
	"golang.org/x/sync/errgroup"
)

// 从多路复用的TS流中分离出选择的节目
//
// ./bin/tssplit --sid 1024,1SEG in.ts out.ts
// ./bin/tssplit --sid HD udp://239.0.0.1:1234 udp://127.0.0.1:5000
//

type flags struct {
	selection   string
	inUrl       string
	outUrl      string
	profileDir  string
	dropCheck   bool
	checkPatCrc bool
	statSec     int
	logLevel    int
}

func main() {
	f := parseFlag()
	_ = nazalog.Init(func(option *nazalog.Option) {
		option.Level = nazalog.Level(f.logLevel)
		// 输出可能是标准输出
		option.IsToStdout = false
	})
	defer nazalog.Sync()

	if f.profileDir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(f.profileDir), profile.NoShutdownHook).Stop()
	}

	if err := run(f); err != nil {
		nazalog.Errorf("split failed. err=%+v", err)
		base.OsExitAndWaitPressIfWindows(1)
	}
}

func run(f flags) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go base.RunSignalHandler(cancel)

	r, err := input.Open(ctx, f.inUrl)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := output.Open(ctx, f.outUrl)
	if err != nil {
		return err
	}
	defer w.Close()

	p := pipeline.New(f.selection, w, func(option *pipeline.Option) {
		option.DropCheck = f.dropCheck
		option.SplitterOptions = []splitter.ModOption{
			func(option *splitter.Option) {
				option.CheckPatCrc = f.checkPatCrc
			},
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	runCtx, runCancel := context.WithCancel(gctx)
	g.Go(func() error {
		defer runCancel()
		return p.Run(runCtx, r)
	})
	if f.statSec > 0 {
		g.Go(func() error {
			t := time.NewTicker(time.Duration(f.statSec) * time.Second)
			defer t.Stop()
			for {
				select {
				case <-runCtx.Done():
					return nil
				case <-t.C:
					nazalog.Infof("[%s] stat. %+v", p.UniqueKey(), p.Stat())
				}
			}
		})
	}
	err = g.Wait()

	stat := p.Stat()
	nazalog.Infof("[%s] done. read=%d, in=%d, out=%d, resync=%d, split err=%d, rescan=%d",
		p.UniqueKey(), stat.ReadBytes, stat.InPackets, stat.OutPackets, stat.ResyncCount, stat.SplitErrCount,
		p.Splitter().RescanCount())
	if checker := p.DropChecker(); checker != nil {
		report := checker.Report()
		nazalog.Infof("drop check. packets=%d, drops=%d", report.TotalPackets, report.TotalDrops)
	}
	if err == context.Canceled {
		return nil
	}
	return err
}

func parseFlag() flags {
	var f flags
	binInfoFlag := flag.Bool("v", false, "show bin info")
	flag.StringVar(&f.selection, "sid", "", "selection, comma separated service ids or HD,SD1,SD2,SD3,1SEG,ALL,EPG,EPG1SEG")
	flag.StringVar(&f.profileDir, "profile", "", "write cpu profile into dir")
	flag.BoolVar(&f.dropCheck, "dropcheck", false, "check continuity counter of input")
	flag.BoolVar(&f.checkPatCrc, "check_pat_crc", false, "reject pat whose crc mismatch")
	flag.IntVar(&f.statSec, "stat", 0, "log stat every n seconds, 0 means never")
	flag.IntVar(&f.logLevel, "log_level", int(nazalog.LevelInfo), "log level, 0 trace 1 debug 2 info 3 warn 4 error")
	flag.Parse()
	if *binInfoFlag {
		_, _ = fmt.Fprint(os.Stderr, bininfo.StringifyMultiLine())
		_, _ = fmt.Fprintln(os.Stderr, base.TssplitFullInfo)
		os.Exit(0)
	}
	if flag.NArg() != 2 {
		flag.Usage()
		_, _ = fmt.Fprintf(os.Stderr, `
Example:
  %s --sid 1024,1SEG in.ts out.ts
  %s --sid HD udp://239.0.0.1:1234 udp://127.0.0.1:5000
  %s --sid ALL srt://:6001 -
`, os.Args[0], os.Args[0], os.Args[0])
		base.OsExitAndWaitPressIfWindows(1)
	}
	f.inUrl = flag.Arg(0)
	f.outUrl = flag.Arg(1)
	return f
}
