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
	"io"
	"os"

	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/tssplit/tssplit/pkg/base"
	"github.com/tssplit/tssplit/pkg/dropcheck"
	"github.com/tssplit/tssplit/pkg/input"
	"github.com/tssplit/tssplit/pkg/pipeline"
)

// 检查TS流的continuity_counter，统计丢包
//
// ./bin/tsdropcheck in.ts
// ./bin/tsdropcheck -all udp://239.0.0.1:1234
//

func main() {
	checkAll, inUrl := parseFlag()
	_ = nazalog.Init(func(option *nazalog.Option) {
		option.Level = nazalog.LevelInfo
	})
	defer nazalog.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go base.RunSignalHandler(cancel)

	r, err := input.Open(ctx, inUrl)
	if err != nil {
		nazalog.Errorf("open input failed. err=%+v", err)
		base.OsExitAndWaitPressIfWindows(1)
	}
	defer r.Close()

	p := pipeline.New("ALL", io.Discard, func(option *pipeline.Option) {
		option.DropCheck = true
		option.DropCheckOptions = []dropcheck.ModOption{
			func(option *dropcheck.Option) {
				option.CheckAll = checkAll
			},
		}
	})
	if err = p.Run(ctx, r); err != nil && err != context.Canceled {
		nazalog.Errorf("read input failed. err=%+v", err)
	}

	report := p.DropChecker().Report()
	fmt.Printf("packets: %d, drops: %d\n", report.TotalPackets, report.TotalDrops)
	for _, pr := range report.Pids {
		fmt.Printf("  pid=0x%04x drops=%d\n", pr.Pid, pr.Drops)
	}
	if report.TotalDrops != 0 {
		os.Exit(2)
	}
}

func parseFlag() (bool, string) {
	binInfoFlag := flag.Bool("v", false, "show bin info")
	checkAll := flag.Bool("all", false, "check all pids, not only pmt and pids below 0x100")
	flag.Parse()
	if *binInfoFlag {
		_, _ = fmt.Fprint(os.Stderr, bininfo.StringifyMultiLine())
		_, _ = fmt.Fprintln(os.Stderr, base.TssplitFullInfo)
		os.Exit(0)
	}
	if flag.NArg() != 1 {
		flag.Usage()
		_, _ = fmt.Fprintf(os.Stderr, `
Example:
  %s in.ts
  %s -all udp://239.0.0.1:1234
`, os.Args[0], os.Args[0])
		base.OsExitAndWaitPressIfWindows(1)
	}
	return *checkAll, flag.Arg(0)
}
