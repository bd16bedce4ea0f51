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
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/tssplit/tssplit/pkg/base"
	"github.com/tssplit/tssplit/pkg/input"
	"github.com/tssplit/tssplit/pkg/probe"
)

// 列出TS流中的节目以及可以选中它们的selection token
//
// ./bin/tsprobe in.ts
// ./bin/tsprobe -json udp://239.0.0.1:1234
//

func main() {
	jsonFlag, maxPackets, inUrl := parseFlag()
	_ = nazalog.Init(func(option *nazalog.Option) {
		option.Level = nazalog.LevelWarn
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

	result, err := probe.Probe(ctx, r, func(option *probe.Option) {
		option.MaxPackets = maxPackets
	})
	if result == nil {
		nazalog.Errorf("probe failed. err=%+v", err)
		base.OsExitAndWaitPressIfWindows(1)
	}
	if errors.Is(err, base.ErrProbeIncomplete) {
		nazalog.Warnf("some pmt missing. read packets=%d", result.Packets)
	}

	if jsonFlag {
		b, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(b))
		return
	}
	fmt.Print(result.String())
}

func parseFlag() (bool, int, string) {
	binInfoFlag := flag.Bool("v", false, "show bin info")
	jsonFlag := flag.Bool("json", false, "output json")
	maxPackets := flag.Int("n", 100000, "read at most n ts packets")
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
  %s -json udp://239.0.0.1:1234
`, os.Args[0], os.Args[0])
		base.OsExitAndWaitPressIfWindows(1)
	}
	return *jsonFlag, *maxPackets, flag.Arg(0)
}
