// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/tssplit/tssplit/pkg/base"
	"github.com/tssplit/tssplit/pkg/logic"
)

func main() {
	defer func() {
		logic.Dispose()
	}()

	confFile := parseFlag()
	logic.Init(confFile)
	logic.RunLoop()
}

func parseFlag() string {
	binInfoFlag := flag.Bool("v", false, "show bin info")
	cf := flag.String("c", "", "specify conf file")
	flag.Parse()
	if *binInfoFlag {
		_, _ = fmt.Fprint(os.Stderr, bininfo.StringifyMultiLine())
		_, _ = fmt.Fprintln(os.Stderr, base.TssplitFullInfo)
		os.Exit(0)
	}
	if *cf == "" {
		_, _ = fmt.Fprintf(os.Stderr, `
Example:
  %s -c ./conf/tssplitserver.conf.json
`, os.Args[0])
	}
	return *cf
}
