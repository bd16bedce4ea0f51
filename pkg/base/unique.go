// Copyright 2020, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "github.com/q191201771/naza/pkg/unique"

const (
	UkPreTsSubSession = "TSSUB"
	UkPreWsSubSession = "WSSUB"
	UkPrePipeline     = "PIPELINE"
	UkPreHub          = "HUB"
	UkPreSplitter     = "SPLITTER"
)

func GenUkTsSubSession() string {
	return siUkTsSubSession.GenUniqueKey()
}

func GenUkWsSubSession() string {
	return siUkWsSubSession.GenUniqueKey()
}

func GenUkPipeline() string {
	return siUkPipeline.GenUniqueKey()
}

func GenUkHub() string {
	return siUkHub.GenUniqueKey()
}

func GenUkSplitter() string {
	return siUkSplitter.GenUniqueKey()
}

var (
	siUkTsSubSession *unique.SingleGenerator
	siUkWsSubSession *unique.SingleGenerator
	siUkPipeline     *unique.SingleGenerator
	siUkHub          *unique.SingleGenerator
	siUkSplitter     *unique.SingleGenerator
)

func init() {
	siUkTsSubSession = unique.NewSingleGenerator(UkPreTsSubSession)
	siUkWsSubSession = unique.NewSingleGenerator(UkPreWsSubSession)
	siUkPipeline = unique.NewSingleGenerator(UkPrePipeline)
	siUkHub = unique.NewSingleGenerator(UkPreHub)
	siUkSplitter = unique.NewSingleGenerator(UkPreSplitter)
}
