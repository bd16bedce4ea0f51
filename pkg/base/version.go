// Copyright 2020, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

// 版本信息相关
// 一部分版本信息使用了naza.bininfo
// 另外，我们也在本文件提供另外一些信息

// TssplitVersion 整个工程的版本号。注意，该变量由外部脚本修改维护，不要手动在代码中修改
//
const TssplitVersion = "v0.4.2"

// ConfVersion tssplitserver的配置文件的版本号
//
const ConfVersion = "v0.1.0"

var (
	TssplitLibraryName = "tssplit"
	TssplitGithubRepo  = "github.com/tssplit/tssplit"
	TssplitGithubSite  = "https://github.com/tssplit/tssplit"

	// TssplitFullInfo e.g. tssplit v0.4.2 (github.com/tssplit/tssplit)
	TssplitFullInfo = TssplitLibraryName + " " + TssplitVersion + " (" + TssplitGithubRepo + ")"

	// TssplitHttptsServer e.g. tssplit0.4.2
	TssplitHttptsServer string
)

func init() {
	TssplitHttptsServer = TssplitLibraryName + TssplitVersion[1:]
}
