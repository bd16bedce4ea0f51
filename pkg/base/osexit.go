// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"bufio"
	"fmt"
	"os"
	"runtime"

	"github.com/q191201771/naza/pkg/nazalog"
)

// OsExitAndWaitPressIfWindows 退出前把日志刷到文件
//
// windows下双击运行时，退出前等待回车，方便看到错误信息
//
func OsExitAndWaitPressIfWindows(code int) {
	nazalog.Sync()
	if runtime.GOOS == "windows" {
		_, _ = fmt.Fprintf(os.Stderr, "Press Enter to exit...")
		_, _ = bufio.NewReader(os.Stdin).ReadByte()
	}
	os.Exit(code)
}
