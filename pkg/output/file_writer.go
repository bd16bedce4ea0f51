// Copyright 2020, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package output

import (
	"os"

	"github.com/tssplit/tssplit/pkg/base"
)

type FileWriter struct {
	fp      *os.File
	written uint64
}

func (fw *FileWriter) Create(filename string) (err error) {
	fw.fp, err = os.Create(filename)
	return
}

func (fw *FileWriter) Write(b []byte) (n int, err error) {
	if fw.fp == nil {
		return 0, base.ErrOutputDisposed
	}
	n, err = fw.fp.Write(b)
	fw.written += uint64(n)
	return
}

func (fw *FileWriter) Close() error {
	if fw.fp == nil {
		return base.ErrOutputDisposed
	}
	err := fw.fp.Close()
	fw.fp = nil
	return err
}

func (fw *FileWriter) Name() string {
	if fw.fp == nil {
		return ""
	}
	return fw.fp.Name()
}

func (fw *FileWriter) Written() uint64 {
	return fw.written
}
