// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

//go:build nosrt
// +build nosrt

package input

import (
	"context"
	"io"
	"net/url"

	"github.com/tssplit/tssplit/pkg/base"
)

// 使用 -tags nosrt 编译时不依赖libsrt
func openSrt(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	return nil, base.NewErrUnsupportedScheme(base.ErrInputUnsupportedScheme, u.String())
}
