// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

//go:build nosrt
// +build nosrt

package output

import (
	"context"
	"io"
	"net/url"

	"github.com/tssplit/tssplit/pkg/base"
)

func openSrt(ctx context.Context, u *url.URL) (io.WriteCloser, error) {
	return nil, base.NewErrUnsupportedScheme(base.ErrOutputUnsupportedScheme, u.String())
}
