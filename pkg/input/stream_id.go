// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package input

import (
	"errors"
	"strings"
)

var errInvalidStreamId = errors.New("tssplit.input: invalid srt streamid")

// StreamId srt access control的streamid，格式为 #!::u=user,r=resource,m=publish
//
type StreamId struct {
	User      string
	Host      string
	Resource  string
	SessionId string
	Type      string
	Mode      string
}

func ParseStreamId(streamId string) (*StreamId, error) {
	if !strings.HasPrefix(streamId, "#!::") {
		return nil, errInvalidStreamId
	}
	items := strings.Split(strings.TrimPrefix(streamId, "#!::"), ",")
	id := &StreamId{}

	for _, item := range items {
		kv := strings.Split(item, "=")
		if len(kv) != 2 {
			return nil, errInvalidStreamId
		}
		switch kv[0] {
		case "u":
			id.User = kv[1]
		case "h":
			id.Host = kv[1]
		case "r":
			id.Resource = kv[1]
		case "s":
			id.SessionId = kv[1]
		case "t":
			id.Type = kv[1]
		case "m":
			id.Mode = kv[1]
		}
	}
	return id, nil
}

// IsPublish 没有指定m时也认为是推流
func (id *StreamId) IsPublish() bool {
	return id.Mode == "" || strings.EqualFold(id.Mode, "publish")
}
