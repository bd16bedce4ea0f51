// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package innertest

import (
	"testing"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/tssplit/tssplit/pkg/mpegts"
)

func TestStream(t *testing.T) {
	s := NewStream()
	b := s.Rounds(3)
	// 每轮: PAT + 4个PMT + 8个es包
	assert.Equal(t, 13*3*mpegts.PacketSize, len(b))

	m := PidCount(b)
	assert.Equal(t, 3, m[mpegts.PidPat])
	assert.Equal(t, 3, m[0x1FC8])
	assert.Equal(t, 3, m[0x0111])

	pat, err := mpegts.ParsePat(b[5:])
	assert.Equal(t, nil, err)
	assert.Equal(t, 5, len(pat.ProgramElements))

	// continuity_counter连续
	var ccs []uint8
	for i := 0; i+mpegts.PacketSize <= len(b); i += mpegts.PacketSize {
		if mpegts.PacketPid(b[i:]) == 0x0111 {
			ccs = append(ccs, mpegts.PacketCc(b[i:]))
		}
	}
	assert.Equal(t, []uint8{0, 1, 2}, ccs)
}
