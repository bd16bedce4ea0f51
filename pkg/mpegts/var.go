// Copyright 2020, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import "github.com/tssplit/tssplit/pkg/base"

var Log = base.Log

var ErrMpegts = base.ErrMpegts

const (
	syncByte uint8 = 0x47

	// PacketSize 一个TS Packet的固定大小
	PacketSize = 188

	// PidNum 13bit PID的取值范围
	PidNum = 8192
)

// PID
const (
	PidPat  uint16 = 0x0000
	PidCat  uint16 = 0x0001
	PidNit  uint16 = 0x0010
	PidNull uint16 = 0x1FFF
)

// stream_type
const (
	StreamTypeMpeg2Video = 0x02
	StreamTypeAdtsAac    = 0x0F
	StreamTypeAvc        = 0x1B
	StreamTypeHevc       = 0x24

	// StreamTypeDsmcc ISO/IEC 13818-6 type D，数据广播，输出时会被过滤掉
	StreamTypeDsmcc = 0x0D
)

// DescriptorTagCa conditional access descriptor，携带ECM PID
const DescriptorTagCa = 0x09
