// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"errors"
	"fmt"
)

// ----- 通用的 ---------------------------------------------------------------------------------------------------------

var (
	ErrShortBuffer  = errors.New("tssplit: buffer too short")
	ErrFileNotExist = errors.New("tssplit: file not exist")
	ErrInvalidUrl   = errors.New("tssplit: invalid url")
)

// ----- pkg/mpegts ----------------------------------------------------------------------------------------------------

var (
	ErrMpegts            = errors.New("tssplit.mpegts: fxxk")
	ErrMpegtsSyncByte    = errors.New("tssplit.mpegts: packet must start with a sync byte")
	ErrMpegtsNoPayload   = errors.New("tssplit.mpegts: packet has no payload")
	ErrMpegtsShortBuffer = errors.New("tssplit.mpegts: buffer too short")
)

func NewErrMpegtsShortBuffer(need, actual int, msg string) error {
	return fmt.Errorf("%w. need=%d, actual=%d, msg=%s", ErrMpegtsShortBuffer, need, actual, msg)
}

// ----- pkg/splitter --------------------------------------------------------------------------------------------------

var (
	// ErrSplitterMalformedSection PAT或PMT的字段越界
	ErrSplitterMalformedSection = errors.New("tssplit.splitter: malformed section")

	// ErrSplitterNoSection 收到PMT后续包，但该PID没有正在重组的section
	ErrSplitterNoSection = errors.New("tssplit.splitter: continuation without section start")

	// ErrSplitterDiscontinuity PMT后续包的continuity_counter不连续
	ErrSplitterDiscontinuity = errors.New("tssplit.splitter: continuity counter discontinuity")

	// ErrSplitterNotReady 还没有拿到所有选中的PMT，不是错误，需要继续喂数据
	ErrSplitterNotReady = errors.New("tssplit.splitter: selection not ready")
)

func NewErrSplitterMalformedSection(pid uint16, offset int, msg string) error {
	return fmt.Errorf("%w. pid=%d(0x%04x), offset=%d, msg=%s", ErrSplitterMalformedSection, pid, pid, offset, msg)
}

func NewErrSplitterDiscontinuity(pid uint16, expected, actual uint8) error {
	return fmt.Errorf("%w. pid=%d(0x%04x), expected=%d, actual=%d", ErrSplitterDiscontinuity, pid, pid, expected, actual)
}

func NewErrSplitterNoSection(pid uint16) error {
	return fmt.Errorf("%w. pid=%d(0x%04x)", ErrSplitterNoSection, pid, pid)
}

// ----- pkg/input pkg/output ------------------------------------------------------------------------------------------

var (
	ErrInputUnsupportedScheme  = errors.New("tssplit.input: unsupported scheme")
	ErrOutputUnsupportedScheme = errors.New("tssplit.output: unsupported scheme")
	ErrOutputDisposed          = errors.New("tssplit.output: already disposed")
)

func NewErrUnsupportedScheme(base error, rawUrl string) error {
	return fmt.Errorf("%w. url=%s", base, rawUrl)
}

// ----- pkg/rtprtcp ---------------------------------------------------------------------------------------------------

var ErrRtp = errors.New("tssplit.rtprtcp: invalid rtp packet")

// ----- pkg/httpts ----------------------------------------------------------------------------------------------------

var (
	ErrHttptsHubDisposed     = errors.New("tssplit.httpts: hub already disposed")
	ErrHttptsSubscriberSlow  = errors.New("tssplit.httpts: subscriber too slow")
	ErrHttptsRejected        = errors.New("tssplit.httpts: rejected by observer")
	ErrHttptsSessionNotFound = errors.New("tssplit.httpts: session not found")
)

// ----- pkg/probe -----------------------------------------------------------------------------------------------------

var (
	ErrProbeNoPat      = errors.New("tssplit.probe: no pat found")
	ErrProbeIncomplete = errors.New("tssplit.probe: pmt missing")
)

// ----- pkg/logic -----------------------------------------------------------------------------------------------------

var ErrConfigInvalid = errors.New("tssplit.logic: invalid config")

func NewErrConfigInvalid(key string, value interface{}) error {
	return fmt.Errorf("%w. key=%s, value=%v", ErrConfigInvalid, key, value)
}
