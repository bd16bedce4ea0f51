// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/stretchr/testify/require"
	"github.com/tssplit/tssplit/pkg/base"
	"github.com/tssplit/tssplit/pkg/innertest"
	"github.com/tssplit/tssplit/pkg/mpegts"
)

func TestLoadConf(t *testing.T) {
	config, err := LoadConf("../../conf/tssplitserver.conf.json")
	assert.Equal(t, nil, err)
	assert.Equal(t, base.ConfVersion, config.ConfVersion)
	assert.Equal(t, ":8080", config.HttptsConfig.Addr)
	assert.Equal(t, 16, config.HttptsConfig.MaxSubSessions)
	assert.Equal(t, "udp://239.0.0.1:1234", config.InputConfig.Url)
	assert.Equal(t, 50, config.SplitConfig.MaxServices)
	assert.Equal(t, 30, config.StatConfig.IntervalSec)
	assert.Equal(t, "./logs/tssplitserver.log", config.LogConfig.Filename)
}

func TestParseConfDefault(t *testing.T) {
	config, err := ParseConf([]byte(`{"input": {"url": "-"}, "http_ts": {"ws_enable": false}}`))
	assert.Equal(t, nil, err)
	assert.Equal(t, defaultHttptsAddr, config.HttptsConfig.Addr)
	assert.Equal(t, false, config.HttptsConfig.WsEnable)
	assert.Equal(t, base.HttptsSubWriteChanSize, config.HttptsConfig.SubChanSize)
	assert.Equal(t, 50, config.SplitConfig.MaxServices)
	assert.Equal(t, defaultPprofAddr, config.PprofConfig.Addr)
	assert.Equal(t, nazalog.LevelDebug, config.LogConfig.Level)
	assert.Equal(t, true, config.LogConfig.IsToStdout)
}

func TestParseConfInvalid(t *testing.T) {
	_, err := ParseConf([]byte(`{"http_ts": {"addr": ":8080"}}`))
	assert.Equal(t, true, errors.Is(err, base.ErrConfigInvalid))

	_, err = ParseConf([]byte(`{"input": {"url": "-"}, "split": {"max_services": 0}}`))
	assert.Equal(t, true, errors.Is(err, base.ErrConfigInvalid))

	_, err = ParseConf([]byte(`{`))
	assert.IsNotNil(t, err)
}

func newTestServer(t *testing.T, maxSub int) (*Server, *io.PipeWriter) {
	config, err := ParseConf([]byte(`{"input": {"url": "-"}, "http_ts": {"addr": "127.0.0.1:0"}, "stat": {"interval_sec": 1}}`))
	require.NoError(t, err)
	config.HttptsConfig.MaxSubSessions = maxSub

	pr, pw := io.Pipe()
	s := NewServer(config)
	s.inputOpen = func(ctx context.Context, rawUrl string) (io.ReadCloser, error) {
		return pr, nil
	}
	require.NoError(t, s.Listen())
	return s, pw
}

func TestServer(t *testing.T) {
	s, pw := newTestServer(t, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.RunLoop(context.Background())
	}()
	url := "http://" + s.HttptsServer().Addr().String()

	resp, err := http.Get(url + "/HD")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Eventually(t, func() bool {
		return s.Hub().SubscriberCount() == 1
	}, 3*time.Second, 5*time.Millisecond)

	// 超过max_sub_sessions
	rejected, err := http.Get(url + "/SD2")
	require.NoError(t, err)
	rejected.Body.Close()
	require.Equal(t, http.StatusForbidden, rejected.StatusCode)

	go func() {
		stream := innertest.NewStream()
		for i := 0; i < 20; i++ {
			if _, err := pw.Write(stream.Round()); err != nil {
				return
			}
			time.Sleep(time.Millisecond)
		}
		// 输入结束，server退出
		_ = pw.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Greater(t, len(b), 0)
	for pid := range innertest.PidCount(b) {
		require.Contains(t, []uint16{mpegts.PidPat, 0x01F0, 0x0111, 0x0112}, pid)
	}

	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server loop not done")
	}
}

func TestServerCanceled(t *testing.T) {
	s, _ := newTestServer(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.RunLoop(ctx)
	}()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server loop not done")
	}
}
