// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package httpts

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/tssplit/tssplit/pkg/innertest"
	"github.com/tssplit/tssplit/pkg/mpegts"
)

type testObserver struct {
	mutex  sync.Mutex
	allow  bool
	newNum int
	delNum int
}

func (o *testObserver) OnNewHttptsSubSession(session *SubSession) bool {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.newNum++
	return o.allow
}

func (o *testObserver) OnDelHttptsSubSession(session *SubSession) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.delNum++
}

func (o *testObserver) counts() (int, int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.newNum, o.delNum
}

// feed 持续向hub写入合成流，直到返回的函数被调用
func feed(hub *Hub) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s := innertest.NewStream()
		for {
			select {
			case <-done:
				return
			default:
			}
			if _, err := hub.Write(s.Round()); err != nil {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func waitSubscriber(t *testing.T, hub *Hub, n int) {
	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == n
	}, 3*time.Second, 5*time.Millisecond)
}

func getStat(t *testing.T, url string) Stat {
	resp, err := http.Get(url + RouteStat)
	require.NoError(t, err)
	defer resp.Body.Close()
	var stat Stat
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stat))
	return stat
}

func TestHttpTs(t *testing.T) {
	obs := &testObserver{allow: true}
	hub := NewHub(0)
	server := NewServer(obs, hub)
	ts := httptest.NewServer(server)
	defer ts.Close()
	defer server.Dispose()

	// sid 0x0401
	resp, err := http.Get(ts.URL + "/1025.ts")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "video/mp2t", resp.Header.Get("Content-Type"))
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	waitSubscriber(t, hub, 1)
	stop := feed(hub)
	defer stop()

	buf := make([]byte, 188*64)
	_, err = io.ReadFull(resp.Body, buf)
	require.NoError(t, err)
	m := innertest.PidCount(buf)
	for pid := range m {
		require.Contains(t, []uint16{mpegts.PidPat, 0x01F1, 0x0121, 0x0122}, pid)
	}
	require.Greater(t, m[0x0121], 0)
	require.Greater(t, m[mpegts.PidPat], 0)

	stat := getStat(t, ts.URL)
	require.Len(t, stat.Sessions, 1)
	require.Equal(t, "1025", stat.Sessions[0].Selection)
	require.Equal(t, "HTTP-TS", stat.Sessions[0].Protocol)
	require.Equal(t, 1, stat.Hub.SubscriberCount)

	// 踢掉之后body读到结尾
	kick, err := http.Get(ts.URL + "/api/kick/" + stat.Sessions[0].SessionId)
	require.NoError(t, err)
	kick.Body.Close()
	require.Equal(t, http.StatusOK, kick.StatusCode)
	_, err = io.Copy(io.Discard, resp.Body)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, delNum := obs.counts()
		return delNum == 1
	}, 3*time.Second, 5*time.Millisecond)
	require.Len(t, getStat(t, ts.URL).Sessions, 0)

	kick, err = http.Get(ts.URL + "/api/kick/TSSUB999")
	require.NoError(t, err)
	kick.Body.Close()
	require.Equal(t, http.StatusNotFound, kick.StatusCode)
}

func TestHttpTsRejected(t *testing.T) {
	obs := &testObserver{allow: false}
	hub := NewHub(0)
	server := NewServer(obs, hub)
	ts := httptest.NewServer(server)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ALL")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	newNum, delNum := obs.counts()
	require.Equal(t, 1, newNum)
	require.Equal(t, 0, delNum)
	require.Equal(t, 0, hub.SubscriberCount())
}

func TestHttpTsHubDisposed(t *testing.T) {
	hub := NewHub(0)
	hub.Dispose()
	ts := httptest.NewServer(NewServer(nil, hub))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ALL")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWsTs(t *testing.T) {
	hub := NewHub(0)
	server := NewServer(nil, hub)
	ts := httptest.NewServer(server)
	defer ts.Close()
	defer server.Dispose()

	wsUrl := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/1SEG"
	conn, _, err := websocket.DefaultDialer.Dial(wsUrl, nil)
	require.NoError(t, err)
	defer conn.Close()

	waitSubscriber(t, hub, 1)
	stop := feed(hub)
	defer stop()

	var got []byte
	for len(got) < 188*16 {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		mt, b, err := conn.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.BinaryMessage, mt)
		require.Equal(t, 0, len(b)%mpegts.PacketSize)
		got = append(got, b...)
	}
	for pid := range innertest.PidCount(got) {
		require.Contains(t, []uint16{mpegts.PidPat, 0x1FC8, 0x0181, 0x0182}, pid)
	}

	require.Equal(t, "WS-TS", getStat(t, ts.URL).Sessions[0].Protocol)

	// 客户端断开后session被清理
	conn.Close()
	waitSubscriber(t, hub, 0)
}

func TestWsDisabled(t *testing.T) {
	hub := NewHub(0)
	ts := httptest.NewServer(NewServer(nil, hub, func(option *Option) {
		option.WsEnable = false
	}))
	defer ts.Close()

	wsUrl := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/ALL"
	_, resp, err := websocket.DefaultDialer.Dial(wsUrl, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
