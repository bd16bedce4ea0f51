// Copyright 2020, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package httpts 通过HTTP或者WebSocket向拉流者输出分离后的TS流
//
// GET /{selection}         HTTP-TS，比如 /101,102 /HD /1SEG.ts
// GET /ws/{selection}      WebSocket二进制帧
// GET /                    空selection，只有一个节目时输出该节目
// GET /api/stat            JSON格式的统计
// GET /api/kick/{id}       踢掉一个拉流者
//
package httpts

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/tssplit/tssplit/pkg/base"
	"github.com/tssplit/tssplit/pkg/pipeline"
)

type ServerObserver interface {
	// OnNewHttptsSubSession 通知上层有新的拉流者
	// 返回值： true则允许拉流，false则关闭连接
	OnNewHttptsSubSession(session *SubSession) bool

	OnDelHttptsSubSession(session *SubSession)
}

type Option struct {
	Addr     string
	WsEnable bool

	// 每个拉流者的 pipeline 使用的选项
	PipelineOptions []pipeline.ModOption
}

var defaultOption = Option{
	Addr:     ":8080",
	WsEnable: true,
}

type ModOption func(option *Option)

const shutdownTimeout = 2 * time.Second

type Server struct {
	option   Option
	obs      ServerObserver
	hub      *Hub
	router   *mux.Router
	upgrader websocket.Upgrader
	srv      *http.Server
	ln       net.Listener

	mutex    sync.Mutex
	sessions map[string]*SubSession
}

type StatHub struct {
	UniqueKey       string `json:"unique_key"`
	InBytes         uint64 `json:"in_bytes"`
	SubscriberCount int    `json:"subscriber_count"`
}

type Stat struct {
	ServerId string                `json:"server_id"`
	Hub      StatHub               `json:"hub"`
	Sessions []base.StatSubSession `json:"sessions"`
}

// NewServer
//
// @param obs: 可以为nil
//
func NewServer(obs ServerObserver, hub *Hub, modOptions ...ModOption) *Server {
	option := defaultOption
	for _, fn := range modOptions {
		fn(&option)
	}
	server := &Server{
		option:   option,
		obs:      obs,
		hub:      hub,
		sessions: make(map[string]*SubSession),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.HandleFunc(RouteStat, server.handleStat).Methods(http.MethodGet)
	r.HandleFunc(RouteKick, server.handleKick).Methods(http.MethodGet, http.MethodPost)
	if option.WsEnable {
		r.HandleFunc(RouteWs, server.handleWs).Methods(http.MethodGet)
	}
	r.HandleFunc(RouteTs, server.handleTs).Methods(http.MethodGet)
	r.HandleFunc(RouteEmpty, server.handleTs).Methods(http.MethodGet)
	server.router = r
	server.srv = &http.Server{Handler: r}
	return server
}

func (server *Server) Listen() (err error) {
	if server.ln, err = net.Listen("tcp", server.option.Addr); err != nil {
		return
	}
	Log.Infof("start httpts server listen. addr=%s", server.option.Addr)
	return
}

// RunLoop Dispose 之后返回nil
func (server *Server) RunLoop() error {
	err := server.srv.Serve(server.ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Dispose 先结束所有拉流者，再关闭http服务
func (server *Server) Dispose() {
	server.mutex.Lock()
	for _, session := range server.sessions {
		session.Dispose()
	}
	server.mutex.Unlock()

	if server.ln == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.srv.Shutdown(ctx); err != nil {
		Log.Warnf("shutdown httpts server failed, close it. err=%+v", err)
		_ = server.srv.Close()
	}
}

// ServeHTTP 可以直接挂到其他的http服务上
func (server *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	server.router.ServeHTTP(w, r)
}

func (server *Server) Addr() net.Addr {
	if server.ln == nil {
		return nil
	}
	return server.ln.Addr()
}

func (server *Server) GetStat() Stat {
	stat := Stat{
		ServerId: base.TssplitHttptsServer,
		Hub: StatHub{
			UniqueKey:       server.hub.UniqueKey(),
			InBytes:         server.hub.InBytes(),
			SubscriberCount: server.hub.SubscriberCount(),
		},
		Sessions: []base.StatSubSession{},
	}
	server.mutex.Lock()
	defer server.mutex.Unlock()
	for _, session := range server.sessions {
		stat.Sessions = append(stat.Sessions, session.GetStat())
	}
	return stat
}

// ---------------------------------------------------------------------------------------------------------------------

func (server *Server) handleStat(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Server", base.TssplitHttptsServer)
	if err := json.NewEncoder(w).Encode(server.GetStat()); err != nil {
		Log.Errorf("write stat failed. err=%+v", err)
	}
}

func (server *Server) handleKick(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["session_id"]
	server.mutex.Lock()
	session, ok := server.sessions[id]
	server.mutex.Unlock()
	if !ok {
		http.Error(w, base.ErrHttptsSessionNotFound.Error(), http.StatusNotFound)
		return
	}
	Log.Infof("[%s] kick sub session.", id)
	session.Dispose()
	w.WriteHeader(http.StatusOK)
}

func (server *Server) handleTs(w http.ResponseWriter, r *http.Request) {
	selection := selectionOf(r)
	sub, err := server.hub.Subscribe()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	hw := newHttpWriter(w)
	session := newSubSession(base.GenUkTsSubSession(), base.SessionProtocolTsStr, selection, r.RemoteAddr,
		hw, server.hub, sub, server.option.PipelineOptions)
	if !server.addSession(session) {
		http.Error(w, base.ErrHttptsRejected.Error(), http.StatusForbidden)
		return
	}
	defer server.delSession(session)

	h := w.Header()
	h.Set("Server", base.TssplitHttptsServer)
	h.Set("Cache-Control", "no-cache")
	h.Set("Content-Type", "video/mp2t")
	h.Set("Connection", "close")
	h.Set("Expires", "-1")
	h.Set("Pragma", "no-cache")
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	// splitter就绪之前没有数据，先把响应头发出去
	_ = hw.rc.Flush()
	Log.Debugf("[%s] > W http response header.", session.UniqueKey())

	err = session.RunLoop(r.Context())
	Log.Debugf("[%s] httpts sub session loop done. err=%v", session.UniqueKey(), err)
}

func (server *Server) handleWs(w http.ResponseWriter, r *http.Request) {
	selection := selectionOf(r)
	conn, err := server.upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Errorf("websocket upgrade failed. err=%+v", err)
		return
	}
	defer conn.Close()

	sub, err := server.hub.Subscribe()
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
		return
	}
	session := newSubSession(base.GenUkWsSubSession(), base.SessionProtocolWsStr, selection, r.RemoteAddr,
		&wsWriter{conn: conn}, server.hub, sub, server.option.PipelineOptions)
	if !server.addSession(session) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, base.ErrHttptsRejected.Error()))
		return
	}
	defer server.delSession(session)

	// 拉流端不会发数据，读协程只用于感知连接断开
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err = session.RunLoop(ctx)
	Log.Debugf("[%s] ws sub session loop done. err=%v", session.UniqueKey(), err)
}

// addSession 返回false时session已被销毁
func (server *Server) addSession(session *SubSession) bool {
	if server.obs != nil && !server.obs.OnNewHttptsSubSession(session) {
		session.Dispose()
		return false
	}
	server.mutex.Lock()
	server.sessions[session.UniqueKey()] = session
	server.mutex.Unlock()
	return true
}

func (server *Server) delSession(session *SubSession) {
	session.Dispose()
	server.mutex.Lock()
	delete(server.sessions, session.UniqueKey())
	server.mutex.Unlock()
	if server.obs != nil {
		server.obs.OnDelHttptsSubSession(session)
	}
}

// selectionOf 去掉可选的.ts后缀
func selectionOf(r *http.Request) string {
	return strings.TrimSuffix(mux.Vars(r)["selection"], ".ts")
}
