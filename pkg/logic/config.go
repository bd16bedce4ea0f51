// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"encoding/json"
	"os"

	"github.com/q191201771/naza/pkg/nazajson"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/tssplit/tssplit/pkg/base"
)

const (
	defaultHttptsAddr  = ":8080"
	defaultPprofAddr   = ":8084"
	defaultLogFilename = "./logs/tssplitserver.log"
)

var defaultConfigFiles = []string{
	"./tssplitserver.conf.json",
	"./conf/tssplitserver.conf.json",
	"../tssplitserver.conf.json",
	"../conf/tssplitserver.conf.json",
}

type Config struct {
	ConfVersion  string       `json:"conf_version"`
	HttptsConfig HttptsConfig `json:"http_ts"`
	InputConfig  InputConfig  `json:"input"`
	SplitConfig  SplitConfig  `json:"split"`
	PprofConfig  PprofConfig  `json:"pprof"`
	StatConfig   StatConfig   `json:"stat"`

	LogConfig nazalog.Option `json:"log"`

	// DurationSec 大于0时，运行这么长时间后自动退出
	DurationSec int `json:"duration_sec"`
}

type HttptsConfig struct {
	Addr     string `json:"addr"`
	WsEnable bool   `json:"ws_enable"`

	// MaxSubSessions 同时拉流的最大数量，0表示不限制
	MaxSubSessions int `json:"max_sub_sessions"`

	// SubChanSize 每个拉流者的发送队列大小
	SubChanSize int `json:"sub_chan_size"`
}

type InputConfig struct {
	Url string `json:"url"`

	// Loop 输入结束后重新打开，比如循环读取文件
	Loop bool `json:"loop"`
}

type SplitConfig struct {
	MaxServices int  `json:"max_services"`
	CheckPatCrc bool `json:"check_pat_crc"`
	DropCheck   bool `json:"drop_check"`
}

type PprofConfig struct {
	Enable bool   `json:"enable"`
	Addr   string `json:"addr"`
}

type StatConfig struct {
	// IntervalSec 定时打印统计日志的间隔，0表示不打印
	IntervalSec int `json:"interval_sec"`
}

func LoadConf(confFile string) (*Config, error) {
	rawContent, err := os.ReadFile(confFile)
	if err != nil {
		return nil, err
	}
	return ParseConf(rawContent)
}

// ParseConf 解析json格式的配置，没有出现的字段使用默认值
func ParseConf(rawContent []byte) (*Config, error) {
	var config Config
	if err := json.Unmarshal(rawContent, &config); err != nil {
		return nil, err
	}

	j, err := nazajson.New(rawContent)
	if err != nil {
		return nil, err
	}

	if config.InputConfig.Url == "" {
		return nil, base.NewErrConfigInvalid("input.url", config.InputConfig.Url)
	}
	if config.ConfVersion != "" && config.ConfVersion != base.ConfVersion {
		nazalog.Warnf("config version invalid. conf version of tssplitserver=%s, conf version of config file=%s",
			base.ConfVersion, config.ConfVersion)
	}

	if !j.Exist("http_ts.addr") {
		config.HttptsConfig.Addr = defaultHttptsAddr
	}
	if !j.Exist("http_ts.ws_enable") {
		config.HttptsConfig.WsEnable = true
	}
	if !j.Exist("http_ts.sub_chan_size") {
		config.HttptsConfig.SubChanSize = base.HttptsSubWriteChanSize
	}
	if !j.Exist("split.max_services") {
		config.SplitConfig.MaxServices = 50
	}
	if config.SplitConfig.MaxServices <= 0 {
		return nil, base.NewErrConfigInvalid("split.max_services", config.SplitConfig.MaxServices)
	}
	if !j.Exist("pprof.addr") {
		config.PprofConfig.Addr = defaultPprofAddr
	}

	if !j.Exist("log.level") {
		config.LogConfig.Level = nazalog.LevelDebug
	}
	if !j.Exist("log.filename") {
		config.LogConfig.Filename = defaultLogFilename
	}
	if !j.Exist("log.is_to_stdout") {
		config.LogConfig.IsToStdout = true
	}
	if !j.Exist("log.is_rotate_daily") {
		config.LogConfig.IsRotateDaily = true
	}
	if !j.Exist("log.short_file_flag") {
		config.LogConfig.ShortFileFlag = true
	}
	if !j.Exist("log.timestamp_flag") {
		config.LogConfig.TimestampFlag = true
	}
	if !j.Exist("log.timestamp_with_ms_flag") {
		config.LogConfig.TimestampWithMsFlag = true
	}
	if !j.Exist("log.level_flag") {
		config.LogConfig.LevelFlag = true
	}
	if !j.Exist("log.assert_behavior") {
		config.LogConfig.AssertBehavior = nazalog.AssertError
	}

	return &config, nil
}
