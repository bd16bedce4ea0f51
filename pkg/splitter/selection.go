// Copyright 2021, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package splitter

import (
	"strconv"
	"strings"
)

// 1seg节目固定使用的PMT PID
const pmtPid1Seg uint16 = 0x1FC8

var (
	epgPids     = []uint16{0x11, 0x12, 0x23, 0x29}
	epg1SegPids = []uint16{0x11, 0x26, 0x27}
)

type selectorKind int

const (
	selectorUnknown selectorKind = iota
	selectorEmpty
	selectorNth     // HD SD1 SD2 SD3
	selector1Seg    // 1SEG
	selectorAll     // ALL
	selectorEpg     // EPG EPG1SEG
	selectorService // 数字，service_id
)

type selector struct {
	kind      selectorKind
	token     string
	nth       int      // selectorNth，从0开始
	serviceId uint16   // selectorService
	fixedPids []uint16 // selectorEpg
}

func parseSelection(selection string) []selector {
	items := strings.Split(selection, ",")
	ret := make([]selector, 0, len(items))
	for _, item := range items {
		ret = append(ret, parseToken(item))
	}
	return ret
}

func parseToken(item string) selector {
	token := strings.ToUpper(strings.TrimSpace(item))
	sel := selector{token: token}
	switch token {
	case "":
		sel.kind = selectorEmpty
	case "HD", "SD1":
		sel.kind = selectorNth
		sel.nth = 0
	case "SD2":
		sel.kind = selectorNth
		sel.nth = 1
	case "SD3":
		sel.kind = selectorNth
		sel.nth = 2
	case "1SEG":
		sel.kind = selector1Seg
	case "ALL":
		sel.kind = selectorAll
	case "EPG":
		sel.kind = selectorEpg
		sel.fixedPids = epgPids
	case "EPG1SEG":
		sel.kind = selectorEpg
		sel.fixedPids = epg1SegPids
	default:
		if v, err := strconv.ParseUint(token, 10, 16); err == nil {
			sel.kind = selectorService
			sel.serviceId = uint16(v)
		} else {
			Log.Warnf("unknown selection token, ignore it. token=%s", item)
		}
	}
	return sel
}

// match
//
// @param index: 该节目在PAT中的序号(不包含NIT)，从0开始
// @param total: PAT中节目的总数(不包含NIT)
//
func (sel *selector) match(index, total int, e patEntry) bool {
	switch sel.kind {
	case selectorEmpty:
		return total == 1
	case selectorNth:
		return index == sel.nth
	case selector1Seg:
		return e.pmtPid == pmtPid1Seg
	case selectorAll:
		return true
	case selectorService:
		return e.serviceId == sel.serviceId
	}
	return false
}

// MatchingTokens 能选中该节目的selection token，不包含ALL和空
//
// @param index: 该节目在PAT中的序号(不包含NIT)，从0开始
//
func MatchingTokens(index, total int, serviceId, pmtPid uint16) []string {
	candidates := []string{strconv.Itoa(int(serviceId)), "HD", "SD1", "SD2", "SD3", "1SEG"}
	e := patEntry{serviceId: serviceId, pmtPid: pmtPid}
	var ret []string
	for _, c := range candidates {
		sel := parseToken(c)
		if sel.match(index, total, e) {
			ret = append(ret, c)
		}
	}
	return ret
}
