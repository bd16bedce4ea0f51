// Copyright 2020, Chef.  All rights reserved.
// https://github.com/tssplit/tssplit
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

// PackSection 把一个PSI section切割打包成一个或多个TS packet
//
// 首个packet设置payload_unit_start_indicator，并写入值为0的pointer_field。
// 最后一个packet剩余空间使用0xFF填充。
//
// @param cc: 首个packet的continuity_counter，后续packet依次加1
//
// @return: 内存块为独立申请，长度为188的整数倍
//
func PackSection(pid uint16, cc uint8, section []byte) []byte {
	// 首个packet的可用空间需要减去1字节pointer_field
	n := (len(section) + 1 + PacketSize - 4 - 1) / (PacketSize - 4)
	if n == 0 {
		n = 1
	}
	out := make([]byte, n*PacketSize)

	lpos := 0
	for i := 0; i < n; i++ {
		packet := out[i*PacketSize : (i+1)*PacketSize]
		packTsHeader(packet, pid, i == 0, cc+uint8(i))

		wpos := 4
		if i == 0 {
			packet[wpos] = 0 // pointer_field
			wpos++
		}
		wpos += copy(packet[wpos:], section[lpos:])
		lpos += wpos - 4
		if i == 0 {
			lpos--
		}
		for ; wpos < PacketSize; wpos++ {
			packet[wpos] = 0xFF
		}
	}
	return out
}

// PackPayload 生成一个只有payload没有adaptation field的packet，payload不足184字节时用0xFF填充
//
func PackPayload(pid uint16, pusi bool, cc uint8, payload []byte) []byte {
	packet := make([]byte, PacketSize)
	packTsHeader(packet, pid, pusi, cc)
	wpos := 4 + copy(packet[4:], payload)
	for ; wpos < PacketSize; wpos++ {
		packet[wpos] = 0xFF
	}
	return packet
}

// -----TS Header----------------
// sync_byte
// transport_error_indicator    0
// payload_unit_start_indicator
// transport_priority           0
// PID
// transport_scrambling_control 0
// adaptation_field_control     01 仅有payload
// continuity_counter
// ------------------------------
func packTsHeader(packet []byte, pid uint16, pusi bool, cc uint8) {
	packet[0] = syncByte
	packet[1] = 0x0
	if pusi {
		packet[1] = 0x40
	}
	packet[1] |= uint8((pid >> 8) & 0x1F) //PID高5位
	packet[2] = uint8(pid & 0xFF)         //PID低8位
	packet[3] = 0x10 | (cc & 0x0f)
}
