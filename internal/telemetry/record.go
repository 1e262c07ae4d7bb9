// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry implements the fixed-layout packed telemetry
// record and the single-writer aggregator that composes and publishes
// it once per tick.
package telemetry

import (
	"encoding/binary"
	"hash/crc32"
	"math"
)

const (
	magic0 = 0xAB
	magic1 = 0xCD

	packetTypeFull = 0

	presentBMP  uint32 = 1 << 0
	presentIMU1 uint32 = 1 << 1
	presentSYS  uint32 = 1 << 2
	presentCTRL uint32 = 1 << 3
	presentIMU2 uint32 = 1 << 4
)

// BaroSection mirrors the baro.Reading fields carried on the wire.
type BaroSection struct {
	TemperatureC float32
	PressurePa   float32
	AltitudeMMSL float32
	Valid        bool
}

// ImuASection mirrors the IMU-A reading fields carried on the wire.
type ImuASection struct {
	QuatWXYZ     [4]float32
	AccelBodyG   [3]float32
	PressurePa   float32
	AltitudeMMSL float32
	Valid        bool
}

// ImuBSection mirrors the IMU-B reading fields carried on the wire.
type ImuBSection struct {
	AccelBodyG [3]float32
	GyroDps    [3]float32
	TempC      float32
	Valid      bool
}

// SysSection carries system/FC-mirrored fields: battery voltage, bus
// error counters, fc_state/fc_flags, the agl_ready mirror, and launch
// timing.
type SysSection struct {
	VbatMv        uint16
	BusErrorCount uint16
	FcState       uint8
	FcFlags       uint32
	AglReady      bool
	TSinceLaunchS float32
	TToApogeeS    float32
}

// CtrlSection carries the commanded and actual airbrake angle.
// AirbrakeActualDeg is always 0: there is no position-feedback sensor
// in this design.
type CtrlSection struct {
	AirbrakeCmdDeg   float32
	AirbrakeActualDeg float32
}

// FusedSection mirrors the FusedAlt fields carried on the wire.
type FusedSection struct {
	AglFused         float32
	VzFused          float32
	AzEarth          float32
	TiltDeg          float32
	TiltAz360        float32
	MachConservative float32
	ApogeeAglM       float32
}

// Record is one telemetry snapshot: header + all six sections, plus
// an optional CRC-32.
type Record struct {
	Seq          uint32
	TimestampMs  uint32
	PresentFlags uint32

	Baro  BaroSection
	ImuA  ImuASection
	ImuB  ImuBSection
	Sys   SysSection
	Ctrl  CtrlSection
	Fused FusedSection

	CRCEnabled bool
}

// Encode serializes the record into the packed wire layout: manual
// field-by-field little-endian writes, no struct-layout punning, so
// the bytes are bit-exact and portable across platforms regardless of
// native struct alignment.
func (r *Record) Encode() []byte {
	buf := make([]byte, 0, 256)

	buf = append(buf, magic0, magic1, packetTypeFull, 0)
	buf = appendU32(buf, r.Seq)
	buf = appendU32(buf, r.TimestampMs)
	buf = appendU32(buf, r.PresentFlags)

	buf = appendF32(buf, r.Baro.TemperatureC)
	buf = appendF32(buf, r.Baro.PressurePa)
	buf = appendF32(buf, r.Baro.AltitudeMMSL)
	buf = appendBool(buf, r.Baro.Valid)

	for _, v := range r.ImuA.QuatWXYZ {
		buf = appendF32(buf, v)
	}
	for _, v := range r.ImuA.AccelBodyG {
		buf = appendF32(buf, v)
	}
	buf = appendF32(buf, r.ImuA.PressurePa)
	buf = appendF32(buf, r.ImuA.AltitudeMMSL)
	buf = appendBool(buf, r.ImuA.Valid)

	for _, v := range r.ImuB.AccelBodyG {
		buf = appendF32(buf, v)
	}
	for _, v := range r.ImuB.GyroDps {
		buf = appendF32(buf, v)
	}
	buf = appendF32(buf, r.ImuB.TempC)
	buf = appendBool(buf, r.ImuB.Valid)

	buf = appendU16(buf, r.Sys.VbatMv)
	buf = appendU16(buf, r.Sys.BusErrorCount)
	buf = append(buf, r.Sys.FcState)
	buf = appendU32(buf, r.Sys.FcFlags)
	buf = appendBool(buf, r.Sys.AglReady)
	buf = appendF32(buf, r.Sys.TSinceLaunchS)
	buf = appendF32(buf, r.Sys.TToApogeeS)

	buf = appendF32(buf, r.Ctrl.AirbrakeCmdDeg)
	buf = appendF32(buf, r.Ctrl.AirbrakeActualDeg)

	buf = appendF32(buf, r.Fused.AglFused)
	buf = appendF32(buf, r.Fused.VzFused)
	buf = appendF32(buf, r.Fused.AzEarth)
	buf = appendF32(buf, r.Fused.TiltDeg)
	buf = appendF32(buf, r.Fused.TiltAz360)
	buf = appendF32(buf, r.Fused.MachConservative)
	buf = appendF32(buf, r.Fused.ApogeeAglM)

	if r.CRCEnabled {
		sum := crc32.ChecksumIEEE(buf)
		buf = appendU32(buf, sum)
	} else {
		buf = appendU32(buf, 0)
	}

	return buf
}

// Decode parses a packed record produced by Encode, returning the
// reconstructed Record and whether the trailing CRC (if present)
// verified. crcEnabled must match what the encoder used, since a
// disabled CRC is written as a literal zero rather than omitted.
func Decode(buf []byte, crcEnabled bool) (Record, bool, error) {
	var r Record
	p := 0

	readU16 := func() uint16 {
		v := binary.LittleEndian.Uint16(buf[p:])
		p += 2
		return v
	}
	readU32 := func() uint32 {
		v := binary.LittleEndian.Uint32(buf[p:])
		p += 4
		return v
	}
	readF32 := func() float32 {
		return math.Float32frombits(readU32())
	}
	readBool := func() bool {
		v := buf[p]
		p++
		return v != 0
	}

	p = 2 // skip magic, validated by caller if desired
	p++   // packet_type
	p++   // _pad
	r.Seq = readU32()
	r.TimestampMs = readU32()
	r.PresentFlags = readU32()

	r.Baro.TemperatureC = readF32()
	r.Baro.PressurePa = readF32()
	r.Baro.AltitudeMMSL = readF32()
	r.Baro.Valid = readBool()

	for i := range r.ImuA.QuatWXYZ {
		r.ImuA.QuatWXYZ[i] = readF32()
	}
	for i := range r.ImuA.AccelBodyG {
		r.ImuA.AccelBodyG[i] = readF32()
	}
	r.ImuA.PressurePa = readF32()
	r.ImuA.AltitudeMMSL = readF32()
	r.ImuA.Valid = readBool()

	for i := range r.ImuB.AccelBodyG {
		r.ImuB.AccelBodyG[i] = readF32()
	}
	for i := range r.ImuB.GyroDps {
		r.ImuB.GyroDps[i] = readF32()
	}
	r.ImuB.TempC = readF32()
	r.ImuB.Valid = readBool()

	r.Sys.VbatMv = readU16()
	r.Sys.BusErrorCount = readU16()
	r.Sys.FcState = buf[p]
	p++
	r.Sys.FcFlags = readU32()
	r.Sys.AglReady = readBool()
	r.Sys.TSinceLaunchS = readF32()
	r.Sys.TToApogeeS = readF32()

	r.Ctrl.AirbrakeCmdDeg = readF32()
	r.Ctrl.AirbrakeActualDeg = readF32()

	r.Fused.AglFused = readF32()
	r.Fused.VzFused = readF32()
	r.Fused.AzEarth = readF32()
	r.Fused.TiltDeg = readF32()
	r.Fused.TiltAz360 = readF32()
	r.Fused.MachConservative = readF32()
	r.Fused.ApogeeAglM = readF32()

	crcOK := true
	if crcEnabled {
		body := buf[:p]
		want := readU32()
		r.CRCEnabled = true
		crcOK = crc32.ChecksumIEEE(body) == want
	} else {
		_ = readU32()
	}

	return r, crcOK, nil
}

func appendU16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendF32(buf []byte, v float32) []byte {
	return appendU32(buf, math.Float32bits(v))
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}
