// Copyright 2026 The larpix-control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the LArPix v1 chip configuration record and
// its mapping onto the 63 one-byte configuration registers.
package config // import "github.com/larpix/larpix-control/config"

// NumChannels is the number of pixel channels of a LArPix v1 chip.
const NumChannels = 32

// NumRegisters is the number of one-byte configuration registers.
const NumRegisters = 63

// Test-mode register values.
const (
	TestOff  = 0x0
	TestUART = 0x1
	TestFIFO = 0x2
)

// Config is the desired configuration state of one LArPix v1 chip.
//
// Config is a plain value record: mutate the fields directly, then
// serialize with WriteAll (or the per-register write methods).
// Config is not safe for concurrent mutation.
type Config struct {
	PixelTrimThresholds [NumChannels]uint8 // per-channel trim DACs

	GlobalThreshold uint8

	CSAGain        uint8 // 1 bit
	CSABypass      uint8 // 1 bit
	InternalBypass uint8 // 1 bit

	CSABypassSelect    [NumChannels]uint8 // 1 bit per channel
	CSAMonitorSelect   [NumChannels]uint8 // 1 bit per channel
	CSATestpulseEnable [NumChannels]uint8 // 1 bit per channel

	CSATestpulseDACAmplitude uint8

	TestMode         uint8 // 2 bits
	CrossTriggerMode uint8 // 1 bit
	PeriodicReset    uint8 // 1 bit
	FIFODiagnostic   uint8 // 1 bit

	SampleCycles uint8

	TestBurstLength uint16

	ADCBurstLength uint8

	ChannelMask         [NumChannels]uint8 // 1 bit per channel
	ExternalTriggerMask [NumChannels]uint8 // 1 bit per channel

	ResetCycles uint32 // 24 bits
}

// New returns a configuration holding the LArPix v1 power-on
// defaults.
func New() *Config {
	cfg := &Config{
		GlobalThreshold:          0x10,
		CSAGain:                  1,
		InternalBypass:           1,
		CSATestpulseDACAmplitude: 0,
		TestMode:                 TestOff,
		SampleCycles:             1,
		TestBurstLength:          0x00ff,
		ResetCycles:              0x1000,
	}
	for ch := 0; ch < NumChannels; ch++ {
		cfg.PixelTrimThresholds[ch] = 0x10
		cfg.CSAMonitorSelect[ch] = 1
		cfg.ExternalTriggerMask[ch] = 1
	}
	return cfg
}
