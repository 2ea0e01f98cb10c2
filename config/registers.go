// Copyright 2026 The larpix-control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"

	"golang.org/x/xerrors"

	"github.com/larpix/larpix-control/uart"
)

// Register addresses. Groups spanning several registers give the
// address of their first register.
const (
	RegPixelTrimThreshold       = 0  // registers 0-31, one per channel
	RegGlobalThreshold          = 32 //
	RegCSAGainAndBypasses       = 33 //
	RegCSABypassSelect          = 34 // registers 34-37
	RegCSAMonitorSelect         = 38 // registers 38-41
	RegCSATestpulseEnable       = 42 // registers 42-45
	RegCSATestpulseDACAmplitude = 46 //
	RegTestModeXTrigResetDiag   = 47 //
	RegSampleCycles             = 48 //
	RegTestBurstLength          = 49 // registers 49-50, low byte first
	RegADCBurstLength           = 51 //
	RegChannelMask              = 52 // registers 52-55
	RegExternalTriggerMask      = 56 // registers 56-59
	RegResetCycles              = 60 // registers 60-62, low byte first
)

// numChunks is the number of registers a 32-channel bit array spans,
// 8 channels per register.
const numChunks = NumChannels / 8

// ErrRegisterMismatch reports that a packet's register address field
// does not match the register a read method expected. The
// configuration field is left at its prior value.
var ErrRegisterMismatch = xerrors.New("config: register address mismatch")

func put(p *uart.Packet, addr, data uint8) {
	p.SetRegisterAddress(addr)
	p.SetRegisterData(data)
}

// take validates the packet's address against [lo, hi] and returns
// the register offset within the group and the register data.
func take(p *uart.Packet, lo, hi uint8) (off, data uint8, err error) {
	addr := p.RegisterAddress()
	if addr < lo || addr > hi {
		if lo == hi {
			return 0, 0, xerrors.Errorf("config: could not read register (got=%d, want=%d): %w",
				addr, lo, ErrRegisterMismatch)
		}
		return 0, 0, xerrors.Errorf("config: could not read register (got=%d, want=%d-%d): %w",
			addr, lo, hi, ErrRegisterMismatch)
	}
	return addr - lo, p.RegisterData(), nil
}

// packChunk packs 8 consecutive entries of a per-channel bit array
// into one register byte, channel 8*chunk on bit 0.
func packChunk(arr *[NumChannels]uint8, chunk int) uint8 {
	var v uint8
	for i := 0; i < 8; i++ {
		if arr[8*chunk+i] != 0 {
			v |= 1 << i
		}
	}
	return v
}

func unpackChunk(arr *[NumChannels]uint8, chunk int, data uint8) {
	for i := 0; i < 8; i++ {
		arr[8*chunk+i] = (data >> i) & 1
	}
}

func checkChunk(chunk int) {
	if chunk < 0 || chunk >= numChunks {
		panic(fmt.Errorf("config: invalid channel chunk %d", chunk))
	}
}

// WritePixelTrimThreshold packs the trim threshold of the given
// channel into p's register address and data fields.
func (cfg *Config) WritePixelTrimThreshold(p *uart.Packet, channel int) {
	if channel < 0 || channel >= NumChannels {
		panic(fmt.Errorf("config: invalid channel %d", channel))
	}
	put(p, RegPixelTrimThreshold+uint8(channel), cfg.PixelTrimThresholds[channel])
}

// ReadPixelTrimThreshold unpacks a trim threshold register from p,
// the channel given by p's register address.
func (cfg *Config) ReadPixelTrimThreshold(p *uart.Packet) error {
	ch, data, err := take(p, RegPixelTrimThreshold, RegPixelTrimThreshold+NumChannels-1)
	if err != nil {
		return err
	}
	cfg.PixelTrimThresholds[ch] = data
	return nil
}

// WriteGlobalThreshold packs the global threshold register into p.
func (cfg *Config) WriteGlobalThreshold(p *uart.Packet) {
	put(p, RegGlobalThreshold, cfg.GlobalThreshold)
}

// ReadGlobalThreshold unpacks the global threshold register from p.
func (cfg *Config) ReadGlobalThreshold(p *uart.Packet) error {
	_, data, err := take(p, RegGlobalThreshold, RegGlobalThreshold)
	if err != nil {
		return err
	}
	cfg.GlobalThreshold = data
	return nil
}

// WriteCSAGainAndBypasses packs the csa_gain, csa_bypass and
// internal_bypass bits into p (gain on bit 0, bypass on bit 1,
// internal bypass on bit 3; bit 2 is unused on the chip).
func (cfg *Config) WriteCSAGainAndBypasses(p *uart.Packet) {
	data := cfg.CSAGain&1 | (cfg.CSABypass&1)<<1 | (cfg.InternalBypass&1)<<3
	put(p, RegCSAGainAndBypasses, data)
}

// ReadCSAGainAndBypasses unpacks the gain/bypass register from p.
func (cfg *Config) ReadCSAGainAndBypasses(p *uart.Packet) error {
	_, data, err := take(p, RegCSAGainAndBypasses, RegCSAGainAndBypasses)
	if err != nil {
		return err
	}
	cfg.CSAGain = data & 1
	cfg.CSABypass = (data >> 1) & 1
	cfg.InternalBypass = (data >> 3) & 1
	return nil
}

// WriteCSABypassSelect packs one 8-channel chunk of the csa bypass
// select array into p.
func (cfg *Config) WriteCSABypassSelect(p *uart.Packet, chunk int) {
	checkChunk(chunk)
	put(p, RegCSABypassSelect+uint8(chunk), packChunk(&cfg.CSABypassSelect, chunk))
}

// ReadCSABypassSelect unpacks a csa bypass select register from p,
// the chunk given by p's register address.
func (cfg *Config) ReadCSABypassSelect(p *uart.Packet) error {
	chunk, data, err := take(p, RegCSABypassSelect, RegCSABypassSelect+numChunks-1)
	if err != nil {
		return err
	}
	unpackChunk(&cfg.CSABypassSelect, int(chunk), data)
	return nil
}

// WriteCSAMonitorSelect packs one 8-channel chunk of the csa monitor
// select array into p.
func (cfg *Config) WriteCSAMonitorSelect(p *uart.Packet, chunk int) {
	checkChunk(chunk)
	put(p, RegCSAMonitorSelect+uint8(chunk), packChunk(&cfg.CSAMonitorSelect, chunk))
}

// ReadCSAMonitorSelect unpacks a csa monitor select register from p.
func (cfg *Config) ReadCSAMonitorSelect(p *uart.Packet) error {
	chunk, data, err := take(p, RegCSAMonitorSelect, RegCSAMonitorSelect+numChunks-1)
	if err != nil {
		return err
	}
	unpackChunk(&cfg.CSAMonitorSelect, int(chunk), data)
	return nil
}

// WriteCSATestpulseEnable packs one 8-channel chunk of the testpulse
// enable array into p.
func (cfg *Config) WriteCSATestpulseEnable(p *uart.Packet, chunk int) {
	checkChunk(chunk)
	put(p, RegCSATestpulseEnable+uint8(chunk), packChunk(&cfg.CSATestpulseEnable, chunk))
}

// ReadCSATestpulseEnable unpacks a testpulse enable register from p.
func (cfg *Config) ReadCSATestpulseEnable(p *uart.Packet) error {
	chunk, data, err := take(p, RegCSATestpulseEnable, RegCSATestpulseEnable+numChunks-1)
	if err != nil {
		return err
	}
	unpackChunk(&cfg.CSATestpulseEnable, int(chunk), data)
	return nil
}

// WriteCSATestpulseDACAmplitude packs the testpulse DAC amplitude
// register into p.
func (cfg *Config) WriteCSATestpulseDACAmplitude(p *uart.Packet) {
	put(p, RegCSATestpulseDACAmplitude, cfg.CSATestpulseDACAmplitude)
}

// ReadCSATestpulseDACAmplitude unpacks the testpulse DAC amplitude
// register from p.
func (cfg *Config) ReadCSATestpulseDACAmplitude(p *uart.Packet) error {
	_, data, err := take(p, RegCSATestpulseDACAmplitude, RegCSATestpulseDACAmplitude)
	if err != nil {
		return err
	}
	cfg.CSATestpulseDACAmplitude = data
	return nil
}

// WriteTestModeXTrigResetDiag packs the test mode (bits 0-1), cross
// trigger mode (bit 2), periodic reset (bit 3) and fifo diagnostic
// (bit 4) bits into p.
func (cfg *Config) WriteTestModeXTrigResetDiag(p *uart.Packet) {
	data := cfg.TestMode&3 |
		(cfg.CrossTriggerMode&1)<<2 |
		(cfg.PeriodicReset&1)<<3 |
		(cfg.FIFODiagnostic&1)<<4
	put(p, RegTestModeXTrigResetDiag, data)
}

// ReadTestModeXTrigResetDiag unpacks the mode register from p.
func (cfg *Config) ReadTestModeXTrigResetDiag(p *uart.Packet) error {
	_, data, err := take(p, RegTestModeXTrigResetDiag, RegTestModeXTrigResetDiag)
	if err != nil {
		return err
	}
	cfg.TestMode = data & 3
	cfg.CrossTriggerMode = (data >> 2) & 1
	cfg.PeriodicReset = (data >> 3) & 1
	cfg.FIFODiagnostic = (data >> 4) & 1
	return nil
}

// WriteSampleCycles packs the sample cycles register into p.
func (cfg *Config) WriteSampleCycles(p *uart.Packet) {
	put(p, RegSampleCycles, cfg.SampleCycles)
}

// ReadSampleCycles unpacks the sample cycles register from p.
func (cfg *Config) ReadSampleCycles(p *uart.Packet) error {
	_, data, err := take(p, RegSampleCycles, RegSampleCycles)
	if err != nil {
		return err
	}
	cfg.SampleCycles = data
	return nil
}

// WriteTestBurstLength packs byte idx (0 = least significant) of the
// 16-bit test burst length into p.
func (cfg *Config) WriteTestBurstLength(p *uart.Packet, idx int) {
	if idx < 0 || idx > 1 {
		panic(fmt.Errorf("config: invalid test burst length byte %d", idx))
	}
	put(p, RegTestBurstLength+uint8(idx), uint8(cfg.TestBurstLength>>(8*idx)))
}

// ReadTestBurstLength unpacks one byte of the test burst length from
// p, the byte index given by p's register address.
func (cfg *Config) ReadTestBurstLength(p *uart.Packet) error {
	idx, data, err := take(p, RegTestBurstLength, RegTestBurstLength+1)
	if err != nil {
		return err
	}
	shift := 8 * uint(idx)
	cfg.TestBurstLength = cfg.TestBurstLength&^(0xff<<shift) | uint16(data)<<shift
	return nil
}

// WriteADCBurstLength packs the ADC burst length register into p.
func (cfg *Config) WriteADCBurstLength(p *uart.Packet) {
	put(p, RegADCBurstLength, cfg.ADCBurstLength)
}

// ReadADCBurstLength unpacks the ADC burst length register from p.
func (cfg *Config) ReadADCBurstLength(p *uart.Packet) error {
	_, data, err := take(p, RegADCBurstLength, RegADCBurstLength)
	if err != nil {
		return err
	}
	cfg.ADCBurstLength = data
	return nil
}

// WriteChannelMask packs one 8-channel chunk of the channel mask
// array into p.
func (cfg *Config) WriteChannelMask(p *uart.Packet, chunk int) {
	checkChunk(chunk)
	put(p, RegChannelMask+uint8(chunk), packChunk(&cfg.ChannelMask, chunk))
}

// ReadChannelMask unpacks a channel mask register from p.
func (cfg *Config) ReadChannelMask(p *uart.Packet) error {
	chunk, data, err := take(p, RegChannelMask, RegChannelMask+numChunks-1)
	if err != nil {
		return err
	}
	unpackChunk(&cfg.ChannelMask, int(chunk), data)
	return nil
}

// WriteExternalTriggerMask packs one 8-channel chunk of the external
// trigger mask array into p.
func (cfg *Config) WriteExternalTriggerMask(p *uart.Packet, chunk int) {
	checkChunk(chunk)
	put(p, RegExternalTriggerMask+uint8(chunk), packChunk(&cfg.ExternalTriggerMask, chunk))
}

// ReadExternalTriggerMask unpacks an external trigger mask register
// from p.
func (cfg *Config) ReadExternalTriggerMask(p *uart.Packet) error {
	chunk, data, err := take(p, RegExternalTriggerMask, RegExternalTriggerMask+numChunks-1)
	if err != nil {
		return err
	}
	unpackChunk(&cfg.ExternalTriggerMask, int(chunk), data)
	return nil
}

// WriteResetCycles packs byte idx (0 = least significant) of the
// 24-bit reset cycles value into p.
func (cfg *Config) WriteResetCycles(p *uart.Packet, idx int) {
	if idx < 0 || idx > 2 {
		panic(fmt.Errorf("config: invalid reset cycles byte %d", idx))
	}
	put(p, RegResetCycles+uint8(idx), uint8(cfg.ResetCycles>>(8*idx)))
}

// ReadResetCycles unpacks one byte of the reset cycles value from p,
// the byte index given by p's register address.
func (cfg *Config) ReadResetCycles(p *uart.Packet) error {
	idx, data, err := take(p, RegResetCycles, RegResetCycles+2)
	if err != nil {
		return err
	}
	shift := 8 * uint(idx)
	cfg.ResetCycles = (cfg.ResetCycles&^(0xff<<shift) | uint32(data)<<shift) & 0xffffff
	return nil
}

// writeRegister packs the register with the given address into p.
func (cfg *Config) writeRegister(p *uart.Packet, addr int) {
	switch {
	case addr >= RegPixelTrimThreshold && addr < RegPixelTrimThreshold+NumChannels:
		cfg.WritePixelTrimThreshold(p, addr-RegPixelTrimThreshold)
	case addr == RegGlobalThreshold:
		cfg.WriteGlobalThreshold(p)
	case addr == RegCSAGainAndBypasses:
		cfg.WriteCSAGainAndBypasses(p)
	case addr >= RegCSABypassSelect && addr < RegCSABypassSelect+numChunks:
		cfg.WriteCSABypassSelect(p, addr-RegCSABypassSelect)
	case addr >= RegCSAMonitorSelect && addr < RegCSAMonitorSelect+numChunks:
		cfg.WriteCSAMonitorSelect(p, addr-RegCSAMonitorSelect)
	case addr >= RegCSATestpulseEnable && addr < RegCSATestpulseEnable+numChunks:
		cfg.WriteCSATestpulseEnable(p, addr-RegCSATestpulseEnable)
	case addr == RegCSATestpulseDACAmplitude:
		cfg.WriteCSATestpulseDACAmplitude(p)
	case addr == RegTestModeXTrigResetDiag:
		cfg.WriteTestModeXTrigResetDiag(p)
	case addr == RegSampleCycles:
		cfg.WriteSampleCycles(p)
	case addr >= RegTestBurstLength && addr < RegTestBurstLength+2:
		cfg.WriteTestBurstLength(p, addr-RegTestBurstLength)
	case addr == RegADCBurstLength:
		cfg.WriteADCBurstLength(p)
	case addr >= RegChannelMask && addr < RegChannelMask+numChunks:
		cfg.WriteChannelMask(p, addr-RegChannelMask)
	case addr >= RegExternalTriggerMask && addr < RegExternalTriggerMask+numChunks:
		cfg.WriteExternalTriggerMask(p, addr-RegExternalTriggerMask)
	case addr >= RegResetCycles && addr < RegResetCycles+3:
		cfg.WriteResetCycles(p, addr-RegResetCycles)
	default:
		panic(fmt.Errorf("config: invalid register address %d", addr))
	}
}

// readRegister unpacks the register carried by p, dispatching on its
// address field.
func (cfg *Config) readRegister(p *uart.Packet) error {
	addr := int(p.RegisterAddress())
	switch {
	case addr >= RegPixelTrimThreshold && addr < RegPixelTrimThreshold+NumChannels:
		return cfg.ReadPixelTrimThreshold(p)
	case addr == RegGlobalThreshold:
		return cfg.ReadGlobalThreshold(p)
	case addr == RegCSAGainAndBypasses:
		return cfg.ReadCSAGainAndBypasses(p)
	case addr >= RegCSABypassSelect && addr < RegCSABypassSelect+numChunks:
		return cfg.ReadCSABypassSelect(p)
	case addr >= RegCSAMonitorSelect && addr < RegCSAMonitorSelect+numChunks:
		return cfg.ReadCSAMonitorSelect(p)
	case addr >= RegCSATestpulseEnable && addr < RegCSATestpulseEnable+numChunks:
		return cfg.ReadCSATestpulseEnable(p)
	case addr == RegCSATestpulseDACAmplitude:
		return cfg.ReadCSATestpulseDACAmplitude(p)
	case addr == RegTestModeXTrigResetDiag:
		return cfg.ReadTestModeXTrigResetDiag(p)
	case addr == RegSampleCycles:
		return cfg.ReadSampleCycles(p)
	case addr >= RegTestBurstLength && addr < RegTestBurstLength+2:
		return cfg.ReadTestBurstLength(p)
	case addr == RegADCBurstLength:
		return cfg.ReadADCBurstLength(p)
	case addr >= RegChannelMask && addr < RegChannelMask+numChunks:
		return cfg.ReadChannelMask(p)
	case addr >= RegExternalTriggerMask && addr < RegExternalTriggerMask+numChunks:
		return cfg.ReadExternalTriggerMask(p)
	case addr >= RegResetCycles && addr < RegResetCycles+3:
		return cfg.ReadResetCycles(p)
	}
	return xerrors.Errorf("config: could not read register (got=%d, want=0-%d): %w",
		addr, NumRegisters-1, ErrRegisterMismatch)
}

// WriteAll serializes the whole configuration into 63 config-write
// packets, register addresses 0 to 62 in order, with the given chip
// id and a valid parity bit on every packet.
func (cfg *Config) WriteAll(chipID uint8) [NumRegisters]uart.Packet {
	var pkts [NumRegisters]uart.Packet
	for addr := range pkts {
		p := &pkts[addr]
		p.SetType(uart.PacketConfigWrite)
		p.SetChipID(chipID)
		cfg.writeRegister(p, addr)
		p.SetParity()
	}
	return pkts
}

// ReadAll parses 63 register packets assumed to be in write order
// (addresses 0 to 62) and returns the number of packets whose
// register address field did not match the address expected for
// their position. Mismatched packets are skipped and the fields they
// would have set keep their prior values; parsing always continues
// through the remaining packets.
//
// The count does not identify which registers failed. Callers needing
// that have to compare field by field against a reference Config.
func (cfg *Config) ReadAll(pkts *[NumRegisters]uart.Packet) int {
	var nbad int
	for addr := range pkts {
		p := &pkts[addr]
		if int(p.RegisterAddress()) != addr {
			nbad++
			continue
		}
		if err := cfg.readRegister(p); err != nil {
			nbad++
		}
	}
	return nbad
}
