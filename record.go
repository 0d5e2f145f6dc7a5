package hitgen

import "fmt"

// Bit layout of a packed hit value, from the least significant bit:
//
//	[0,8)   pulse width (ToT), 0..255
//	[8,13)  sensor within the module, 0..31
//	[13,32) module code, 100*(dom+1) + (mod+1)
const (
	PulseBits   = 8
	SensorBits  = 5
	ModuleBits  = 19
	SensorShift = PulseBits
	ModuleShift = PulseBits + SensorBits

	PulseMask  = 1<<PulseBits - 1
	SensorMask = 1<<SensorBits - 1
	ModuleMask = 1<<ModuleBits - 1

	// MaxSensor is the highest sensor id within a module.
	MaxSensor = SensorMask
	// MaxPulse is the highest pulse width.
	MaxPulse = PulseMask
)

// Record is an unpacked hit value.
type Record struct {
	Pulse  uint8
	Sensor uint8
	Module uint32
}

// ModuleCode returns the module code of the zero-based (dom, mod) pair.
func ModuleCode(dom, mod int) uint32 {
	return uint32(100*(dom+1) + (mod + 1))
}

// SplitModuleCode is the inverse of ModuleCode for mod < 99.
func SplitModuleCode(code uint32) (dom, mod int) {
	return int(code/100) - 1, int(code%100) - 1
}

// Pack composes a packed value. Fields wider than their bit range are masked.
func Pack(pulse, sensor uint8, code uint32) uint32 {
	return uint32(pulse)&PulseMask |
		(uint32(sensor)&SensorMask)<<SensorShift |
		(code&ModuleMask)<<ModuleShift
}

// Unpack splits a packed value into its fields.
func Unpack(v uint32) Record {
	return Record{
		Pulse:  uint8(v & PulseMask),
		Sensor: uint8(v >> SensorShift & SensorMask),
		Module: v >> ModuleShift & ModuleMask,
	}
}

// Pack re-encodes r.
func (r Record) Pack() uint32 {
	return Pack(r.Pulse, r.Sensor, r.Module)
}

func (r Record) String() string {
	return fmt.Sprintf("module=%d sensor=%d tot=%d", r.Module, r.Sensor, r.Pulse)
}
