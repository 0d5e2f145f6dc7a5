package hitgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModuleCode(t *testing.T) {
	assert.Equal(t, uint32(101), ModuleCode(0, 0))
	assert.Equal(t, uint32(118), ModuleCode(0, 17))
	assert.Equal(t, uint32(11518), ModuleCode(114, 17))

	dom, mod := SplitModuleCode(ModuleCode(41, 7))
	assert.Equal(t, 41, dom)
	assert.Equal(t, 7, mod)
}

func TestPackLayout(t *testing.T) {
	// 0b 0000000000001100101 00011 00011001 -> code 101, sensor 3, tot 25
	v := Pack(25, 3, 101)
	assert.Equal(t, uint32(25|3<<8|101<<13), v)
	assert.Equal(t, uint32(0x000CA319), v)

	assert.Equal(t, uint32(0xFF), Pack(255, 0, 0))
	assert.Equal(t, uint32(31<<8), Pack(0, 31, 0))
	assert.Equal(t, uint32(ModuleMask)<<13, Pack(0, 0, ModuleMask))
	assert.Equal(t, ^uint32(0), Pack(MaxPulse, MaxSensor, ModuleMask))
}

func TestPackMasksOverflow(t *testing.T) {
	// a sensor id above 31 must not leak into the module code
	assert.Equal(t, Pack(0, 0, 7), Pack(0, 32, 7))
	assert.Equal(t, Pack(1, 2, 0), Pack(1, 2, 1<<ModuleBits))
}

func TestUnpackRoundTrip(t *testing.T) {
	rng := NewDPRNG(3)
	for range 100_000 {
		v := uint32(rng.Uint64())
		r := Unpack(v)
		assert.LessOrEqual(t, r.Sensor, uint8(MaxSensor))
		if v != r.Pack() {
			t.Fatalf("round trip of %#08x gave %#08x (%v)", v, r.Pack(), r)
		}
	}
}

func TestRecordString(t *testing.T) {
	assert.Equal(t, "module=101 sensor=3 tot=25", Unpack(Pack(25, 3, 101)).String())
}
