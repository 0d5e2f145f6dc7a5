// Package slicefile stores generated hit slices in a compact binary form.
//
// A file starts with a fixed 48 byte little-endian header
//
//	magic    [4]byte  "HGS1"
//	version  uint16
//	flags    uint16   bits 0-1: backend (1 vek, 2 portable, 0 unknown)
//	run id   [16]byte
//	start    int64    window start in ns
//	end      int64    window end in ns
//	count    uint64   number of hits
//
// followed by a zstd stream holding count time deltas (int64, each relative to the
// previous time, the first relative to start) and then count packed values (uint32).
package slicefile
