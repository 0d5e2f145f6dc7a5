package slicefile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/TomTonic/hitgen"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Version is the format version written by Encode.
const Version = 1

// MaxHits bounds the count accepted by Decode.
const MaxHits = 1 << 31

var (
	// ErrMagic is returned when the input does not start with the slice file magic.
	ErrMagic = errors.New("slicefile: bad magic")
	// ErrVersion is returned for an unsupported format version.
	ErrVersion = errors.New("slicefile: unsupported version")
	// ErrLength is returned when times and values differ in length or the body is short.
	ErrLength = errors.New("slicefile: length mismatch")
)

var magic = [4]byte{'H', 'G', 'S', '1'}

// Frame is one time slice of generated hits.
type Frame struct {
	RunID uuid.UUID
	Start int64
	End   int64
	// Backend names the vector math backend that produced the slice. Equal seeds
	// reproduce a slice only with the same backend.
	Backend string
	Times   []int64
	Values  []uint32
}

// backendFlags maps backend names to the low bits of the header flags. 0 is unknown.
var backendFlags = map[string]uint16{
	hitgen.BackendVek:      1,
	hitgen.BackendPortable: 2,
}

const backendMask = 0x3

func backendFromFlags(flags uint16) string {
	for name, f := range backendFlags {
		if f == flags&backendMask {
			return name
		}
	}
	return ""
}

// FromResult wraps the buffers of res. The frame shares them with res.
func FromResult(runID uuid.UUID, res *hitgen.Result) *Frame {
	return &Frame{
		RunID:   runID,
		Start:   res.Window.Start,
		End:     res.Window.End,
		Backend: res.Backend,
		Times:   res.Times,
		Values:  res.Values,
	}
}

// Len returns the number of hits.
func (f *Frame) Len() int { return len(f.Times) }

type header struct {
	Magic   [4]byte
	Version uint16
	Flags   uint16
	RunID   [16]byte
	Start   int64
	End     int64
	Count   uint64
}

// HeaderSize is the encoded size of the header.
const HeaderSize = 48

const blockHits = 4096

// Encode writes f to w.
func Encode(w io.Writer, f *Frame) error {
	if len(f.Times) != len(f.Values) {
		return fmt.Errorf("%d times, %d values: %w", len(f.Times), len(f.Values), ErrLength)
	}
	h := header{
		Magic:   magic,
		Version: Version,
		Flags:   backendFlags[f.Backend],
		RunID:   f.RunID,
		Start:   f.Start,
		End:     f.End,
		Count:   uint64(len(f.Times)),
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	buf := make([]byte, 0, 8*blockHits)
	prev := f.Start
	for i, t := range f.Times {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(t-prev))
		prev = t
		if (i+1)%blockHits == 0 {
			if _, err := enc.Write(buf); err != nil {
				enc.Close()
				return fmt.Errorf("failed to write times: %w", err)
			}
			buf = buf[:0]
		}
	}
	for i, v := range f.Values {
		buf = binary.LittleEndian.AppendUint32(buf, v)
		if (i+1)%blockHits == 0 {
			if _, err := enc.Write(buf); err != nil {
				enc.Close()
				return fmt.Errorf("failed to write values: %w", err)
			}
			buf = buf[:0]
		}
	}
	if _, err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("failed to write body: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush body: %w", err)
	}
	return nil
}

// Decode reads one frame from r.
func Decode(r io.Reader) (*Frame, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("short header: %w", ErrLength)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if h.Magic != magic {
		return nil, fmt.Errorf("%q: %w", h.Magic[:], ErrMagic)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("version %d: %w", h.Version, ErrVersion)
	}
	if h.Count > MaxHits {
		return nil, fmt.Errorf("count %d exceeds %d: %w", h.Count, MaxHits, ErrLength)
	}

	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1), zstd.WithDecoderLowmem(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	// The slices grow as the body decodes, so a header claiming more hits than the
	// body holds costs no more memory than the body itself.
	n := int(h.Count)
	f := &Frame{
		RunID:   h.RunID,
		Start:   h.Start,
		End:     h.End,
		Backend: backendFromFlags(h.Flags),
		Times:   make([]int64, 0, min(n, blockHits)),
		Values:  make([]uint32, 0, min(n, blockHits)),
	}
	buf := make([]byte, 8*blockHits)
	prev := f.Start
	for i := 0; i < n; i += blockHits {
		m := min(blockHits, n-i)
		if err := readBody(dec, buf[:8*m]); err != nil {
			return nil, err
		}
		for j := range m {
			prev += int64(binary.LittleEndian.Uint64(buf[8*j:]))
			f.Times = append(f.Times, prev)
		}
	}
	for i := 0; i < n; i += blockHits {
		m := min(blockHits, n-i)
		if err := readBody(dec, buf[:4*m]); err != nil {
			return nil, err
		}
		for j := range m {
			f.Values = append(f.Values, binary.LittleEndian.Uint32(buf[4*j:]))
		}
	}
	return f, nil
}

// readBody fills buf from the body. A body that ends early or does not decode is
// shorter than its header claims, so every failure wraps ErrLength.
func readBody(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("short body: %w: %w", ErrLength, err)
	}
	return nil
}

// Marshal returns the encoding of f.
func Marshal(f *Frame) ([]byte, error) {
	var b bytes.Buffer
	b.Grow(HeaderSize + 12*f.Len()/4)
	if err := Encode(&b, f); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Unmarshal decodes a frame from data.
func Unmarshal(data []byte) (*Frame, error) {
	return Decode(bytes.NewReader(data))
}
