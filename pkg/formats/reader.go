package formats

import (
	"encoding/binary"
	gomath "math"

	"github.com/Faultbox/meshforge/pkg/encoding"
)

// reader decodes little-endian fields from a byte slice. The first read
// past the end records truncErr; later reads return zero values, so a
// parser checks err once per section.
type reader struct {
	data     []byte
	off      int
	err      error
	truncErr error
}

func newReader(data []byte, truncErr error) *reader {
	return &reader{data: data, truncErr: truncErr}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = r.truncErr
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) skip(n int) { r.take(n) }

func (r *reader) u8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u16() uint16 {
	if b := r.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *reader) u32() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *reader) i32() int32 { return int32(r.u32()) }

func (r *reader) f32() float32 { return gomath.Float32frombits(r.u32()) }

func (r *reader) vec3() [3]float32 {
	return [3]float32{r.f32(), r.f32(), r.f32()}
}

func (r *reader) vec4() [4]float32 {
	return [4]float32{r.f32(), r.f32(), r.f32(), r.f32()}
}

// str reads a fixed-size, NUL-padded EUC-KR string.
func (r *reader) str(size int) string {
	return encoding.FixedStringToUTF8(r.take(size))
}

// count reads an int32 element count and rejects values above limit.
func (r *reader) count(limit int32, tooMany error) int {
	n := r.i32()
	if r.err != nil {
		return 0
	}
	if n < 0 || n > limit {
		r.err = tooMany
		return 0
	}
	return int(n)
}
