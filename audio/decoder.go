package audio

import (
	"errors"
	"fmt"
)

// ErrTruncatedSample is returned by Flush when a stream ended mid-sample.
var ErrTruncatedSample = errors.New("audio: stream ended mid-sample")

// Decoder turns source-codec bytes into s16le PCM. Decoders are stateful and
// must not be shared between streams: input may be split at any byte.
type Decoder interface {
	// Decode appends the PCM for src to dst and returns the extended slice.
	Decode(dst, src []byte) ([]byte, error)
	// Flush reports whether undecoded bytes remain at end of stream.
	Flush() error
}

// NewDecoder returns a decoder for the codec.
func NewDecoder(codec string) (Decoder, error) {
	switch codec {
	case CodecPCM16, "":
		return &pcmDecoder{}, nil
	case CodecMulaw:
		return mulawDecoder{}, nil
	default:
		return nil, fmt.Errorf("audio: unsupported codec %q", codec)
	}
}

// pcmDecoder passes samples through, holding back an odd trailing byte
// until its pair arrives.
type pcmDecoder struct {
	carry    byte
	hasCarry bool
}

func (d *pcmDecoder) Decode(dst, src []byte) ([]byte, error) {
	if len(src) == 0 {
		return dst, nil
	}
	if d.hasCarry {
		dst = append(dst, d.carry, src[0])
		src = src[1:]
		d.hasCarry = false
	}
	if len(src)%2 == 1 {
		d.carry = src[len(src)-1]
		d.hasCarry = true
		src = src[:len(src)-1]
	}
	return append(dst, src...), nil
}

func (d *pcmDecoder) Flush() error {
	if d.hasCarry {
		d.hasCarry = false
		return ErrTruncatedSample
	}
	return nil
}

// mulawDecoder expands G.711 mu-law bytes to 16-bit samples.
type mulawDecoder struct{}

func (mulawDecoder) Decode(dst, src []byte) ([]byte, error) {
	for _, b := range src {
		s := mulawTable[b]
		dst = append(dst, byte(s), byte(uint16(s)>>8))
	}
	return dst, nil
}

func (mulawDecoder) Flush() error { return nil }

var mulawTable = func() [256]int16 {
	var t [256]int16
	for i := range t {
		t[i] = mulawToLinear(byte(i))
	}
	return t
}()

func mulawToLinear(u byte) int16 {
	u = ^u
	sign := u & 0x80
	exponent := (u >> 4) & 0x07
	mantissa := u & 0x0F
	sample := ((int16(mantissa) << 3) + 0x84) << exponent
	sample -= 0x84
	if sign != 0 {
		return -sample
	}
	return sample
}
