package audio

import (
	"fmt"
	"time"
)

// Supported source codecs.
const (
	CodecPCM16 = "pcm_s16le"
	CodecMulaw = "mulaw"
)

// Format describes the audio carried on a speaker stream.
type Format struct {
	Codec      string `json:"codec" mapstructure:"codec"`
	SampleRate int    `json:"sample_rate" mapstructure:"sample_rate"`
	Channels   int    `json:"channels" mapstructure:"channels"`
}

// DefaultFormat is 48kHz stereo PCM, the layout voice gateways deliver after
// decoding their native frames.
var DefaultFormat = Format{Codec: CodecPCM16, SampleRate: 48000, Channels: 2}

// WithDefaults fills unset fields from DefaultFormat.
func (f Format) WithDefaults() Format {
	if f.Codec == "" {
		f.Codec = DefaultFormat.Codec
	}
	if f.SampleRate == 0 {
		f.SampleRate = DefaultFormat.SampleRate
	}
	if f.Channels == 0 {
		f.Channels = DefaultFormat.Channels
	}
	return f
}

// Validate checks that the format can be decoded.
func (f Format) Validate() error {
	switch f.Codec {
	case CodecPCM16, CodecMulaw:
	default:
		return fmt.Errorf("audio: unsupported codec %q", f.Codec)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("audio: sample rate must be positive, got %d", f.SampleRate)
	}
	if f.Channels < 1 || f.Channels > 2 {
		return fmt.Errorf("audio: channels must be 1 or 2, got %d", f.Channels)
	}
	return nil
}

// String renders the format as codec/rate/channels.
func (f Format) String() string {
	return fmt.Sprintf("%s/%dHz/%dch", f.Codec, f.SampleRate, f.Channels)
}

// PCMDuration returns the playback length of n bytes of s16le PCM at the
// format's rate and channel count.
func (f Format) PCMDuration(n int64) time.Duration {
	frame := int64(2 * f.Channels)
	if frame <= 0 || f.SampleRate <= 0 {
		return 0
	}
	samples := n / frame
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate)
}
