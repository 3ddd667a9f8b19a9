package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

const (
	// CaptureRate is the preferred microphone sample rate. Clients that
	// cannot open a 16kHz capture context declare their actual rate in
	// each chunk's MIME descriptor instead.
	CaptureRate = 16000
	// PlaybackRate is the fixed rate of synthesized audio from the agent.
	PlaybackRate = 24000
	// BlockSize is the number of samples per capture block.
	BlockSize = 4096
)

// Chunk is the wire envelope for one block of 16-bit mono PCM: the raw
// bytes base64-encoded plus a MIME-style descriptor carrying the rate.
type Chunk struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

// Buffer holds decoded mono samples in [-1,1] tagged with a sample rate.
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the playback time of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.Samples)) / float64(b.SampleRate) * float64(time.Second))
}

// DecodeError reports a malformed inbound chunk. One bad chunk is
// dropped and playback continues, so callers need to tell it apart
// from transport failures.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "audio decode: " + e.Reason }

// Encode converts float samples to 16-bit signed little-endian PCM and
// wraps them in a transport envelope. Samples are clamped to [-1,1].
func Encode(samples []float32, rate int) (Chunk, error) {
	if len(samples) == 0 {
		return Chunk{}, fmt.Errorf("encode: empty sample block")
	}
	if rate <= 0 {
		return Chunk{}, fmt.Errorf("encode: invalid sample rate %d", rate)
	}
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := math.Round(float64(s) * 32768)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(v)))
	}
	return Chunk{
		Data:     base64.StdEncoding.EncodeToString(raw),
		MIMEType: fmt.Sprintf("audio/pcm;rate=%d", rate),
	}, nil
}

// Decode is the inverse of Encode: base64-decode, reinterpret as 16-bit
// signed little-endian PCM and rescale to float in [-1,1]. The result
// is tagged with targetRate, the rate the stream declared out of band.
func Decode(c Chunk, targetRate int) (*Buffer, error) {
	raw, err := base64.StdEncoding.DecodeString(c.Data)
	if err != nil {
		return nil, &DecodeError{Reason: "invalid base64 payload"}
	}
	if len(raw)%2 != 0 {
		return nil, &DecodeError{Reason: fmt.Sprintf("odd byte count %d", len(raw))}
	}
	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float32(v) / 32768
	}
	return &Buffer{Samples: samples, SampleRate: targetRate}, nil
}
