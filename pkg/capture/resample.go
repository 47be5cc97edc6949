package capture

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// resampler converts mono PCM16 from one sample rate to another using a
// pure Go band-limited resampler. Stereo input is downmixed to mono
// before conversion.
type resampler struct {
	src, dst Format
	inner    resampling.Resampler
}

func newResampler(src, dst Format) (*resampler, error) {
	r := &resampler{src: src, dst: dst}
	if src.SampleRate != dst.SampleRate {
		inner, err := resampling.New(&resampling.Config{
			InputRate:  float64(src.SampleRate),
			OutputRate: float64(dst.SampleRate),
			Channels:   dst.Channels,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("capture: create resampler: %w", err)
		}
		r.inner = inner
	}
	return r, nil
}

// process converts one chunk of source PCM16 into target-format PCM16.
func (r *resampler) process(pcm []byte) ([]byte, error) {
	if r.src.Channels == 2 {
		pcm = stereoToMono(pcm)
	}
	if r.inner == nil {
		return pcm, nil
	}
	n := len(pcm) / 2
	input := make([]float64, n)
	for i := 0; i < n; i++ {
		s := int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
		input[i] = float64(s) / 32768.0
	}
	output, err := r.inner.Process(input)
	if err != nil {
		return nil, fmt.Errorf("capture: resample: %w", err)
	}
	out := make([]byte, len(output)*2)
	for i, v := range output {
		s := int16(v * 32767.0)
		if v > 1.0 {
			s = 32767
		} else if v < -1.0 {
			s = -32768
		}
		out[2*i] = byte(s)
		out[2*i+1] = byte(s >> 8)
	}
	return out, nil
}

// stereoToMono averages interleaved stereo PCM16 frames.
func stereoToMono(pcm []byte) []byte {
	frames := len(pcm) / 4
	out := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		l := int16(uint16(pcm[4*i]) | uint16(pcm[4*i+1])<<8)
		r := int16(uint16(pcm[4*i+2]) | uint16(pcm[4*i+3])<<8)
		m := int16((int32(l) + int32(r)) / 2)
		out[2*i] = byte(m)
		out[2*i+1] = byte(m >> 8)
	}
	return out
}
