package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/BaSui01/voicegate/types"
)

// Resample performs linear-interpolation rate conversion on interleaved
// PCM16 data. It is a no-op when the rates match. The call is pure:
// repeated invocations with the same arguments yield identical output.
func Resample(pcm []byte, fromRate, toRate, channels int) ([]byte, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, types.NewInvalidAudioFrameError(fmt.Sprintf("invalid sample rate: %d -> %d", fromRate, toRate))
	}
	if channels <= 0 {
		return nil, types.NewInvalidAudioFrameError(fmt.Sprintf("invalid channel count: %d", channels))
	}
	if len(pcm)%2 != 0 {
		return nil, types.NewInvalidAudioFrameError("pcm16 frame has odd byte length")
	}
	frameBytes := 2 * channels
	if len(pcm)%frameBytes != 0 {
		return nil, types.NewInvalidAudioFrameError("pcm16 frame is not aligned to channel count")
	}
	if fromRate == toRate || len(pcm) == 0 {
		return pcm, nil
	}

	frames := len(pcm) / frameBytes
	outFrames := int(float64(frames) * float64(toRate) / float64(fromRate))
	if outFrames == 0 {
		return []byte{}, nil
	}

	sample := func(frame, ch int) int16 {
		return int16(binary.LittleEndian.Uint16(pcm[frame*frameBytes+ch*2:]))
	}

	step := float64(fromRate) / float64(toRate)
	out := make([]byte, outFrames*frameBytes)
	for i := 0; i < outFrames; i++ {
		pos := float64(i) * step
		i0 := int(pos)
		if i0 >= frames {
			i0 = frames - 1
		}
		i1 := i0 + 1
		if i1 >= frames {
			i1 = frames - 1
		}
		frac := pos - float64(i0)
		for ch := 0; ch < channels; ch++ {
			s0 := float64(sample(i0, ch))
			s1 := float64(sample(i1, ch))
			v := math.Round(s0 + (s1-s0)*frac)
			binary.LittleEndian.PutUint16(out[i*frameBytes+ch*2:], uint16(int16(v)))
		}
	}
	return out, nil
}
