package codec

import (
	"encoding/binary"
	"testing"

	"pgregory.net/rapid"

	"github.com/BaSui01/voicegate/types"
)

// TestProperty_G711_RoundTripBounded checks that for any PCM16 signal,
// decode(encode(x)) stays within the companding quantization bound and
// preserves length, for both G.711 laws.
func TestProperty_G711_RoundTripBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		samples := rapid.SliceOfN(rapid.Int16(), 0, 256).Draw(rt, "samples")
		format := rapid.SampledFrom([]types.AudioFormat{
			types.AudioFormatG711ULaw,
			types.AudioFormatG711ALaw,
		}).Draw(rt, "format")

		in := make([]byte, len(samples)*2)
		for i, s := range samples {
			binary.LittleEndian.PutUint16(in[i*2:], uint16(s))
		}

		enc, err := Encode(format, in)
		if err != nil {
			rt.Fatalf("encode: %v", err)
		}
		if len(enc) != len(samples) {
			rt.Fatalf("encode length %d, want %d", len(enc), len(samples))
		}

		dec, err := Decode(format, enc)
		if err != nil {
			rt.Fatalf("decode: %v", err)
		}
		if len(dec) != len(in) {
			rt.Fatalf("decode length %d, want %d", len(dec), len(in))
		}
		for i, want := range samples {
			got := int16(binary.LittleEndian.Uint16(dec[i*2:]))
			diff := int(got) - int(want)
			if diff < 0 {
				diff = -diff
			}
			if diff > 1024 {
				rt.Fatalf("%s sample %d: %d -> %d (diff %d)", format, i, want, got, diff)
			}
		}
	})
}

// TestProperty_PCM16_RoundTripExact checks the identity codec is exact.
func TestProperty_PCM16_RoundTripExact(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 128).Draw(rt, "frames")
		in := rapid.SliceOfN(rapid.Byte(), n*2, n*2).Draw(rt, "pcm")

		enc, err := Encode(types.AudioFormatPCM16, in)
		if err != nil {
			rt.Fatalf("encode: %v", err)
		}
		dec, err := Decode(types.AudioFormatPCM16, enc)
		if err != nil {
			rt.Fatalf("decode: %v", err)
		}
		if string(dec) != string(in) {
			rt.Fatalf("pcm16 round trip is not exact")
		}
	})
}

// TestProperty_Resample_Deterministic checks rate conversion carries no
// hidden state: two independent calls agree, and output frame count
// follows the rate ratio.
func TestProperty_Resample_Deterministic(t *testing.T) {
	rates := []int{8000, 16000, 24000, 48000}
	rapid.Check(t, func(rt *rapid.T) {
		frames := rapid.IntRange(1, 200).Draw(rt, "frames")
		from := rapid.SampledFrom(rates).Draw(rt, "from")
		to := rapid.SampledFrom(rates).Draw(rt, "to")
		in := rapid.SliceOfN(rapid.Byte(), frames*2, frames*2).Draw(rt, "pcm")

		a, err := Resample(in, from, to, 1)
		if err != nil {
			rt.Fatalf("resample: %v", err)
		}
		b, err := Resample(in, from, to, 1)
		if err != nil {
			rt.Fatalf("resample: %v", err)
		}
		if string(a) != string(b) {
			rt.Fatalf("resample is not deterministic")
		}

		wantFrames := int(float64(frames) * float64(to) / float64(from))
		if from == to {
			wantFrames = frames
		}
		if len(a) != wantFrames*2 {
			rt.Fatalf("got %d bytes, want %d frames", len(a), wantFrames)
		}
	})
}
