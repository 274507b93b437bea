package codec

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/voicegate/types"
)

func pcmBytes(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func pcmSamples(t *testing.T, data []byte) []int16 {
	t.Helper()
	require.Zero(t, len(data)%2)
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}

func TestPCM16Identity(t *testing.T) {
	in := pcmBytes(0, 1, -1, 12345, -12345, 32767, -32768)

	enc, err := Encode(types.AudioFormatPCM16, in)
	require.NoError(t, err)
	dec, err := Decode(types.AudioFormatPCM16, enc)
	require.NoError(t, err)
	assert.Equal(t, in, dec)
}

func TestG711KnownValues(t *testing.T) {
	// Silence encodes to the standard idle patterns.
	assert.Equal(t, byte(0xFF), linearToULaw(0))
	assert.Equal(t, int16(0), ulawToLinear(0xFF))
	assert.Equal(t, byte(0xD5), linearToALaw(0))
	assert.Equal(t, int16(8), alawToLinear(0xD5))
}

func TestG711EncodeHalvesSize(t *testing.T) {
	in := pcmBytes(100, 200, 300, 400)
	for _, format := range []types.AudioFormat{types.AudioFormatG711ULaw, types.AudioFormatG711ALaw} {
		out, err := Encode(format, in)
		require.NoError(t, err)
		assert.Len(t, out, len(in)/2)
	}
}

func TestG711RoundTripBoundedError(t *testing.T) {
	samples := []int16{0, 1, -1, 7, -8, 100, -100, 1000, -1000, 8000, -8000, 20000, -20000, 32767, -32768}
	in := pcmBytes(samples...)

	for _, format := range []types.AudioFormat{types.AudioFormatG711ULaw, types.AudioFormatG711ALaw} {
		enc, err := Encode(format, in)
		require.NoError(t, err)
		dec, err := Decode(format, enc)
		require.NoError(t, err)

		got := pcmSamples(t, dec)
		require.Len(t, got, len(samples))
		for i, want := range samples {
			diff := int(got[i]) - int(want)
			if diff < 0 {
				diff = -diff
			}
			// Companding is lossy but bounded: half the widest
			// quantization step plus truncation error.
			assert.LessOrEqualf(t, diff, 1024, "%s sample %d: %d -> %d", format, i, want, got[i])
		}
	}
}

func TestDecodeRejectsOddPCM16(t *testing.T) {
	_, err := Decode(types.AudioFormatPCM16, []byte{1, 2, 3})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidAudioFrame))

	_, err = Encode(types.AudioFormatG711ULaw, []byte{1})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidAudioFrame))
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := Decode(types.AudioFormat("opus"), []byte{1, 2})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidAudioFrame))

	_, err = Encode(types.AudioFormat("opus"), []byte{1, 2})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidAudioFrame))
}

func TestConvertEmptyInput(t *testing.T) {
	out, err := Convert(nil, types.AudioFormatG711ULaw, 8000, types.AudioFormatPCM16, 8000)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestConvertULawToPCMUpsampled(t *testing.T) {
	pcm := pcmBytes(0, 1000, -1000, 8000, -8000, 0, 500, -500)
	ulaw, err := Encode(types.AudioFormatG711ULaw, pcm)
	require.NoError(t, err)

	out, err := Convert(ulaw, types.AudioFormatG711ULaw, 8000, types.AudioFormatPCM16, 24000)
	require.NoError(t, err)
	// 8 frames at 8kHz become 24 frames at 24kHz.
	assert.Len(t, out, 24*2)
}

func TestResample(t *testing.T) {
	t.Run("same rate is a no-op", func(t *testing.T) {
		in := pcmBytes(1, 2, 3, 4)
		out, err := Resample(in, 16000, 16000, 1)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("downsample halves frames", func(t *testing.T) {
		in := pcmBytes(0, 100, 200, 300, 400, 500, 600, 700)
		out, err := Resample(in, 16000, 8000, 1)
		require.NoError(t, err)
		got := pcmSamples(t, out)
		assert.Equal(t, []int16{0, 200, 400, 600}, got)
	})

	t.Run("upsample interpolates linearly", func(t *testing.T) {
		in := pcmBytes(0, 100)
		out, err := Resample(in, 8000, 16000, 1)
		require.NoError(t, err)
		got := pcmSamples(t, out)
		require.Len(t, got, 4)
		assert.Equal(t, int16(0), got[0])
		assert.Equal(t, int16(50), got[1])
		assert.Equal(t, int16(100), got[2])
	})

	t.Run("stereo preserves interleaving", func(t *testing.T) {
		// L channel rises, R channel constant.
		in := pcmBytes(0, 7, 100, 7, 200, 7, 300, 7)
		out, err := Resample(in, 16000, 8000, 2)
		require.NoError(t, err)
		got := pcmSamples(t, out)
		assert.Equal(t, []int16{0, 7, 200, 7}, got)
	})

	t.Run("misaligned input rejected", func(t *testing.T) {
		_, err := Resample([]byte{1, 2}, 8000, 16000, 2)
		require.Error(t, err)
		assert.True(t, types.IsErrorCode(err, types.ErrInvalidAudioFrame))
	})

	t.Run("bad rates rejected", func(t *testing.T) {
		_, err := Resample(pcmBytes(1), 0, 16000, 1)
		require.Error(t, err)
		_, err = Resample(pcmBytes(1), 16000, -1, 1)
		require.Error(t, err)
	})
}
