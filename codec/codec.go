package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/BaSui01/voicegate/types"
)

// Decode converts companded bytes in the given wire format to PCM16.
// PCM16 input is returned as-is (identity). Malformed input length or
// an unsupported format yields an INVALID_AUDIO_FRAME error; input is
// never silently truncated or padded.
func Decode(format types.AudioFormat, data []byte) ([]byte, error) {
	switch format {
	case types.AudioFormatPCM16:
		if len(data)%2 != 0 {
			return nil, types.NewInvalidAudioFrameError("pcm16 frame has odd byte length")
		}
		return data, nil
	case types.AudioFormatG711ULaw:
		out := make([]byte, len(data)*2)
		for i, b := range data {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(ulawToLinear(b)))
		}
		return out, nil
	case types.AudioFormatG711ALaw:
		out := make([]byte, len(data)*2)
		for i, b := range data {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(alawToLinear(b)))
		}
		return out, nil
	default:
		return nil, types.NewInvalidAudioFrameError(fmt.Sprintf("unsupported audio format: %s", format))
	}
}

// Encode converts PCM16 bytes to the given wire format. Companded
// formats halve the byte count (one companded byte per 16-bit sample).
func Encode(format types.AudioFormat, pcm []byte) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, types.NewInvalidAudioFrameError("pcm16 frame has odd byte length")
	}
	switch format {
	case types.AudioFormatPCM16:
		return pcm, nil
	case types.AudioFormatG711ULaw:
		out := make([]byte, len(pcm)/2)
		for i := range out {
			s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
			out[i] = linearToULaw(s)
		}
		return out, nil
	case types.AudioFormatG711ALaw:
		out := make([]byte, len(pcm)/2)
		for i := range out {
			s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
			out[i] = linearToALaw(s)
		}
		return out, nil
	default:
		return nil, types.NewInvalidAudioFrameError(fmt.Sprintf("unsupported audio format: %s", format))
	}
}

// Convert is the single transcoding entry point used by the protocol
// engine for inbound and outbound frames: decode, resample when the
// rates differ, then encode. Empty input returns empty output.
func Convert(data []byte, fromFormat types.AudioFormat, fromRate int, toFormat types.AudioFormat, toRate int) ([]byte, error) {
	pcm, err := Decode(fromFormat, data)
	if err != nil {
		return nil, err
	}
	if fromRate != toRate {
		pcm, err = Resample(pcm, fromRate, toRate, 1)
		if err != nil {
			return nil, err
		}
	}
	return Encode(toFormat, pcm)
}
