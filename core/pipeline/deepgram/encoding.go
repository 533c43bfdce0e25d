package deepgram

import (
	"fmt"

	"github.com/koscakluka/ema-tray/core/audio"
)

type encodingInfo struct {
	SampleRate int
	Format     string
}

func convertEncoding(encoding audio.EncodingInfo) (encodingInfo, error) {
	converted := encodingInfo{}
	switch encoding.SampleRate {
	case 8000, 16000, 24000, 32000, 48000:
		converted.SampleRate = encoding.SampleRate
	default:
		return encodingInfo{}, fmt.Errorf("unsupported sample rate %d", encoding.SampleRate)
	}

	switch encoding.Format {
	case audio.EncodingLinear16:
		converted.Format = audio.EncodingLinear16.Name()
	case audio.EncodingALaw, audio.EncodingMulaw:
		if converted.SampleRate != 8000 {
			return encodingInfo{}, fmt.Errorf("unsupported sample rate for %s encoding", encoding.Format.Name())
		}
		converted.Format = encoding.Format.Name()
	default:
		return encodingInfo{}, fmt.Errorf("unsupported encoding %q", encoding.Format.Name())
	}

	return converted, nil
}
