// Package audio holds the small amount of codec work nova does itself:
// wrapping PCM in WAV containers and decoding G.711 telephony audio so
// Whisper-style transcribers can read it.
package audio

import (
	"bytes"
	"encoding/binary"
	"mime"
	"strings"

	"github.com/zaf/g711"
)

// TelephonyRate is the sample rate of G.711 audio.
const TelephonyRate = 8000

// PCMToWAV wraps raw little-endian PCM data in a WAV container.
func PCMToWAV(pcm []byte, sampleRate, channels, bytesPerSample int) []byte {
	dataLen := len(pcm)
	fileLen := 36 + dataLen // 44-byte header minus 8 bytes for RIFF header = 36

	buf := &bytes.Buffer{}
	buf.Grow(44 + dataLen)

	// RIFF header
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(fileLen))
	buf.WriteString("WAVE")

	// fmt subchunk
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*bytesPerSample))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels*bytesPerSample))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bytesPerSample*8))

	// data subchunk
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(pcm)

	return buf.Bytes()
}

// Normalize converts G.711 µ-law and A-law uploads into 16-bit mono WAV.
// Any other content type is returned unchanged.
func Normalize(data []byte, contentType string) ([]byte, string) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch mediaType {
	case "audio/basic", "audio/x-mulaw", "audio/mulaw", "audio/pcmu":
		return PCMToWAV(g711.DecodeUlaw(data), TelephonyRate, 1, 2), "audio/wav"
	case "audio/x-alaw", "audio/alaw", "audio/pcma":
		return PCMToWAV(g711.DecodeAlaw(data), TelephonyRate, 1, 2), "audio/wav"
	default:
		return data, contentType
	}
}
