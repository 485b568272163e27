package audio

import "bytes"

// DefaultMIME is assumed when the payload cannot be identified. Browser mic
// recorders in this stack produce mp3, so it is the safest fallback.
const DefaultMIME = "audio/mp3"

// DetectMIME identifies common recorded-audio containers by magic number so
// the transcription request can label inline audio correctly.
func DetectMIME(data []byte) string {
	if len(data) < 4 {
		return DefaultMIME
	}
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")) && len(data) >= 12 && bytes.Equal(data[8:12], []byte("WAVE")):
		return "audio/wav"
	case bytes.HasPrefix(data, []byte("OggS")):
		return "audio/ogg"
	case bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		// EBML header, i.e. webm/matroska from MediaRecorder.
		return "audio/webm"
	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")):
		return "audio/mp4"
	case bytes.HasPrefix(data, []byte("ID3")):
		return "audio/mp3"
	case data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// Bare MPEG audio frame sync.
		return "audio/mp3"
	case bytes.HasPrefix(data, []byte("fLaC")):
		return "audio/flac"
	default:
		return DefaultMIME
	}
}
