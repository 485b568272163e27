package audio

import "testing"

func TestDetectMIME(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), "audio/wav"},
		{"ogg", []byte("OggS\x00\x02rest"), "audio/ogg"},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x00, 0x00}, "audio/webm"},
		{"mp4", []byte("\x00\x00\x00\x18ftypmp42"), "audio/mp4"},
		{"mp3 id3", []byte("ID3\x04\x00rest"), "audio/mp3"},
		{"mp3 frame", []byte{0xFF, 0xFB, 0x90, 0x00}, "audio/mp3"},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), "audio/flac"},
		{"unknown", []byte{0x01, 0x02, 0x03, 0x04}, DefaultMIME},
		{"short", []byte{0x01}, DefaultMIME},
	}
	for _, tc := range cases {
		if got := DetectMIME(tc.data); got != tc.want {
			t.Fatalf("%s: DetectMIME = %q, want %q", tc.name, got, tc.want)
		}
	}
}
