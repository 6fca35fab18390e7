package sound

import (
	"bytes"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"testing"

	"alert-desk/internal/models"

	"github.com/rs/zerolog"
)

// wavFixture builds a minimal 16-bit mono PCM file.
func wavFixture() []byte {
	samples := make([]byte, 8)
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(samples)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(44100))
	binary.Write(&buf, binary.LittleEndian, uint32(44100*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(samples)))
	buf.Write(samples)
	return buf.Bytes()
}

func TestFetchAndDecodeIgnoresQueryString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(wavFixture())
	}))
	defer srv.Close()

	p := NewPlayer(NewCatalog(), func() string { return srv.URL }, zerolog.Nop())

	entry := models.Sound{ID: 1, Name: "chime", URL: "/media/chime.wav?sig=abc123&expires=1700000000"}
	streamer, format, err := p.fetchAndDecode(entry)
	if err != nil {
		t.Fatalf("signed media url must still decode: %v", err)
	}
	defer streamer.Close()

	if format.SampleRate != 44100 {
		t.Fatalf("unexpected sample rate %d", format.SampleRate)
	}
	if format.NumChannels != 1 {
		t.Fatalf("unexpected channel count %d", format.NumChannels)
	}
}

func TestSoundExt(t *testing.T) {
	cases := []struct {
		target string
		want   string
	}{
		{"http://backend:8000/media/chime.wav", ".wav"},
		{"http://backend:8000/media/chime.WAV", ".wav"},
		{"http://backend:8000/media/alarm.mp3?sig=xyz", ".mp3"},
		{"http://backend:8000/media/bell.ogg?a=1&b=2", ".ogg"},
		{"http://backend:8000/media/noext", ""},
	}
	for _, tc := range cases {
		if got := soundExt(tc.target); got != tc.want {
			t.Fatalf("soundExt(%q) = %q, want %q", tc.target, got, tc.want)
		}
	}
}
