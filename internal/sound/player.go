package sound

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"alert-desk/internal/models"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/generators"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/rs/zerolog"
)

const (
	sampleRate   = beep.SampleRate(44100)
	beepFreq     = 880
	beepDuration = 300 * time.Millisecond
	fetchTimeout = 15 * time.Second
)

// Player plays audio cues through the system mixer. Sound names resolve
// against the catalog except the two reserved sentinels; an unresolvable
// name is a silent no-op, never an error surfaced to the user.
type Player struct {
	catalog *Catalog
	baseURL func() string
	client  *http.Client
	logger  zerolog.Logger

	initOnce sync.Once
	initErr  error
}

// NewPlayer creates a player. baseURL supplies the backend base URL for
// resolving relative sound file paths from the catalog.
func NewPlayer(catalog *Catalog, baseURL func() string, logger zerolog.Logger) *Player {
	return &Player{
		catalog: catalog,
		baseURL: baseURL,
		client:  &http.Client{Timeout: fetchTimeout},
		logger:  logger.With().Str("component", "sound").Logger(),
	}
}

func (p *Player) init() error {
	p.initOnce.Do(func() {
		p.initErr = speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond))
	})
	return p.initErr
}

// Play resolves name and plays it at volume/100 gain. Playback is
// asynchronous; Play returns once the cue is queued.
func (p *Player) Play(name string, volume int) {
	if name == "" || name == models.SoundNone || volume <= 0 {
		return
	}
	if err := p.init(); err != nil {
		p.logger.Warn().Err(err).Msg("Audio device unavailable")
		return
	}

	if name == models.SoundBeep {
		p.playTone(volume)
		return
	}

	entry, ok := p.catalog.ByName(name)
	if !ok || entry.URL == "" {
		p.logger.Debug().Str("sound", name).Msg("Sound not in catalog, skipping")
		return
	}

	streamer, format, err := p.fetchAndDecode(entry)
	if err != nil {
		p.logger.Warn().Err(err).Str("sound", name).Msg("Could not load sound")
		return
	}

	var s beep.Streamer = streamer
	if format.SampleRate != sampleRate {
		s = beep.Resample(4, format.SampleRate, sampleRate, streamer)
	}
	speaker.Play(beep.Seq(withVolume(s, volume), beep.Callback(func() {
		streamer.Close()
	})))
}

// StopAll halts every in-flight playback immediately. This is a hard
// cancellation: playback position is discarded, not faded out.
func (p *Player) StopAll() {
	if p.initErr != nil {
		return
	}
	speaker.Clear()
}

func (p *Player) playTone(volume int) {
	tone, err := generators.SinTone(sampleRate, beepFreq)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Tone generator failed")
		return
	}
	speaker.Play(withVolume(beep.Take(sampleRate.N(beepDuration), tone), volume))
}

func (p *Player) fetchAndDecode(entry models.Sound) (beep.StreamSeekCloser, beep.Format, error) {
	target := entry.URL
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = strings.TrimSuffix(p.baseURL(), "/") + "/" + strings.TrimPrefix(target, "/")
	}

	resp, err := p.client.Get(target)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("fetching sound: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, beep.Format{}, fmt.Errorf("fetching sound: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("reading sound body: %w", err)
	}
	body := io.NopCloser(bytes.NewReader(data))

	switch soundExt(target) {
	case ".wav":
		return wav.Decode(body)
	case ".mp3":
		return mp3.Decode(body)
	case ".ogg":
		return vorbis.Decode(body)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported sound format %q", soundExt(target))
	}
}

// soundExt picks the decoder extension from the URL path, ignoring any
// query string a signed media URL may carry.
func soundExt(target string) string {
	if u, err := url.Parse(target); err == nil {
		return strings.ToLower(path.Ext(u.Path))
	}
	return strings.ToLower(path.Ext(target))
}

// withVolume scales a streamer to volume/100 linear gain.
func withVolume(s beep.Streamer, volume int) beep.Streamer {
	gain := float64(volume) / 100
	if gain >= 1 {
		return s
	}
	return &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   math.Log2(gain),
	}
}
