package notices

import (
	"sync"
	"time"

	"alert-desk/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Feed is a bounded buffer of transient user notices, mostly failed
// administrative calls. Notices are dismissable and never fatal.
type Feed struct {
	mu     sync.Mutex
	items  []models.Notice
	max    int
	logger zerolog.Logger
}

func NewFeed(max int, logger zerolog.Logger) *Feed {
	if max <= 0 {
		max = 50
	}
	return &Feed{
		max:    max,
		logger: logger.With().Str("component", "notices").Logger(),
	}
}

// Add appends a notice, evicting the oldest entries past the buffer bound.
func (f *Feed) Add(level, message string) models.Notice {
	n := models.Notice{
		ID:        uuid.New(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	}

	f.mu.Lock()
	f.items = append(f.items, n)
	if len(f.items) > f.max {
		f.items = f.items[len(f.items)-f.max:]
	}
	f.mu.Unlock()

	f.logger.Info().Str("level", level).Str("message", message).Msg("Notice added")
	return n
}

// Error records an error-level notice.
func (f *Feed) Error(message string) models.Notice {
	return f.Add(models.NoticeError, message)
}

// List returns notices newest first.
func (f *Feed) List() []models.Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Notice, 0, len(f.items))
	for i := len(f.items) - 1; i >= 0; i-- {
		out = append(out, f.items[i])
	}
	return out
}

// Dismiss removes one notice by id.
func (f *Feed) Dismiss(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.items {
		if n.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return true
		}
	}
	return false
}
