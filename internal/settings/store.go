package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"alert-desk/internal/models"
	"alert-desk/pkg/validator"

	"github.com/rs/zerolog"
)

// namespace is the fixed directory under the user config dir holding the
// single settings blob.
const (
	namespace = "alert-desk"
	blobName  = "settings.json"
)

// RemoteAPI is the backend settings surface the store syncs against.
type RemoteAPI interface {
	FetchSettings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, s models.Settings) error
}

// Store owns the user settings. Reads are cheap and frequent; writes go
// through Update, which replaces all fields together. A partial merge is
// never performed, so dependent components cannot observe a half-updated
// object.
type Store struct {
	mu      sync.RWMutex
	current models.Settings
	path    string
	api     RemoteAPI
	logger  zerolog.Logger
}

// DefaultPath returns the settings blob location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config dir: %w", err)
	}
	return filepath.Join(dir, namespace, blobName), nil
}

func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{
		current: models.DefaultSettings(),
		path:    path,
		logger:  logger.With().Str("component", "settings").Logger(),
	}
}

// AttachRemote wires the backend sync point. The store works local-only
// until a remote is attached.
func (s *Store) AttachRemote(api RemoteAPI) {
	s.api = api
}

// Load hydrates from the local blob. A missing or corrupt blob silently
// falls back to the built-in defaults.
func (s *Store) Load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Debug().Err(err).Msg("No local settings, using defaults")
		return
	}
	var loaded models.Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Warn().Err(err).Msg("Corrupt local settings, using defaults")
		return
	}
	if err := validator.Struct(loaded); err != nil {
		s.logger.Warn().Err(err).Msg("Invalid local settings, using defaults")
		return
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
}

// Current returns the settings snapshot.
func (s *Store) Current() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// ServerURL returns the configured backend base URL.
func (s *Store) ServerURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.ServerURL
}

// FetchRemote pulls the settings object from the backend, adopts it and
// persists it locally. The local blob write is best-effort; the fetched
// settings take effect regardless.
func (s *Store) FetchRemote(ctx context.Context) (models.Settings, error) {
	if s.api == nil {
		return models.Settings{}, fmt.Errorf("no remote settings endpoint attached")
	}
	remote, err := s.api.FetchSettings(ctx)
	if err != nil {
		return models.Settings{}, fmt.Errorf("fetching remote settings: %w", err)
	}
	if err := validator.Struct(remote); err != nil {
		return models.Settings{}, fmt.Errorf("remote settings invalid: %w", err)
	}

	s.mu.Lock()
	s.current = remote
	s.mu.Unlock()

	if err := s.persist(remote); err != nil {
		s.logger.Warn().Err(err).Msg("Could not persist fetched settings")
	}
	return remote, nil
}

// Update validates next, pushes it to the backend and persists it locally.
// The update is atomic from the caller's perspective: on any failure the
// previous settings stay in effect, locally and in memory.
func (s *Store) Update(ctx context.Context, next models.Settings) error {
	if err := validator.Struct(next); err != nil {
		return fmt.Errorf("validating settings: %w", err)
	}
	if s.api == nil {
		return fmt.Errorf("no remote settings endpoint attached")
	}
	if err := s.api.UpdateSettings(ctx, next); err != nil {
		return err
	}
	if err := s.persist(next); err != nil {
		return fmt.Errorf("persisting settings: %w", err)
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.logger.Info().Msg("Settings updated")
	return nil
}

// persist writes the blob with a temp-file rename so a crash mid-write
// never leaves a torn file behind.
func (s *Store) persist(v models.Settings) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing settings: %w", err)
	}
	return nil
}
