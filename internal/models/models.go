package models

import (
	"time"

	"github.com/google/uuid"
)

// Alert statuses as reported by the backend.
const (
	StatusFiring   = "firing"
	StatusResolved = "resolved"
)

// Alert severities, most severe first.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Alert is a backend-reported condition. ID is backend-assigned and is the
// sole identity key; at most one Alert per ID exists in the local set.
type Alert struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	Severity     string    `json:"severity"`
	Instance     string    `json:"instance"`
	Job          string    `json:"job,omitempty"`
	Description  string    `json:"description,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	StartsAt     time.Time `json:"starts_at"`
	GeneratorURL string    `json:"generator_url,omitempty"`
}

// Firing reports whether the alert is still active.
func (a Alert) Firing() bool {
	return a.Status == StatusFiring
}

// Sound is a playable audio cue from the backend catalog. Default sounds
// are not user-deletable.
type Sound struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	IsDefault bool   `json:"is_default"`
}

// Reserved sound names handled outside the catalog. They are not Sound
// entities and uploaded sounds must never collide with them.
const (
	SoundNone = "no sound"
	SoundBeep = "system beep"
)

// Settings holds the user-configurable parameters. The struct is always
// replaced as a whole; partial merges are not allowed.
type Settings struct {
	ServerURL         string `json:"bridge_server_url" validate:"required,url"`
	AlertSound        string `json:"alert_sound"`
	ResolvedSound     string `json:"resolved_sound"`
	Volume            int    `json:"notification_volume" validate:"min=0,max=100"`
	AutoConnect       bool   `json:"auto_connect"`
	ShowNotifications bool   `json:"show_notifications"`
}

// DefaultSettings are used when no local settings blob exists or it cannot
// be read.
func DefaultSettings() Settings {
	return Settings{
		ServerURL:         "http://localhost:8000",
		AlertSound:        SoundBeep,
		ResolvedSound:     SoundBeep,
		Volume:            70,
		AutoConnect:       true,
		ShowNotifications: true,
	}
}

// ConnectionState describes the transport channel. Connected is the
// channel's own link; BridgeConnected is whether the backend is relaying a
// live upstream feed. A client may be connected but not bridge-connected.
type ConnectionState struct {
	Connected         bool `json:"connected"`
	BridgeConnected   bool `json:"bridge_connected"`
	ReconnectAttempts int  `json:"reconnect_attempts"`
}

// Notice levels.
const (
	NoticeInfo  = "info"
	NoticeError = "error"
)

// Notice is a transient, dismissable message surfaced to the user, mostly
// for failed administrative calls.
type Notice struct {
	ID        uuid.UUID `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
