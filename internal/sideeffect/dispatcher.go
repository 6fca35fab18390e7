package sideeffect

import (
	"alert-desk/internal/engine"
	"alert-desk/internal/models"
	"alert-desk/internal/notify"

	"github.com/rs/zerolog"
)

// SoundPlayer is the playback surface the dispatcher needs.
type SoundPlayer interface {
	Play(name string, volume int)
	StopAll()
}

// SettingsSource yields the current user settings.
type SettingsSource interface {
	Current() models.Settings
}

// Dispatcher turns reconciliation transitions into sounds and desktop
// notifications. Sounds and notifications are orthogonal toggles: only
// notifications are gated by ShowNotifications.
type Dispatcher struct {
	player   SoundPlayer
	notifier notify.Notifier
	settings SettingsSource
	logger   zerolog.Logger
}

func NewDispatcher(player SoundPlayer, notifier notify.Notifier, settings SettingsSource, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		player:   player,
		notifier: notifier,
		settings: settings,
		logger:   logger.With().Str("component", "sideeffect").Logger(),
	}
}

// HandleEvent reacts to one engine transition. Arrived plays the alert
// sound and raises a notification; Resolved plays the resolved sound;
// Updated is deliberately silent so repeated firing updates do not spam the
// user.
func (d *Dispatcher) HandleEvent(ev engine.Event) {
	s := d.settings.Current()
	switch ev.Kind {
	case engine.Arrived:
		d.player.Play(s.AlertSound, s.Volume)
		if s.ShowNotifications {
			d.notifyArrival(ev.Alert)
		}
	case engine.Resolved:
		d.player.Play(s.ResolvedSound, s.Volume)
	case engine.Updated:
	}
}

// StopAll halts every in-flight playback.
func (d *Dispatcher) StopAll() {
	d.player.StopAll()
}

func (d *Dispatcher) notifyArrival(a models.Alert) {
	switch d.notifier.Permission() {
	case notify.PermissionUndetermined:
		// Fire-and-forget; this particular alert is not retried.
		d.notifier.Request()
	case notify.PermissionGranted:
		d.notifier.Notify(a.Name, a.Instance)
	case notify.PermissionDenied:
	}
}
