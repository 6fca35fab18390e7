package notify

import (
	"sync"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

// Permission is the desktop notification permission state.
type Permission int

const (
	PermissionUndetermined Permission = iota
	PermissionGranted
	PermissionDenied
)

// Notifier raises desktop notifications. Implementations track a permission
// state; a denied permission degrades the client to sound-only alerting.
type Notifier interface {
	Permission() Permission
	// Request asks for permission asynchronously. It never blocks and the
	// caller does not wait for or retry the triggering alert.
	Request()
	Notify(title, body string)
}

const appName = "Alert Desk"

// Desktop raises notifications through the platform notification service.
// Permission starts undetermined; the first delivery attempt settles it.
type Desktop struct {
	mu     sync.Mutex
	perm   Permission
	logger zerolog.Logger
}

func NewDesktop(logger zerolog.Logger) *Desktop {
	return &Desktop{logger: logger.With().Str("component", "notify").Logger()}
}

func (d *Desktop) Permission() Permission {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.perm
}

func (d *Desktop) Request() {
	go func() {
		err := beeep.Notify(appName, "Desktop notifications enabled", "")
		d.mu.Lock()
		if err != nil {
			d.perm = PermissionDenied
		} else {
			d.perm = PermissionGranted
		}
		d.mu.Unlock()
		if err != nil {
			d.logger.Debug().Err(err).Msg("Notification permission denied")
		}
	}()
}

func (d *Desktop) Notify(title, body string) {
	if err := beeep.Notify(title, body, ""); err != nil {
		d.mu.Lock()
		d.perm = PermissionDenied
		d.mu.Unlock()
		d.logger.Debug().Err(err).Msg("Notification delivery failed")
	}
}
