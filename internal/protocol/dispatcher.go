package protocol

import (
	"github.com/rs/zerolog"
)

// Handlers are the per-tag reactions wired by the application. A nil
// handler means the tag is ignored.
type Handlers struct {
	OnConnection func(ConnectionInfo)
	OnStatus     func(BridgeStatus)
	OnAlert      func(AlertEvent)
	OnSnapshot   func(AlertsSnapshot)
	OnSounds     func(SoundCatalog)
}

// Dispatcher decodes raw frames and routes them to handlers. Dispatch is
// synchronous: frames are applied strictly in the order they are handed in,
// because later frames carry authoritative state for the same alert id.
type Dispatcher struct {
	handlers Handlers
	logger   zerolog.Logger
}

func NewDispatcher(handlers Handlers, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: handlers,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch decodes and routes one frame. Malformed and unknown frames are
// logged and dropped; no frame is ever fatal.
func (d *Dispatcher) Dispatch(raw []byte) {
	msg, err := Decode(raw)
	if err != nil {
		d.logger.Warn().Err(err).Msg("Dropping malformed frame")
		return
	}

	switch m := msg.(type) {
	case ConnectionInfo:
		d.logger.Info().Str("status", m.Status).Str("message", m.Message).Msg("Backend connection message")
		if d.handlers.OnConnection != nil {
			d.handlers.OnConnection(m)
		}
	case BridgeStatus:
		if d.handlers.OnStatus != nil {
			d.handlers.OnStatus(m)
		}
	case AlertEvent:
		if d.handlers.OnAlert != nil {
			d.handlers.OnAlert(m)
		}
	case AlertsSnapshot:
		if d.handlers.OnSnapshot != nil {
			d.handlers.OnSnapshot(m)
		}
	case SoundCatalog:
		if d.handlers.OnSounds != nil {
			d.handlers.OnSounds(m)
		}
	case Unknown:
		d.logger.Warn().Str("type", m.Type).Msg("Dropping frame of unknown type")
	}
}
