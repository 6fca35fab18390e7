package protocol

import (
	"encoding/json"
	"fmt"

	"alert-desk/internal/models"
)

// Inbound frame tags recognized by the codec.
const (
	TypeConnection = "connection"
	TypeStatus     = "status"
	TypeAlert      = "alert"
	TypeAlertsList = "alerts_list"
	TypeSoundsList = "sounds_list"
	TypeBridge     = "bridge.message"
)

// Message is one decoded inbound frame. The set of implementations is
// closed: ConnectionInfo, BridgeStatus, AlertEvent, AlertsSnapshot,
// SoundCatalog and Unknown.
type Message interface {
	message()
}

// ConnectionInfo is an informational greeting from the backend.
type ConnectionInfo struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// BridgeStatus reports whether the backend is itself connected to its
// upstream alert feed.
type BridgeStatus struct {
	ConnectedToBridge bool    `json:"connected_to_bridge"`
	Timestamp         float64 `json:"timestamp"`
}

// AlertEvent carries a single alert transition.
type AlertEvent struct {
	Alert models.Alert `json:"data"`
}

// AlertsSnapshot carries the full active alert set.
type AlertsSnapshot struct {
	Alerts []models.Alert `json:"alerts"`
}

// SoundCatalog carries the full sound catalog.
type SoundCatalog struct {
	Sounds []models.Sound `json:"sounds"`
}

// Unknown is the fallback for tags outside the taxonomy. It is logged and
// dropped by the dispatcher, never treated as fatal.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func (ConnectionInfo) message() {}
func (BridgeStatus) message()   {}
func (AlertEvent) message()     {}
func (AlertsSnapshot) message() {}
func (SoundCatalog) message()   {}
func (Unknown) message()        {}

type envelope struct {
	Type string `json:"type"`
}

type bridgeEnvelope struct {
	Message json.RawMessage `json:"message"`
}

// Decode parses a raw inbound frame into a typed Message. A structurally
// invalid frame yields an error; callers drop it with a diagnostic. Tags
// outside the taxonomy decode to Unknown. A bridge.message envelope is
// unwrapped one level; only an inner alert is meaningful.
func Decode(raw []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding frame envelope: %w", err)
	}

	switch env.Type {
	case TypeConnection:
		var m ConnectionInfo
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decoding connection frame: %w", err)
		}
		return m, nil
	case TypeStatus:
		var m BridgeStatus
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decoding status frame: %w", err)
		}
		return m, nil
	case TypeAlert:
		var m AlertEvent
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decoding alert frame: %w", err)
		}
		if m.Alert.ID == "" {
			return nil, fmt.Errorf("alert frame without id")
		}
		return m, nil
	case TypeAlertsList:
		var m AlertsSnapshot
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decoding alerts_list frame: %w", err)
		}
		return m, nil
	case TypeSoundsList:
		var m SoundCatalog
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decoding sounds_list frame: %w", err)
		}
		return m, nil
	case TypeBridge:
		var env bridgeEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decoding bridge envelope: %w", err)
		}
		if len(env.Message) == 0 {
			return nil, fmt.Errorf("bridge envelope without message")
		}
		inner, err := Decode(env.Message)
		if err != nil {
			return nil, fmt.Errorf("decoding bridge inner message: %w", err)
		}
		if m, ok := inner.(AlertEvent); ok {
			return m, nil
		}
		return Unknown{Type: TypeBridge, Raw: env.Message}, nil
	default:
		return Unknown{Type: env.Type, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}

// Outbound is a client-to-backend command frame.
type Outbound struct {
	Type    string `json:"type"`
	AlertID string `json:"alert_id,omitempty"`
}

// GetAlerts requests a full alert snapshot.
func GetAlerts() Outbound { return Outbound{Type: "get_alerts"} }

// GetSounds requests the sound catalog.
func GetSounds() Outbound { return Outbound{Type: "get_sounds"} }

// Ack acknowledges one alert over the persistent channel.
func Ack(alertID string) Outbound { return Outbound{Type: "ack", AlertID: alertID} }
