package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a client fault. No fault in this client is process-fatal;
// the kind decides how a failure is surfaced.
type Kind int

const (
	// KindTransport is a transient transport fault, recovered by bounded
	// automatic retry.
	KindTransport Kind = iota
	// KindProtocol is a malformed or unrecognized inbound frame, logged
	// and dropped.
	KindProtocol
	// KindAdminCall is a failed administrative request, surfaced as a
	// dismissable user notice.
	KindAdminCall
	// KindNotFound is a missing resource.
	KindNotFound
	// KindInvalid is a rejected user input.
	KindInvalid
)

// Fault is a classified client error.
type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func New(kind Kind, message string) *Fault {
	return &Fault{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Fault {
	return &Fault{Kind: kind, Message: message, Err: err}
}

// KindOf returns the classification of err, looking through fmt.Errorf
// wrapping. Unclassified errors default to KindAdminCall: administrative
// calls are the only surface that hands raw errors to the user.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindAdminCall
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
