// Package stg implements the state transition relation of Boolean networks under
// synchronous, asynchronous and mixed update, random walks on it, and the
// explicit state transition graph for small networks.
package stg

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownUpdate = errors.New("unknown update mode")

// Update selects which unstable variables may change in one transition.
type Update int

const (
	// Synchronous updates every variable at once.
	Synchronous Update = iota
	// Asynchronous updates exactly one unstable variable.
	Asynchronous
	// Mixed updates any non-empty subset of the unstable variables.
	Mixed
)

// Updates lists every mode.
var Updates = []Update{Synchronous, Asynchronous, Mixed}

func (u Update) String() string {
	switch u {
	case Synchronous:
		return "synchronous"
	case Asynchronous:
		return "asynchronous"
	case Mixed:
		return "mixed"
	default:
		return fmt.Sprintf("Update(%d)", int(u))
	}
}

// ParseUpdate accepts the mode names and their short forms "sync" and "async".
func ParseUpdate(s string) (Update, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "synchronous", "sync":
		return Synchronous, nil
	case "asynchronous", "async":
		return Asynchronous, nil
	case "mixed":
		return Mixed, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownUpdate, s)
	}
}

// Validate rejects values outside the three modes.
func (u Update) Validate() error {
	switch u {
	case Synchronous, Asynchronous, Mixed:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownUpdate, int(u))
	}
}

func (u Update) MarshalText() ([]byte, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return []byte(u.String()), nil
}

func (u *Update) UnmarshalText(text []byte) error {
	parsed, err := ParseUpdate(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
