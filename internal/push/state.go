package push

import (
	"errors"
	"fmt"
	"regexp"
)

// State is the notification permission of one admin browser.
type State string

const (
	StateUnsupported State = "unsupported"
	StateDefault     State = "default"
	StateRequesting  State = "requesting"
	StateGranted     State = "granted"
	StateDenied      State = "denied"
)

var ErrInvalidTransition = errors.New("invalid push permission transition")

var ErrInvalidToken = errors.New("invalid push token")

// transitions lists every state reachable from a given state. Repeating a
// settled state is allowed so re-registration stays idempotent; a prompt can
// only start from default.
var transitions = map[State][]State{
	StateUnsupported: {StateUnsupported, StateDefault, StateGranted, StateDenied},
	StateDefault:     {StateDefault, StateRequesting, StateGranted, StateDenied, StateUnsupported},
	StateRequesting:  {StateGranted, StateDenied, StateDefault},
	StateGranted:     {StateGranted, StateDefault, StateDenied, StateUnsupported},
	StateDenied:      {StateDenied, StateDefault, StateGranted, StateUnsupported},
}

func ParseState(s string) (State, error) {
	st := State(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("unknown permission %q", s)
	}
	return st, nil
}

func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Stores reports whether a token may be kept active in this state.
func (s State) Stores() bool {
	return s == StateGranted
}

const (
	minTokenLen = 32
	maxTokenLen = 4096
)

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9_:\-]+$`)

// ValidToken rejects obviously fabricated or empty registration tokens.
func ValidToken(token string) bool {
	if len(token) < minTokenLen || len(token) > maxTokenLen {
		return false
	}
	return tokenPattern.MatchString(token)
}

// Transition checks a permission change reported by one browser. It returns
// next, or ErrInvalidTransition when the table does not allow the move.
func Transition(from, next State) (State, error) {
	if !from.CanTransitionTo(next) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, next)
	}
	return next, nil
}
