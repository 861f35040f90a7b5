// Package speech defines the speech engine collaborator driven by the playback controller.
// Concrete engines live in the engines subpackage.
package speech

import (
	"fmt"
	"strings"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("invalid gender %q, want male or female", s)
	}
	return g, nil
}

type Voice struct {
	Name        string
	LanguageTag string
	// Gender is set when the engine knows it from metadata rather than the name.
	Gender Gender
}

func (v Voice) String() string {
	if v.Gender != "" {
		return fmt.Sprintf("%s (%s, %s)", v.Name, v.LanguageTag, v.Gender)
	}
	return fmt.Sprintf("%s (%s)", v.Name, v.LanguageTag)
}

// Request is one utterance. ID is assigned by the caller and only used to
// correlate callbacks and logs.
type Request struct {
	ID       uint64
	Text     string
	Language string
	Volume   float64
	Rate     float64
	Gender   Gender
}

// Callbacks receive the outcome of a Request. Exactly one of OnEnd or OnError is
// called per request; OnEnd also reports cancellation. OnStart precedes it
// unless the request was cancelled or failed before audio began.
// Callbacks run on engine goroutines.
type Callbacks struct {
	OnStart func()
	OnEnd   func()
	OnError func(err error)
}

// Engine is the speech engine collaborator. At most one request is active;
// Speak supersedes whatever was playing.
type Engine interface {
	Name() string

	Speak(request Request, callbacks Callbacks)

	// CancelActive stops the active request, if any.
	CancelActive()

	// Voices returns the voices known so far. The list may be empty until the engine warms up.
	Voices() []Voice

	// OnVoicesChanged registers fn to be called whenever the voice list is replaced.
	OnVoicesChanged(fn func())

	Close() error
}
