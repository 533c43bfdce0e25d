// Package permissions resolves the microphone and speech recognition
// authorizations a tray session needs before it can download models and
// listen.
package permissions

import (
	"context"
	"errors"
	"sync"
)

// Status is the authorization state reported by a platform authorizer.
type Status int

const (
	StatusUndetermined Status = iota
	StatusGranted
	StatusDenied
	StatusRestricted
)

func (s Status) String() string {
	switch s {
	case StatusGranted:
		return "granted"
	case StatusDenied:
		return "denied"
	case StatusRestricted:
		return "restricted"
	default:
		return "undetermined"
	}
}

var (
	ErrDeniedMicrophone = errors.New("microphone permission denied")
	ErrDeniedSpeech     = errors.New("speech recognition permission denied")
	ErrDeniedBoth       = errors.New("microphone and speech recognition permissions denied")
)

// Authorizer exposes a single platform permission.
//
// RequestAuthorization is only called while the status is undetermined and
// may block on a user dialog.
type Authorizer interface {
	AuthorizationStatus() Status
	RequestAuthorization(ctx context.Context) (bool, error)
}

// Outcome is the combined result of both permission requests.
type Outcome struct {
	Microphone bool
	Speech     bool
}

// Granted reports whether both permissions were granted.
func (o Outcome) Granted() bool {
	return o.Microphone && o.Speech
}

// Err maps a denial to its sentinel error, nil when both were granted.
func (o Outcome) Err() error {
	switch {
	case o.Microphone && o.Speech:
		return nil
	case !o.Microphone && !o.Speech:
		return ErrDeniedBoth
	case !o.Microphone:
		return ErrDeniedMicrophone
	default:
		return ErrDeniedSpeech
	}
}

type Gate struct {
	microphone Authorizer
	speech     Authorizer
}

func NewGate(microphone, speech Authorizer) *Gate {
	return &Gate{microphone: microphone, speech: speech}
}

// Request resolves both permissions concurrently and returns once both are
// known. A nil authorizer counts as granted.
func (g *Gate) Request(ctx context.Context) Outcome {
	var (
		wg      sync.WaitGroup
		outcome Outcome
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		outcome.Microphone = resolve(ctx, g.microphone)
	}()
	go func() {
		defer wg.Done()
		outcome.Speech = resolve(ctx, g.speech)
	}()
	wg.Wait()

	return outcome
}

func resolve(ctx context.Context, authorizer Authorizer) (granted bool) {
	if authorizer == nil {
		return true
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("permission authorizer panicked", "panic", recovered)
			granted = false
		}
	}()

	switch status := authorizer.AuthorizationStatus(); status {
	case StatusGranted:
		return true
	case StatusDenied, StatusRestricted:
		logger.Debug("permission unavailable", "status", status.String())
		return false
	}

	if ctx.Err() != nil {
		return false
	}

	granted, err := authorizer.RequestAuthorization(ctx)
	if err != nil {
		logger.Warn("permission request failed", "error", err)
		return false
	}
	return granted
}
