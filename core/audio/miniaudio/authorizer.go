package miniaudio

import (
	"context"

	"github.com/koscakluka/ema-tray/core/permissions"
)

// MicrophoneAuthorizer reports the microphone as granted when a capture
// device could be opened.
type MicrophoneAuthorizer struct {
	client *Client
}

func (c *Client) MicrophoneAuthorizer() *MicrophoneAuthorizer {
	return &MicrophoneAuthorizer{client: c}
}

func (a *MicrophoneAuthorizer) AuthorizationStatus() permissions.Status {
	if a.client.captureClient.available() {
		return permissions.StatusGranted
	}
	return permissions.StatusUndetermined
}

// RequestAuthorization opens the capture device again. Platforms that guard
// the microphone show their dialog at this point.
func (a *MicrophoneAuthorizer) RequestAuthorization(context.Context) (bool, error) {
	if err := a.client.captureClient.retry(); err != nil {
		logger.Warn("microphone unavailable", "error", err)
		return false, nil
	}
	return true, nil
}
