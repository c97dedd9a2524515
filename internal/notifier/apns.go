package notifier

import (
	"fmt"
	"log"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/token"
)

type APNsOptions struct {
	AuthKeyPath string
	KeyID       string
	TeamID      string
	Production  bool
}

func (o APNsOptions) configured() bool {
	return o.AuthKeyPath != "" && o.AuthKeyPath[0] != '#' && o.KeyID != "" && o.TeamID != ""
}

// NewAPNsClient returns a token-based APNs client, or nil without credentials
// so the worker runs in mock mode.
func NewAPNsClient(opts APNsOptions) (*apns2.Client, error) {
	if !opts.configured() {
		log.Println("APNs credentials not found or invalid. Notifier will run in MOCK mode.")
		return nil, nil
	}

	log.Println("APNs credentials found, initializing APNs client...")
	authKey, err := token.AuthKeyFromFile(opts.AuthKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read APNs auth key: %w", err)
	}

	authToken := &token.Token{
		AuthKey: authKey,
		KeyID:   opts.KeyID,
		TeamID:  opts.TeamID,
	}

	if opts.Production {
		return apns2.NewTokenClient(authToken).Production(), nil
	}
	return apns2.NewTokenClient(authToken).Development(), nil
}
