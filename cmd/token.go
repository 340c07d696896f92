package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/mplusd/internal/shared"
	"github.com/urfave/cli/v3"
)

// Token fetches a fresh access token with the configured client credentials.
func (r *Runner) Token(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := r.loadEnv(config); err != nil {
		return err
	}

	tokens := r.newTokenManager(config, nil)
	if !tokens.HasCredentials() {
		return fmt.Errorf("%w: set the client ID and secret in the environment or in %s", shared.ErrConfiguration, config.Env.File)
	}

	tok, err := tokens.Refresh(ctx)
	if err != nil {
		return err
	}

	if err := r.writePlain("✓ Access token obtained from %s\n", config.Blizzard.TokenURL); err != nil {
		return err
	}
	if err := r.writePlain("Expires at %s (in %s)\n", tok.ExpiresAt.Format(time.RFC3339), time.Until(tok.ExpiresAt).Round(time.Second)); err != nil {
		return err
	}
	if cmd.Bool("show") {
		return r.writePlain("%s\n", tok.AccessToken)
	}
	return nil
}
