package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mplusd/internal/shared"
	"github.com/urfave/cli/v3"
)

// Init writes the example configuration to the --config path.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	r.logger.Info("config file created", "path", path)
	if err := r.writePlain("✓ Wrote %s\n", path); err != nil {
		return err
	}
	return r.writePlain("Client credentials are read from the environment, not from this file.\n")
}
