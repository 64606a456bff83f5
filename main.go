package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/fleetwatch/fleet-client/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		zap.S().Errorw("fleet-client exited with error",
			"error", err,
		)
		os.Exit(1)
	}
}
