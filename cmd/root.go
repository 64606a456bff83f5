// Package cmd wires the CLI surface over the client packages: login, the
// logistics views (vehicles, drivers, routes, messages) and the driver
// monitoring flow.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fleetwatch/fleet-client/config"
	"github.com/fleetwatch/fleet-client/realtime"
	"github.com/fleetwatch/fleet-client/rest"
	"github.com/fleetwatch/fleet-client/session"
)

type app struct {
	cfg   *config.Config
	store *session.FileStore
	rest  *rest.Client
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.cfg = config.New()
	if a.cfg.BaseURL == "" {
		return fmt.Errorf("FLEET_BASE_URL is not set")
	}
	store, err := session.NewFileStore(a.cfg.SessionFile)
	if err != nil {
		return err
	}
	a.store = store
	a.rest = rest.New(a.cfg.BaseURL, a.cfg.HTTPTimeout, store)
	return nil
}

// wsURL derives the realtime endpoint from the REST base URL; one origin
// serves both.
func (a *app) wsURL() string {
	url := a.cfg.BaseURL
	url = strings.Replace(url, "https://", "wss://", 1)
	url = strings.Replace(url, "http://", "ws://", 1)
	return url + "/socket"
}

func (a *app) realtimeClient() *realtime.Client {
	return realtime.New(realtime.Options{
		URL:     a.wsURL(),
		Session: a.store,
		Reconnect: realtime.ReconnectPolicy{
			MaxAttempts: 5,
		},
	})
}

// NewRootCommand builds the CLI
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:               "fleet-client",
		Short:             "Client for the fleet monitoring backend",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.AddCommand(
		newLoginCommand(a),
		newMonitorCommand(a),
		newMessagesCommand(a),
		newSendCommand(a),
		newVehiclesCommand(a),
		newDriversCommand(a),
		newRoutesCommand(a),
		newProfileCommand(a),
	)
	return root
}

// Execute runs the CLI
func Execute() error {
	return NewRootCommand().Execute()
}
