package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fleetwatch/fleet-client/monitor"
)

func newMonitorCommand(a *app) *cobra.Command {
	var endRoute bool

	cmd := &cobra.Command{
		Use:   "monitor <vehicleNumber>",
		Short: "Run the driver monitoring flow for a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			rt := a.realtimeClient()
			flow := monitor.NewFlow(rt)

			if err := flow.Start(ctx); err != nil {
				return err
			}
			if err := flow.SubmitVehicle(ctx, args[0]); err != nil {
				return fmt.Errorf("could not start monitoring: %w (%s)", err, flow.LastError())
			}
			if err := flow.OpenCamera(ctx); err != nil {
				return err
			}
			fmt.Fprintf(out, "monitoring %s, press ctrl-c to stop\n", args[0])

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			if endRoute {
				if err := flow.EndRoute(ctx); err != nil {
					return err
				}
			}
			return flow.Disconnect(ctx)
		},
	}
	cmd.Flags().BoolVar(&endRoute, "end-route", false, "signal end of route before disconnecting")
	return cmd
}
