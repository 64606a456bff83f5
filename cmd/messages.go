package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fleetwatch/fleet-client/feed"
	"github.com/fleetwatch/fleet-client/realtime"
)

func newMessagesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "messages <vehicleNumber>",
		Short: "Tail a vehicle's message feed (polled history + realtime)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vehicleNumber := args[0]
			out := cmd.OutOrStdout()

			f := feed.New(vehicleNumber)
			poller := feed.NewPoller(f, a.rest.FetchMessages, a.cfg.PollInterval)
			if err := poller.Start(); err != nil {
				return err
			}
			defer poller.Stop()

			rt := a.realtimeClient()
			if err := rt.JoinRoom(vehicleNumber); err != nil {
				return err
			}
			defer rt.Disconnect()

			if errMsg := f.Err(); errMsg != "" {
				fmt.Fprintf(out, "fetch failed: %s\n", errMsg)
			}
			for _, line := range f.Lines() {
				fmt.Fprintln(out, line)
			}

			done := make(chan struct{})
			go f.Run(done, rt.Events(), func(ev realtime.Event) {
				if !ev.Confirmed {
					fmt.Fprintf(out, "%s: %s\n", ev.Provenance, ev.Message.Text)
				}
			})

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			close(done)
			return nil
		},
	}
}

func newSendCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send <vehicleNumber> <message>",
		Short: "Send a message into a vehicle's channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := a.realtimeClient()
			if err := rt.JoinRoom(args[0]); err != nil {
				return err
			}
			defer rt.Disconnect()

			if err := rt.SendMessage(args[0], args[1]); err != nil {
				return err
			}
			// fire-and-forget: the optimistic echo is the only confirmation
			fmt.Fprintf(cmd.OutOrStdout(), "You: %s\n", args[1])
			return nil
		},
	}
}
