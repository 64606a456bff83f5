package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetwatch/fleet-client/models"
)

func newVehiclesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "Manage vehicles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List vehicles",
		RunE: func(cmd *cobra.Command, args []string) error {
			vehicles, err := a.rest.FetchVehicles(cmd.Context())
			if err != nil {
				return err
			}
			for _, v := range vehicles {
				fmt.Fprintln(cmd.OutOrStdout(), v.VehicleNumber)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <vehicleNumber>",
		Short: "Register a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.rest.AddVehicle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	})
	return cmd
}

func newDriversCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drivers",
		Short: "Manage drivers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List drivers",
		RunE: func(cmd *cobra.Command, args []string) error {
			drivers, err := a.rest.FetchDrivers(cmd.Context())
			if err != nil {
				return err
			}
			for _, d := range drivers {
				fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> %s\n", d.Name, d.Email, d.MobileNumber)
			}
			return nil
		},
	})

	var add models.AddDriverRequest
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register a driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.rest.AddDriver(cmd.Context(), add)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	addCmd.Flags().StringVar(&add.Name, "name", "", "driver name")
	addCmd.Flags().StringVar(&add.MobileNumber, "mobile", "", "driver mobile number")
	addCmd.Flags().StringVar(&add.Email, "email", "", "driver email")
	addCmd.MarkFlagRequired("name")
	addCmd.MarkFlagRequired("email")
	cmd.AddCommand(addCmd)
	return cmd
}

func newRoutesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Manage routes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			routes, err := a.rest.FetchRoutes(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range routes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s - %s  (%s, %s)\n",
					r.VehicleNumber, r.FromLocation, r.ToLocation, r.DriverName, r.Status)
			}
			return nil
		},
	})

	var create models.CreateRouteRequest
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a route",
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.rest.CreateRoute(cmd.Context(), create)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	createCmd.Flags().StringVar(&create.DriverName, "driver", "", "driver name")
	createCmd.Flags().StringVar(&create.VehicleNumber, "vehicle", "", "vehicle number")
	createCmd.Flags().StringVar(&create.FromLocation, "from", "", "origin")
	createCmd.Flags().StringVar(&create.ToLocation, "to", "", "destination")
	createCmd.Flags().StringVar(&create.Date, "date", "", "route date")
	createCmd.MarkFlagRequired("vehicle")
	cmd.AddCommand(createCmd)
	return cmd
}
