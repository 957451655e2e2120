package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tolkbridge/dispatch/internal/constants"
	"github.com/tolkbridge/dispatch/internal/db/models"
	"github.com/tolkbridge/dispatch/internal/types"
	"github.com/tolkbridge/dispatch/pkg/api/v1/client"
)

// flag names
const (
	flagActorID       = "actor-id"
	flagActorRole     = "actor-role"
	flagServerAddress = "server-address"
)

var (
	// apiClient is the shared API client instance
	apiClient client.Client
	// serverAddress holds the target API server address. Flag parsing sets this.
	serverAddress string
	// actorID and actorRole identify the calling user on every request
	actorID   uint
	actorRole string
)

// initClient initializes the API client
func initClient() error {
	role, err := models.ParseUserRole(actorRole)
	if err != nil {
		return err
	}

	opts := client.DefaultOptions()
	opts.BaseURL = serverAddress
	opts.Actor = types.Actor{ID: actorID, Role: role}

	apiClient, err = client.NewClient(opts)
	return err
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", client.DefaultBaseURL,
		"Address of the booking API server (env: DISPATCH_SERVER_ADDRESS)")
	RootCmd.PersistentFlags().UintVarP(&actorID, flagActorID, "a", 0, "Acting user ID")
	RootCmd.PersistentFlags().StringVarP(&actorRole, flagActorRole, "r", "customer",
		"Acting user role (customer, translator, admin, superadmin)")

	RootCmd.AddCommand(bookingsCmd)
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Dispatch CLI - a command line interface for the booking API",
	Long:  `Dispatch CLI manages translation bookings through the booking API: create, offer, accept, cancel and inspect jobs.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed(flagServerAddress) {
			return initClient()
		}
		if addr := os.Getenv(constants.EnvServerAddress); addr != "" {
			serverAddress = addr
		}
		return initClient()
	},
}

// Execute runs the root command
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
