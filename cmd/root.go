package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/rKV/cmd/entities"
	"github.com/ValentinKolb/rKV/cmd/kv"
	"github.com/ValentinKolb/rKV/cmd/stats"
	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/cmd/watch"
	"github.com/ValentinKolb/rKV/lib/fault"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "rkv",
		Short: "persistent reactive key-value store",
		Long: fmt.Sprintf(`rKV (v%s)

A persistent, namespaced key-value store with reactive values that follow
changes made by other processes sharing the same storage medium.`, Version),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rKV v%s\n", Version)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(entities.EntityCommands)
	RootCmd.AddCommand(watch.WatchCmd)
	RootCmd.AddCommand(stats.StatsCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupOutputFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
// Errors are shown to the user through the default fault boundary.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fault.Default().NotifyUser(err, "", false)
		os.Exit(1)
	}
}
