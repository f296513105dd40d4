// Package cmd wires the bhv command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bhv-platform/bhv-go/internal/conf"
	"github.com/bhv-platform/bhv-go/internal/logger"
)

// Version is set at build time.
var Version = "dev"

// options is shared by every subcommand.
type options struct {
	configFile string
	settings   *conf.Settings
	log        logger.Logger
}

// RootCommand builds the bhv command tree.
func RootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "bhv",
		Short:         "BHV facility safety alerting service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := conf.Load(opts.configFile)
			if err != nil {
				return err
			}
			opts.settings = settings
			opts.log = logger.NewSlogLogger(os.Stderr, logger.ParseLevel(settings.Main.LogLevel), settings.Location())
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (yaml)")

	root.AddCommand(
		serveCommand(opts),
		rolesCommand(),
		seedCommand(opts),
	)
	return root
}
