package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bobmcallan/finboard/internal/app"
)

// loadApp builds the application core for a command. Tests replace it.
var loadApp = app.NewApp

// newRootCmd assembles the command tree. Flags may also be set through
// FINBOARD_* environment variables, e.g. FINBOARD_MIN_CAP=1000.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("FINBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "finboard",
		Short:         "Vietnamese equity price charts and earnings growth summaries",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "config file (default finboard.toml beside the binary, then config/finboard.toml)")
	cobra.CheckErr(v.BindPFlag("config", root.PersistentFlags().Lookup("config")))

	root.AddCommand(
		newSummaryCmd(v),
		newPricesCmd(v),
		newVersionCmd(),
	)
	return root
}

// openApp loads the app from the --config flag or FINBOARD_CONFIG.
func openApp(v *viper.Viper) (*app.App, error) {
	return loadApp(v.GetString("config"))
}

// bindFlags binds every local flag of cmd to v under its own name.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		cobra.CheckErr(v.BindPFlag(f.Name, f))
	})
}
