package main

import (
	"github.com/OpenRadar/awacs/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configDir string
	// configErr is reported once logging is up; a missing file is not fatal.
	configErr error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "awacs",
	Short: "Text AWACS controller for Tacview realtime telemetry",
	Long: `awacs follows a Tacview realtime telemetry feed, keeps a picture of
every air contact, calls merges, missile launches and pushes on its own,
and answers brevity radio requests (PICTURE, BOGEY DOPE, SNAP, DECLARE,
VECTOR, ALPHA CHECK, CAP and PUSH planning).`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configDir, "config-dir", ".", "directory containing "+config.FileName)
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("logs-dir", "./awacslogs", "directory for log files")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads the config file and AWACS_* environment variables.
func initConfig() {
	bindFlags()
	configErr = config.Load(configDir)
}

// bindFlags maps command-line overrides onto config keys.
func bindFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("logLevel", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logsDir", flags.Lookup("logs-dir"))
	_ = viper.BindPFlag("http.listen", serveCmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("tacview.autoConnect", serveCmd.Flags().Lookup("connect"))
}
