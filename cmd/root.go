package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/tonebarrier/cmd/devices"
	"github.com/tphakala/tonebarrier/cmd/play"
	"github.com/tphakala/tonebarrier/cmd/render"
	settingscmd "github.com/tphakala/tonebarrier/cmd/settings"
	"github.com/tphakala/tonebarrier/internal/conf"
	"github.com/tphakala/tonebarrier/internal/logger"
	"github.com/tphakala/tonebarrier/internal/telemetry"
)

// RootCommand creates and returns the root command. Without a subcommand it plays the tone.
func RootCommand(settings *conf.Settings) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:          "tonebarrier",
		Short:        "Continuous tone player",
		Long:         "Plays a continuous sine tone with play/pause control over HTTP and MQTT.",
		SilenceUsage: true,
		Version:      settings.Version,
	}

	// Set up the global flags for the root command.
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default searches the standard locations)")
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", false, "Enable debug output")

	playCmd := play.Command(settings)
	rootCmd.AddCommand(
		playCmd,
		devices.Command(settings),
		render.Command(settings),
		settingscmd.Command(settings),
	)

	rootCmd.Flags().AddFlagSet(playCmd.Flags())
	rootCmd.Annotations = playCmd.Annotations
	rootCmd.RunE = playCmd.RunE

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			viper.SetConfigFile(configFile)
		}
		if err := bindFlags(cmd); err != nil {
			return err
		}
		return initialize(settings)
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return logger.Global().Close()
	}

	return rootCmd
}

// bindFlags binds the flags of the running command to the viper keys named in
// its annotations, so command line values take precedence over the config file.
func bindFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlag("debug", cmd.Flags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding flag debug: %w", err)
	}
	for name, key := range cmd.Annotations {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

// initialize loads the settings into place and sets up logging and error
// reporting. Version and build date are kept from the binary.
func initialize(settings *conf.Settings) error {
	loaded, err := conf.Load()
	if err != nil {
		return err
	}

	version, buildDate := settings.Version, settings.BuildDate
	*settings = *loaded
	settings.Version, settings.BuildDate = version, buildDate

	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}
	centralLogger, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetGlobal(centralLogger)

	if err := telemetry.InitSentry(settings); err != nil {
		logger.Global().Module("main").Warn("failed to initialize sentry", logger.Error(err))
	}
	return nil
}
