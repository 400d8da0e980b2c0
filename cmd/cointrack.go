package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cointrack/pkg/app"
	utils "cointrack/utilities"
)

const banner = `
              _       _                  _
   ___  ___  (_)___  | |_ _ __ __ _  ___| | __
  / __|/ _ \ | | '_ \| __| '__/ _' |/ __| |/ /
 | (__| (_) || | | | | |_| | | (_| | (__|   <
  \___|\___/ |_|_| |_|\__|_|  \__,_|\___|_|\_\

        market data, favorites and charts
[]============================================[]
`

var (
	cfgFile string
	cfg     utils.AppConfig
	logger  *utils.Logger
)

// rootCmd represents the base command for the cointrack CLI.
var rootCmd = &cobra.Command{
	Use:   "cointrack",
	Short: "cointrack cryptocurrency tracker",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config
		viper.SetConfigFile(cfgFile)
		viper.SetConfigType("json")
		viper.AutomaticEnv()
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}

		// Initialize logger
		level, err := utils.ParseLogLevel(cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		logger = utils.NewLogger(level)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print(banner, "\n")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigChan
			logger.LogWarn("Received signal: %v, initiating graceful shutdown.", sig)
			cancel()
		}()

		return app.Run(ctx, &cfg, logger)
	},
}

// Execute runs the root command.
func Execute() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config/config.json", "config file (default is config/config.json)")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
