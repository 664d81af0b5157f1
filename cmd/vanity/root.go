package main

import (
	"fmt"
	"os"

	"github.com/aretw0/vanity"
	"github.com/aretw0/vanity/internal/logging"
	"github.com/aretw0/vanity/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "vanity",
	Short:         "Vanity manages experiment and metric definitions",
	Long:          `Vanity loads experiments and metrics from definition files and records observations in the configured store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", "", "Directory containing the definition files (default $VANITY_LOAD_PATH or ./experiments)")
	rootCmd.PersistentFlags().String("config", "", "Directory containing vanity.yml and redis.yml (default $VANITY_CONFIG_DIR or ./config)")
	rootCmd.PersistentFlags().String("env", "", "Deployment environment (default $VANITY_ENV, $RACK_ENV, $RAILS_ENV or development)")
	rootCmd.PersistentFlags().String("connection", "", "Connection URI or adapter name, overriding the configuration files")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

// newPlayground builds a Playground from the environment and the persistent flags.
func newPlayground(cmd *cobra.Command, hooks ...domain.LifecycleHooks) (*vanity.Playground, error) {
	flags := cmd.Flags()
	var opts []vanity.Option

	if dir, _ := flags.GetString("dir"); dir != "" {
		opts = append(opts, vanity.WithLoadPath(dir))
	}
	if dir, _ := flags.GetString("config"); dir != "" {
		opts = append(opts, vanity.WithConfigDir(dir))
	}
	if env, _ := flags.GetString("env"); env != "" {
		opts = append(opts, vanity.WithEnvironment(env))
	}
	if conn, _ := flags.GetString("connection"); conn != "" {
		opts = append(opts, vanity.WithConnection(conn))
	}
	if level, _ := flags.GetString("log-level"); level != "" {
		opts = append(opts, vanity.WithLogger(logging.NewWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(level))))
	}

	var merged domain.LifecycleHooks
	for _, h := range hooks {
		merged = merged.Merge(h)
	}
	opts = append(opts, vanity.WithLifecycleHooks(merged))

	p, err := vanity.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to init vanity: %w", err)
	}
	return p, nil
}
