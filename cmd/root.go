package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/btraven00/phishguard/internal/config"
	"github.com/btraven00/phishguard/internal/logx"
)

const defaultEnvFile = ".env"

// version is overridden at build time with -ldflags "-X".
var version = "dev"

var (
	cfgFile  string
	envFile  string
	quiet    bool
	output   string
	initErr  error
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "phishguard",
	Short: "Submit URLs and email content to the PhishGuard scanning service",
	Long: `PhishGuard submits suspicious URLs and raw email content to a remote
phishing-scan service on behalf of a signed-in user, and manages email and
SMS alert subscriptions.

Credentials come from the session written by the sign-in helper (or a
static token / shared Redis key); every request carries a fresh bearer token.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if initErr != nil {
			return initErr
		}

		logx.Init(logx.Options{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
			File:   viper.GetString("log.file"),
		})

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx)
}

// run executes the command tree and closes the log file whether or not the
// command succeeded.
func run(ctx context.Context) (err error) {
	defer func() {
		if closeErr := logx.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults(viper.GetViper())

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.phishguard.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "dotenv file with PHISHGUARD_* variables")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "quiet output (suppress status messages)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "human", "output format (human, json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("endpoint", "", "scanner API base URL (overrides api.endpoint)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("api.endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	initErr = nil

	if err := config.LoadEnvFile(envFile, rootCmd.PersistentFlags().Changed("env-file")); err != nil {
		initErr = err
		return
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			// Search config in home directory with name ".phishguard" (without extension).
			viper.AddConfigPath(home)
		}

		viper.SetConfigType("yaml")
		viper.SetConfigName(".phishguard")
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			initErr = fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}

		return
	}

	if !quiet {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// statusf prints progress messages to stderr unless --quiet is set.
func statusf(cmd *cobra.Command, format string, args ...any) {
	if quiet {
		return
	}

	fmt.Fprintf(cmd.ErrOrStderr(), format, args...)
}
