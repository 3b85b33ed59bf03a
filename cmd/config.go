package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/btraven00/phishguard/internal/config"
	"github.com/btraven00/phishguard/internal/report"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration assembled from defaults, the config file, the
.env file, PHISHGUARD_* variables and flags. Secrets are masked. The
configuration is printed even when it is invalid; the problem is reported
afterwards.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printer, err := report.New(cmd.OutOrStdout(), report.FormatJSON)
		if err != nil {
			return err
		}

		cfg, err := config.Decode(viper.GetViper())
		if err != nil {
			return err
		}

		if err := printer.Value(cfg.Redacted()); err != nil {
			return err
		}

		return cfg.Validate()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
