package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/btraven00/phishguard/internal/analysis"
	"github.com/btraven00/phishguard/internal/auth"
	"github.com/btraven00/phishguard/internal/config"
	"github.com/btraven00/phishguard/internal/gateway"
	"github.com/btraven00/phishguard/internal/metrics"
	"github.com/btraven00/phishguard/internal/report"
	"github.com/btraven00/phishguard/internal/subscription"
)

// runtime bundles the collaborators a command needs to reach the scanner.
type runtime struct {
	cfg     *config.Config
	tokens  auth.Provider
	metrics *metrics.Metrics
	gateway *gateway.Gateway
	printer *report.Printer
}

func newRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	printer, err := report.New(cmd.OutOrStdout(), output)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.New(cfg.Auth)
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	return &runtime{
		cfg:     cfg,
		tokens:  tokens,
		metrics: m,
		printer: printer,
		gateway: gateway.New(gateway.Options{
			Tokens:    tokens,
			Metrics:   m,
			Endpoint:  cfg.API.Endpoint,
			Timeout:   cfg.API.Timeout,
			UserAgent: "phishguard/" + rootCmd.Version,
		}),
	}, nil
}

func (r *runtime) orchestrator() (*analysis.Orchestrator, error) {
	mode, err := analysis.ParseMode(r.cfg.Analysis.Mode)
	if err != nil {
		return nil, err
	}

	return analysis.New(analysis.Options{
		Gateway: r.gateway,
		Metrics: r.metrics,
		Mode:    mode,
		Paths: analysis.Paths{
			URL:   r.cfg.Analysis.URLPath,
			Batch: r.cfg.Analysis.BatchPath,
			Email: r.cfg.Analysis.EmailPath,
		},
	}), nil
}

func (r *runtime) subscriptions() *subscription.Manager {
	return subscription.New(r.gateway, r.metrics)
}

// close flushes metrics and releases the token provider.
func (r *runtime) close() error {
	var errs []error

	if err := r.metrics.WriteTextfile(r.cfg.Metrics.Textfile); err != nil {
		errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
	}

	if err := auth.Close(r.tokens); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
