package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swcstudio/fsl-continuum-sub003/internal/complexity"
	"github.com/swcstudio/fsl-continuum-sub003/internal/ensemble"
)

// NewDoctorCmd returns a health-check command validating config and environment.
func NewDoctorCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if _, err := newLogger(cfg); err != nil {
				return err
			}
			engine, reg, err := ensemble.FromConfig(cfg, nil, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK. Backends: %d, tiers: %d\n", reg.Len(), len(engine.Router().Tiers()))

			classifier := engine.Classifier()
			fmt.Fprint(out, "Patterns:")
			for _, lvl := range complexity.Levels() {
				fmt.Fprintf(out, " %s=%d", lvl, classifier.PatternCount(lvl))
			}
			fmt.Fprintf(out, ", domains: %d\n", len(classifier.Domains()))
			fmt.Fprintf(out, "Agreement policy: %s, max concurrency: %d, metrics: %v, transport: %s\n",
				cfg.Ensemble.AgreementPolicy, cfg.Ensemble.MaxConcurrency, cfg.Server.MetricsEnabled, cfg.Server.Transport)
			return nil
		},
	}
}
