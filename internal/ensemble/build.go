package ensemble

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
	"github.com/swcstudio/fsl-continuum-sub003/internal/backend/configbuilder"
	"github.com/swcstudio/fsl-continuum-sub003/internal/complexity"
	"github.com/swcstudio/fsl-continuum-sub003/internal/config"
	"github.com/swcstudio/fsl-continuum-sub003/internal/consensus"
	"github.com/swcstudio/fsl-continuum-sub003/internal/observability"
	"github.com/swcstudio/fsl-continuum-sub003/internal/router"
)

// FromConfig builds the registry and an Engine over it from cfg.
func FromConfig(cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*Engine, *backend.Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reg, err := configbuilder.BuildRegistry(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build backends: %w", err)
	}

	table, err := cfg.ClassifierTable()
	if err != nil {
		return nil, nil, err
	}
	classifier, err := complexity.New(table)
	if err != nil {
		return nil, nil, fmt.Errorf("build classifier: %w", err)
	}

	tiers, err := cfg.TierBackends()
	if err != nil {
		return nil, nil, err
	}
	rt, err := router.New(tiers, reg, logger.Named("router"))
	if err != nil {
		return nil, nil, err
	}

	policy, err := consensus.PolicyFor(cfg.Ensemble.AgreementPolicy, cfg.Ensemble.FixedAgreement)
	if err != nil {
		return nil, nil, err
	}
	agg := consensus.NewAggregator(reg, consensus.Options{
		Policy:         policy,
		MaxConcurrency: cfg.Ensemble.MaxConcurrency,
		CallTimeout:    cfg.Ensemble.CallTimeout,
		Logger:         logger.Named("consensus"),
		Metrics:        metrics,
	})

	return New(classifier, rt, agg, logger.Named("ensemble"), metrics), reg, nil
}
