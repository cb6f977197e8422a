// Package dashboard serves the statistics endpoints. Every handler loads
// the caller's records through the scoped repository and leaves the
// arithmetic to the statistics aggregator.
package dashboard

import (
	"context"
	"time"

	"telecom-erp-backend/internal/auth"
	"telecom-erp-backend/internal/config"
	"telecom-erp-backend/internal/database"
	"telecom-erp-backend/internal/repository"
	"telecom-erp-backend/internal/scope"
	"telecom-erp-backend/internal/settlement"
	"telecom-erp-backend/internal/statistics"
)

type Deps struct {
	Config     *config.Config
	Calculator *settlement.Calculator
	Stores     auth.IndexProvider
	// Now defaults to time.Now.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) options() statistics.Options {
	return statistics.Options{
		Calculator:     d.Calculator,
		Workers:        d.Config.StatsWorkers,
		ShardThreshold: d.Config.StatsShardThreshold,
		PageSize:       -1,
	}
}

// load returns the records of s dated inside [from.From, to.To].
func load(ctx context.Context, s scope.AccessibleScope, from, to statistics.Period) ([]statistics.Record, error) {
	lo, _ := from.Bounds()
	_, hi := to.Bounds()
	rows, err := repository.NewSaleRepository(database.DB).ListInRange(ctx, s, lo, hi)
	if err != nil {
		return nil, err
	}
	return statistics.FromModels(rows), nil
}

// monthGoals sums the goals of s for the month of p. Nil when none are set.
func monthGoals(ctx context.Context, s scope.AccessibleScope, p statistics.Period) (*statistics.Goals, error) {
	goals, found, err := repository.NewGoalRepository(database.DB).Sum(ctx, s, p.From.Year(), int(p.From.Month()))
	if err != nil || !found {
		return nil, err
	}
	return &goals, nil
}
