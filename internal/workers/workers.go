package workers

import (
	"time"

	"github.com/rs/zerolog/log"
	"payssd/internal/engine/payments"
)

// Runner hosts the scheduled jobs. The same methods back both the worker
// binary's tickers and the authenticated cron HTTP endpoints, so deployments
// without a long-running worker can drive the jobs from an external
// scheduler.
type Runner struct {
	payments *payments.Service
}

func NewRunner(payments *payments.Service) *Runner {
	return &Runner{payments: payments}
}

// RunExpiry sweeps pending payments past their deadline into expired status.
func (r *Runner) RunExpiry() (int, error) {
	refs, err := r.payments.ExpirePending(time.Now())
	if err != nil {
		log.Error().Err(err).Msg("payment expiry sweep failed")
		return 0, err
	}
	return len(refs), nil
}

// RunRenewals creates pending renewal payments for subscriptions whose
// current period ends within the renewal window.
func (r *Runner) RunRenewals() (*payments.RenewalRun, error) {
	run, err := r.payments.GenerateRenewals(time.Now())
	if err != nil {
		log.Error().Err(err).Msg("renewal generation failed")
		return nil, err
	}
	return run, nil
}
