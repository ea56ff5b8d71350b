package jobs

import (
	"context"
	"sync/atomic"
	"time"

	"wheelshare-backend/internal/config"
	"wheelshare-backend/internal/logger"
	"wheelshare-backend/internal/service"
)

// JobRunner coordinates the scheduled settlement work.
type JobRunner struct {
	settlement service.SettlementService
	config     *config.Config

	sweepRunning atomic.Bool
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(settlement service.SettlementService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		settlement: settlement,
		config:     cfg,
	}
}

// Config exposes the configuration for schedule registration
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunSettlementSweep runs one settlement pass: check-ins, check-outs, deposit
// refunds, and host payouts. A tick that fires while the previous sweep is
// still running is skipped, so a slow pass never double-processes a booking.
func (jr *JobRunner) RunSettlementSweep() {
	if !jr.sweepRunning.CompareAndSwap(false, true) {
		logger.Warn("Previous settlement sweep still running, skipping tick")
		return
	}
	defer jr.sweepRunning.Store(false)

	jr.runWithRecovery("SettlementSweep", func() {
		if err := jr.settlement.RunTick(context.Background(), time.Now().UTC()); err != nil {
			logger.Error("Settlement sweep failed", "error", err)
		}
	})
}
