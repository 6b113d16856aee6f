package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/erp/backend/internal/domain/identity"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// procurementSweepInterval is how often the sweep ticker fires. Each sweep
// category's own threshold (30/14/7/3-day expiry, 48h approval timeout,
// 80/95% budget utilization, 30-day device inactivity) is evaluated fresh
// on every tick rather than tracked as separate per-category schedules,
// since every threshold check is idempotent and cheap to repeat hourly.
const procurementSweepInterval = 1 * time.Hour

// ProcurementSweepFuncs are the five sweep bodies the scheduler invokes
// per tenant (or, for DeviceCleanupSweep/ApprovalTimeoutSweep, once
// globally) on every tick. Declared as plain funcs rather than an
// interface so the scheduler can be wired directly against
// application/procurement.SweepService's methods without an adapter type.
type ProcurementSweepFuncs struct {
	DocumentExpiry    func(ctx context.Context, tenantID uuid.UUID) (int, error)
	BudgetUtilization func(ctx context.Context, tenantID uuid.UUID) (int, error)
	VendorRiskRefresh func(ctx context.Context, tenantID uuid.UUID) (int, error)
	ApprovalTimeout   func(ctx context.Context) (int, error)
	DeviceCleanup     func(ctx context.Context) (int, error)
}

// ProcurementSweepScheduler ticks hourly, running the per-tenant sweeps
// across every tenant and the global sweeps once, logging outcome
// counts. Grounded on ReportCronScheduler's ticker-plus-tenant-iteration
// shape, simplified: procurement sweeps are idempotent notification
// producers rather than report-generation jobs, so they need no retry
// bookkeeping or job-record persistence of their own.
type ProcurementSweepScheduler struct {
	funcs      ProcurementSweepFuncs
	tenantRepo identity.TenantRepository
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewProcurementSweepScheduler creates a new ProcurementSweepScheduler.
func NewProcurementSweepScheduler(funcs ProcurementSweepFuncs, tenantRepo identity.TenantRepository, logger *zap.Logger) *ProcurementSweepScheduler {
	return &ProcurementSweepScheduler{funcs: funcs, tenantRepo: tenantRepo, logger: logger}
}

// Start begins the hourly sweep ticker.
func (s *ProcurementSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("procurement sweep scheduler started", zap.Duration("interval", procurementSweepInterval))
	return nil
}

// Stop halts the ticker and waits for the in-flight sweep to finish.
func (s *ProcurementSweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ProcurementSweepScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(procurementSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *ProcurementSweepScheduler) runOnce(ctx context.Context) {
	if count, err := s.funcs.ApprovalTimeout(ctx); err != nil {
		s.logger.Error("approval_timeout_sweep_failed", zap.Error(err))
	} else if count > 0 {
		s.logger.Info("approval_timeout_sweep_completed", zap.Int("notified", count))
	}

	if count, err := s.funcs.DeviceCleanup(ctx); err != nil {
		s.logger.Error("device_cleanup_sweep_failed", zap.Error(err))
	} else if count > 0 {
		s.logger.Info("device_cleanup_sweep_completed", zap.Int("deactivated", count))
	}

	tenants, err := s.tenantRepo.FindAll(ctx, shared.Filter{})
	if err != nil {
		s.logger.Error("procurement_sweep_tenant_list_failed", zap.Error(err))
		return
	}

	for i := range tenants {
		tenantID := tenants[i].ID

		if count, err := s.funcs.DocumentExpiry(ctx, tenantID); err != nil {
			s.logger.Error("document_expiry_sweep_failed", zap.String("tenant_id", tenants[i].ID.String()), zap.Error(err))
		} else if count > 0 {
			s.logger.Info("document_expiry_sweep_completed", zap.String("tenant_id", tenants[i].ID.String()), zap.Int("notified", count))
		}

		if count, err := s.funcs.BudgetUtilization(ctx, tenantID); err != nil {
			s.logger.Error("budget_utilization_sweep_failed", zap.String("tenant_id", tenants[i].ID.String()), zap.Error(err))
		} else if count > 0 {
			s.logger.Info("budget_utilization_sweep_completed", zap.String("tenant_id", tenants[i].ID.String()), zap.Int("notified", count))
		}

		if count, err := s.funcs.VendorRiskRefresh(ctx, tenantID); err != nil {
			s.logger.Error("vendor_risk_refresh_sweep_failed", zap.String("tenant_id", tenants[i].ID.String()), zap.Error(err))
		} else if count > 0 {
			s.logger.Info("vendor_risk_refresh_sweep_completed", zap.String("tenant_id", tenants[i].ID.String()), zap.Int("refreshed", count))
		}
	}
}
