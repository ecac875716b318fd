package service

import (
	"context"
	"log"
	"time"

	"paygate/internal/domain"
	"paygate/internal/repository"
)

// OrphanSweeper cancels pending payments that never reached the gateway.
// A crash between the local commit and the gateway call leaves a pending
// payment with no gateway id; no remote order exists for it, so after the
// cutoff age it can only be cancelled.
type OrphanSweeper struct {
	paymentRepo repository.PaymentRepository
	interval    time.Duration
	pendingAge  time.Duration
}

// NewOrphanSweeper creates a sweeper that runs every interval and cancels
// gateway-less pending payments older than pendingAge.
func NewOrphanSweeper(paymentRepo repository.PaymentRepository, interval, pendingAge time.Duration) *OrphanSweeper {
	return &OrphanSweeper{
		paymentRepo: paymentRepo,
		interval:    interval,
		pendingAge:  pendingAge,
	}
}

// Run sweeps on a ticker until the context is cancelled.
func (s *OrphanSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				log.Printf("orphan sweep failed: %v", err)
			}
		}
	}
}

// SweepOnce cancels stale orphaned payments and returns how many moved.
// The update is guarded on pending status, so a webhook or poll that lands
// mid-sweep wins.
func (s *OrphanSweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.pendingAge)

	stale, err := s.paymentRepo.ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, payment := range stale {
		moved, err := s.paymentRepo.UpdateStatusFrom(ctx, payment.ID, domain.PaymentStatusPending, domain.PaymentStatusCancelled)
		if err != nil {
			log.Printf("orphan sweep: cancel payment %s: %v", payment.ID, err)
			continue
		}
		if moved {
			cancelled++
			log.Printf("orphan sweep: cancelled payment %s (pending since %s, no gateway order)", payment.ID, payment.CreatedAt.Format(time.RFC3339))
		}
	}

	return cancelled, nil
}
