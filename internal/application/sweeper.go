package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// LedgerSweeper periodically purges expired OTP entries. Verification already
// discards expired entries when it reads them; the sweeper removes the ones
// nobody comes back for.
type LedgerSweeper struct {
	ledger   driven.OTPLedger
	interval time.Duration
	now      func() time.Time
}

// NewLedgerSweeper creates a LedgerSweeper running every interval.
func NewLedgerSweeper(ledger driven.OTPLedger, interval time.Duration) *LedgerSweeper {
	return &LedgerSweeper{
		ledger:   ledger,
		interval: interval,
		now:      time.Now,
	}
}

// WithClock replaces the time source used to decide expiry.
func (s *LedgerSweeper) WithClock(now func() time.Time) *LedgerSweeper {
	s.now = now
	return s
}

// Start runs an immediate sweep, then sweeps on the configured interval.
// Start blocks until the context is canceled.
func (s *LedgerSweeper) Start(ctx context.Context) {
	if _, err := s.SweepOnce(ctx); err != nil {
		slog.Error("initial otp sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("otp sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				slog.Error("otp sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce purges every entry that expired before now.
func (s *LedgerSweeper) SweepOnce(ctx context.Context) (int64, error) {
	purged, err := s.ledger.PurgeExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		slog.Info("purged expired otp entries", "count", purged)
	}
	return purged, nil
}
