package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

// RenewalService periodically tops every API key up to its renewal allotment.
type RenewalService struct {
	store    driven.APIKeyStore
	interval time.Duration
	logger   *slog.Logger
}

// NewRenewalService creates a RenewalService that renews every interval.
func NewRenewalService(store driven.APIKeyStore, interval time.Duration, logger *slog.Logger) *RenewalService {
	return &RenewalService{
		store:    store,
		interval: interval,
		logger:   logger,
	}
}

// Start renews on every tick until ctx is canceled. The first renewal happens
// one interval after Start.
func (s *RenewalService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("renewal service stopped")
			return
		case <-ticker.C:
			if _, err := s.RenewOnce(ctx); err != nil {
				s.logger.Error("credit renewal failed", "error", err)
			}
		}
	}
}

// RenewOnce runs a single renewal pass and returns how many records changed.
func (s *RenewalService) RenewOnce(ctx context.Context) (int64, error) {
	start := time.Now()

	n, err := s.store.RenewCredits(ctx)
	if err != nil {
		return 0, err
	}

	s.logger.Info("credits renewed",
		"records", n,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return n, nil
}
