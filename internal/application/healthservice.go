package application

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// Health states reported by HealthService.
const (
	HealthOK       = "ok"
	HealthDegraded = "unavailable"
)

// HealthReport is the combined view of every registered dependency.
type HealthReport struct {
	Status string
	Checks map[string]string
}

// Healthy reports whether every dependency answered.
func (r HealthReport) Healthy() bool {
	return r.Status == HealthOK
}

// HealthService aggregates dependency probes into a single status.
type HealthService struct {
	probes  map[string]driven.HealthProbe
	timeout time.Duration
}

// NewHealthService creates a new HealthService. Probes are keyed by the name
// reported in the check list, e.g. "database".
func NewHealthService(probes map[string]driven.HealthProbe) *HealthService {
	return &HealthService{
		probes:  probes,
		timeout: 2 * time.Second,
	}
}

// Check runs every probe. Any failure marks the whole report unavailable.
func (s *HealthService) Check(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	names := make([]string, 0, len(s.probes))
	for name := range s.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	report := HealthReport{Status: HealthOK, Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := s.probes[name].Ping(ctx); err != nil {
			slog.Warn("health probe failed", "probe", name, "error", err)
			report.Checks[name] = HealthDegraded
			report.Status = HealthDegraded
			continue
		}
		report.Checks[name] = HealthOK
	}

	return report
}
