package availability

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/walid-afk/salon-scheduler/internal/timegrid"
)

// GetAnySlots serves "no preference" queries: the pipeline runs for every
// employee independently and the results merge into one deduplicated
// slot list. Per-employee fetches run concurrently, but all results are
// buffered before merging so the outcome depends only on the input order
// of employeeIDs, never on completion order. The first employee offering
// a displayed time wins it. An employee whose fetch fails contributes no
// slots and does not fail the aggregate; the failure is recorded in
// AnyAvailability.Failures.
func (s *Service) GetAnySlots(ctx context.Context, employeeIDs []string, day time.Time, durationMinutes int, policy Policy) (*AnyAvailability, error) {
	ctx, span := tracer.Start(ctx, "availability.any")
	defer span.End()
	span.SetAttributes(
		attribute.Int("salon.employees", len(employeeIDs)),
		attribute.Int("salon.duration_minutes", durationMinutes),
	)
	started := time.Now()

	if durationMinutes <= 0 {
		s.metrics.ObserveQuery("any", "invalid", time.Since(started), 0)
		return nil, fmt.Errorf("%w: duration %d must be positive", timegrid.ErrInvalidFormat, durationMinutes)
	}
	pol, err := policy.resolve()
	if err != nil {
		s.metrics.ObserveQuery("any", "invalid", time.Since(started), 0)
		return nil, err
	}

	type outcome struct {
		result *DayAvailability
		err    error
	}
	outcomes := make([]outcome, len(employeeIDs))

	var wg sync.WaitGroup
	for i, employeeID := range employeeIDs {
		wg.Add(1)
		go func(i int, employeeID string) {
			defer wg.Done()
			busy, err := s.source.FetchBusyIntervals(ctx, employeeID, day, pol.opening)
			if err != nil {
				outcomes[i] = outcome{err: err}
				return
			}
			result, err := s.compute(employeeID, day, durationMinutes, pol, busy)
			outcomes[i] = outcome{result: result, err: err}
		}(i, employeeID)
	}
	wg.Wait()

	agg := &AnyAvailability{Failures: make(map[string]error)}
	seen := make(map[string]struct{})
	reserved := time.Duration(0)

	for i, employeeID := range employeeIDs {
		oc := outcomes[i]
		if oc.err != nil {
			s.metrics.ObserveFetchError(errorKind(oc.err))
			s.logger.Warn("employee excluded from aggregate availability",
				"employee_id", employeeID, "error", oc.err)
			agg.Failures[employeeID] = oc.err
			continue
		}
		if reserved == 0 {
			reserved = time.Duration(oc.result.CellsNeeded*pol.step) * time.Minute
		}
		for _, start := range oc.result.ValidStarts {
			display := start.In(s.loc).Format("15:04")
			if _, taken := seen[display]; taken {
				continue
			}
			seen[display] = struct{}{}
			agg.Slots = append(agg.Slots, SlotOption{
				Start:       start,
				End:         start.Add(reserved),
				DisplayTime: display,
				EmployeeID:  employeeID,
			})
		}
	}

	sort.Slice(agg.Slots, func(i, j int) bool {
		return agg.Slots[i].Start.Before(agg.Slots[j].Start)
	})

	s.metrics.ObserveQuery("any", "ok", time.Since(started), len(agg.Slots))
	return agg, nil
}
