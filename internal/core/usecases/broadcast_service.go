package usecases

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/ports"
	"github.com/samirrijal/kehillah/internal/pkg/logging"
	"github.com/samirrijal/kehillah/internal/pkg/metrics"
)

// NusachAll is the tick channel covering every nusach.
const NusachAll = "All"

// BroadcastService recomputes the next minyan per nusach and publishes it.
// It holds no timer; the caller decides when Broadcast runs.
type BroadcastService struct {
	minyanim  *MinyanService
	publisher ports.EventPublisher
	nusachs   []string
}

// NewBroadcastService creates a BroadcastService. An "All" tick is always
// published in addition to the listed nusachs.
func NewBroadcastService(minyanim *MinyanService, publisher ports.EventPublisher, nusachs []string) *BroadcastService {
	list := []string{NusachAll}
	for _, n := range nusachs {
		if n != "" && n != NusachAll {
			list = append(list, n)
		}
	}
	return &BroadcastService{minyanim: minyanim, publisher: publisher, nusachs: list}
}

// Broadcast publishes one tick per nusach. A failing nusach does not stop
// the others; all failures are returned together.
func (s *BroadcastService) Broadcast(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	var result *multierror.Error

	for _, nusach := range s.nusachs {
		filter := nusach
		if filter == NusachAll {
			filter = ""
		}
		next, err := s.minyanim.Next(ctx, filter)
		if err != nil {
			metrics.BroadcastErrors.Inc()
			result = multierror.Append(result, fmt.Errorf("next %s: %w", nusach, err))
			continue
		}

		now := s.minyanim.opts.Clock()
		tick := &ports.ScheduleTick{
			GeneratedAt: now,
			Day:         domain.WeekdayOf(now.In(s.minyanim.Resolver().Location())),
			Nusach:      nusach,
			Next:        next,
		}
		if err := s.publisher.PublishScheduleTick(ctx, tick); err != nil {
			metrics.BroadcastErrors.Inc()
			result = multierror.Append(result, fmt.Errorf("publish %s: %w", nusach, err))
			continue
		}
		metrics.BroadcastTicks.WithLabelValues(nusach).Inc()

		ev := logger.Debug().Str("nusach", nusach)
		if next != nil {
			ev = ev.Str("minyan_id", next.Minyan.ID).Time("starts_at", next.StartsAt)
		}
		ev.Msg("schedule tick published")
	}
	return result.ErrorOrNil()
}
