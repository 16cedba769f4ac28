package application

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	offerDomain "github.com/ridepool/service-offers/internal/domain/offer"
	"github.com/ridepool/service-offers/internal/events"
	"github.com/ridepool/service-offers/internal/pkg/kafka"
	"github.com/ridepool/service-offers/internal/routing"
)

const backfillBatchSize = 100

// BackfillResult summarises one backfill run.
type BackfillResult struct {
	Scanned   int `json:"scanned"`
	Updated   int `json:"updated"`
	Fallbacks int `json:"fallbacks"`
	Failed    int `json:"failed"`
}

// BackfillService repairs offers that were created without route geometry,
// typically during a routing-service outage. Safe to run repeatedly: offers
// that already carry a polyline are never selected.
type BackfillService struct {
	offerRepo   offerDomain.OfferRepository
	provider    routing.PolylineProvider
	producer    EventPublisher
	concurrency int
	logger      *zap.Logger
}

// NewBackfillService creates a new BackfillService. concurrency bounds the
// number of in-flight routing requests.
func NewBackfillService(
	offerRepo offerDomain.OfferRepository,
	provider routing.PolylineProvider,
	producer EventPublisher,
	concurrency int,
	logger *zap.Logger,
) *BackfillService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BackfillService{
		offerRepo:   offerRepo,
		provider:    provider,
		producer:    producer,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run processes batches of polyline-less offers until none remain or the
// context is cancelled. One offer failing to persist does not stop the run;
// failures are counted and left for the next run.
func (s *BackfillService) Run(ctx context.Context) (*BackfillResult, error) {
	var scanned, updated, fallbacks, failed int64

	for {
		batch, err := s.offerRepo.ListMissingPolyline(ctx, backfillBatchSize)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		scanned += int64(len(batch))
		updatedBefore := atomic.LoadInt64(&updated)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for _, o := range batch {
			o := o
			g.Go(func() error {
				fallback, err := s.backfillOne(gctx, o)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					s.logger.Error("failed to backfill offer polyline",
						zap.String("offer_id", o.ID().String()),
						zap.Error(err),
					)
					return nil
				}
				atomic.AddInt64(&updated, 1)
				if fallback {
					atomic.AddInt64(&fallbacks, 1)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// A batch that only produced failures would reselect the same rows
		// forever; stop and let the next run retry.
		if atomic.LoadInt64(&updated) == updatedBefore {
			break
		}
		if len(batch) < backfillBatchSize {
			break
		}
	}

	result := &BackfillResult{
		Scanned:   int(scanned),
		Updated:   int(updated),
		Fallbacks: int(fallbacks),
		Failed:    int(failed),
	}
	s.logger.Info("polyline backfill finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("updated", result.Updated),
		zap.Int("fallbacks", result.Fallbacks),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *BackfillService) backfillOne(ctx context.Context, o *offerDomain.RouteOffer) (bool, error) {
	route := o.Route()
	info := s.provider.GetRoutePolyline(ctx, route.From.Coordinate, route.To.Coordinate)

	route.Polyline = info.Polyline
	route.DistanceKm = info.DistanceKm
	route.DurationMin = info.DurationMin
	if err := s.offerRepo.UpdateRouteGeometry(ctx, o.ID(), route); err != nil {
		return info.Fallback, err
	}

	s.publishBackfilled(ctx, o, info)
	return info.Fallback, nil
}

func (s *BackfillService) publishBackfilled(ctx context.Context, o *offerDomain.RouteOffer, info routing.RouteInfo) {
	evt := events.PolylineBackfilledEvent{
		OfferID:    o.ID(),
		Points:     len(info.Polyline),
		Fallback:   info.Fallback,
		OccurredAt: time.Now().UTC(),
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, events.OfferPolylineBackfilled, evt)
	if err != nil {
		s.logger.Error("failed to create cloud event", zap.Error(err))
		return
	}
	if err := s.producer.PublishEvent(ctx, events.TopicOfferEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish backfill event",
			zap.String("offer_id", o.ID().String()),
			zap.Error(err),
		)
	}
}
