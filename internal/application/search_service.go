package application

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/ridepool/service-offers/internal/domain/matching"
	offerDomain "github.com/ridepool/service-offers/internal/domain/offer"
	"github.com/ridepool/service-offers/internal/pkg/concurrent"
	"github.com/ridepool/service-offers/internal/pkg/domain"
	"github.com/ridepool/service-offers/internal/pkg/geo"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// SearchRequest holds a passenger's search for offers their trip fits into.
// Both coordinates nil means browse-all: coarse filters apply but the
// geometric compatibility filter is skipped.
type SearchRequest struct {
	PassengerFrom *geo.Coordinate
	PassengerTo   *geo.Coordinate
	Filter        offerDomain.SearchFilter
	Page          int
	Limit         int
}

// SearchService runs the offer search pipeline: coarse attribute filters in
// the store, then the geometric compatibility filter fanned out over a worker
// pool, then pagination over the survivors.
type SearchService struct {
	offerRepo offerDomain.OfferRepository
	matcher   *matching.Matcher
	poolSize  int
	logger    *zap.Logger
}

// NewSearchService creates a new SearchService. poolSize bounds the number of
// goroutines evaluating route compatibility per search.
func NewSearchService(
	offerRepo offerDomain.OfferRepository,
	matcher *matching.Matcher,
	poolSize int,
	logger *zap.Logger,
) *SearchService {
	if poolSize < 1 {
		poolSize = 1
	}
	return &SearchService{
		offerRepo: offerRepo,
		matcher:   matcher,
		poolSize:  poolSize,
		logger:    logger,
	}
}

// Search returns the offers whose routes the passenger's trip fits into,
// newest first. Pagination applies after the geometric filter so totals
// reflect the real match count.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*domain.PaginatedResult[OfferDTO], error) {
	geometric := req.PassengerFrom != nil && req.PassengerTo != nil
	if (req.PassengerFrom != nil) != (req.PassengerTo != nil) {
		return nil, domain.NewValidationError("passenger origin and destination must be supplied together")
	}
	if geometric && (!req.PassengerFrom.IsValid() || !req.PassengerTo.IsValid()) {
		return nil, domain.NewValidationError("passenger coordinates out of range")
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	candidates, err := s.offerRepo.SearchCandidates(ctx, req.Filter)
	if err != nil {
		return nil, err
	}

	matches := candidates
	if geometric {
		matches = s.filterCompatible(*req.PassengerFrom, *req.PassengerTo, candidates)
	}

	// Workers return matches out of order; restore newest-first.
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt().Equal(matches[j].CreatedAt()) {
			return matches[i].CreatedAt().After(matches[j].CreatedAt())
		}
		return matches[i].ID().String() < matches[j].ID().String()
	})

	total := int64(len(matches))
	start := (page - 1) * limit
	if start > len(matches) {
		start = len(matches)
	}
	end := start + limit
	if end > len(matches) {
		end = len(matches)
	}

	result := domain.NewPaginatedResult(toOfferDTOs(matches[start:end]), total, page, limit)
	return &result, nil
}

type matchResult struct {
	offer    *offerDomain.RouteOffer
	decision matching.MatchDecision
}

// filterCompatible fans the candidates out over the worker pool and keeps
// those whose route the passenger trip fits into. An offer whose geometry
// still cannot be evaluated is logged and treated as a non-match.
func (s *SearchService) filterCompatible(from, to geo.Coordinate, candidates []*offerDomain.RouteOffer) []*offerDomain.RouteOffer {
	if len(candidates) == 0 {
		return nil
	}

	pool := concurrent.NewWorkerPool[*offerDomain.RouteOffer, matchResult](s.poolSize, len(candidates))
	pool.Start(func(o *offerDomain.RouteOffer) matchResult {
		return matchResult{
			offer:    o,
			decision: s.matcher.IsCompatible(from, to, offerPath(o)),
		}
	})
	for _, o := range candidates {
		pool.AddJob(o)
	}
	pool.Close()
	pool.Wait()

	matches := make([]*offerDomain.RouteOffer, 0, len(candidates))
	for res := range pool.CollectResults() {
		if res.decision.IsMatch {
			matches = append(matches, res.offer)
			continue
		}
		if res.decision.Reason == matching.ReasonDegradedPolyline {
			s.logger.Warn("offer excluded from search, no usable polyline",
				zap.String("offer_id", res.offer.ID().String()),
			)
		}
	}
	return matches
}

// offerPath returns the offer's stored polyline, or the straight line between
// its route endpoints when no polyline has been attached yet. Offers awaiting
// backfill still participate in matching, at reduced precision.
func offerPath(o *offerDomain.RouteOffer) geo.Polyline {
	route := o.Route()
	if route.HasPolyline() {
		return route.Polyline
	}
	return geo.FallbackPolyline(route.From.Coordinate, route.To.Coordinate)
}
