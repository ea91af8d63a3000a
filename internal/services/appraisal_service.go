package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/mgrant808/homeworth/api/internal/config"
	"github.com/mgrant808/homeworth/api/internal/logger"
	"github.com/mgrant808/homeworth/api/internal/models"
	"github.com/mgrant808/homeworth/api/internal/repository"
	"github.com/mgrant808/homeworth/api/internal/valuation"
)

// ErrInsufficientEvidence is the service-level failure for a valuation
// request with no priced comparables and no usable AVM estimate.
var ErrInsufficientEvidence = valuation.ErrInsufficientEvidence

// ErrTooManyComparables guards the statistical passes against unbounded
// input; callers are expected to pre-rank and trim their comparable sets.
var ErrTooManyComparables = errors.New("too many comparables")

// MaxComparables bounds a single valuation request.
const MaxComparables = 5000

// AppraisalRequest is the full input set for one appraisal.
type AppraisalRequest struct {
	Subject     models.SubjectProperty
	Comparables []models.ComparableSale
	AVM         *models.AVMEstimate
	Market      *models.MarketStatistics
	Options     valuation.Options
}

// AppraisalService defines the business logic for running valuations.
type AppraisalService interface {
	// Appraise runs the valuation pipeline over the request. When the
	// caller supplies no market statistics, the service attempts a lookup
	// for the subject's suburb; a miss or database failure falls back to
	// default growth assumptions rather than failing the appraisal.
	// Returns ErrInsufficientEvidence when no evidence is usable.
	Appraise(ctx context.Context, req AppraisalRequest) (*models.ValuationResult, error)
}

// appraisalService is the concrete implementation of AppraisalService.
type appraisalService struct {
	marketStats repository.MarketStatsRepository
	cfg         config.ValuationConfig
	log         *logger.Logger
}

// NewAppraisalService creates a new instance of AppraisalService.
func NewAppraisalService(marketStats repository.MarketStatsRepository, cfg config.ValuationConfig, log *logger.Logger) AppraisalService {
	return &appraisalService{
		marketStats: marketStats,
		cfg:         cfg,
		log:         log,
	}
}

// Appraise resolves market statistics if needed, runs the valuation engine
// and logs the outcome.
func (s *appraisalService) Appraise(ctx context.Context, req AppraisalRequest) (*models.ValuationResult, error) {
	if len(req.Comparables) > MaxComparables {
		s.log.Warn("Comparable set exceeds limit", map[string]interface{}{
			"count": len(req.Comparables),
			"limit": MaxComparables,
		})
		return nil, fmt.Errorf("%w: got %d, limit %d", ErrTooManyComparables, len(req.Comparables), MaxComparables)
	}

	market := req.Market
	if market == nil {
		market = s.lookupMarketStats(ctx, req.Subject)
	}

	opts := s.applyConfigDefaults(req.Options)

	s.log.Info("Running valuation", map[string]interface{}{
		"address":          req.Subject.Address,
		"property_type":    req.Subject.PropertyType,
		"comparables":      len(req.Comparables),
		"avm_supplied":     req.AVM != nil,
		"market_supplied":  req.Market != nil,
		"market_available": market != nil,
	})

	result, err := valuation.Valuate(valuation.Request{
		Subject:     req.Subject,
		Comparables: req.Comparables,
		AVM:         req.AVM,
		Market:      market,
		Options:     opts,
	})
	if err != nil {
		if errors.Is(err, valuation.ErrInsufficientEvidence) {
			s.log.Warn("Valuation rejected for lack of evidence", map[string]interface{}{
				"address":     req.Subject.Address,
				"comparables": len(req.Comparables),
			})
			return nil, err
		}
		s.log.Error("Valuation failed", err, map[string]interface{}{
			"address": req.Subject.Address,
		})
		return nil, fmt.Errorf("failed to run valuation: %w", err)
	}

	s.log.Info("Valuation complete", map[string]interface{}{
		"address":          req.Subject.Address,
		"valuation_id":     result.ID,
		"point":            result.Point,
		"low":              result.Low,
		"high":             result.High,
		"confidence":       result.Confidence,
		"confidence_level": result.ConfidenceLevel,
		"approach":         result.Approach,
	})

	return result, nil
}

// applyConfigDefaults fills unset engine options from the service
// configuration.
func (s *appraisalService) applyConfigDefaults(opts valuation.Options) valuation.Options {
	if opts.MinimumSpread <= 0 && s.cfg.MinimumSpread > 0 {
		opts.MinimumSpread = s.cfg.MinimumSpread
	}
	if opts.ConfidenceThreshold <= 0 && s.cfg.AVMConfidenceThreshold > 0 {
		opts.ConfidenceThreshold = s.cfg.AVMConfidenceThreshold
	}
	if opts.DefaultAnnualGrowth == nil && s.cfg.DefaultAnnualGrowth != 0 {
		growth := s.cfg.DefaultAnnualGrowth
		opts.DefaultAnnualGrowth = &growth
	}
	return opts
}

// lookupMarketStats fetches suburb statistics when the caller supplied
// none. Missing statistics are never fatal; the adjuster falls back to its
// default growth assumption.
func (s *appraisalService) lookupMarketStats(ctx context.Context, subject models.SubjectProperty) *models.MarketStatistics {
	if s.marketStats == nil || subject.Suburb == nil || *subject.Suburb == "" {
		return nil
	}

	market, err := s.marketStats.FindBySuburb(ctx, *subject.Suburb, subject.City)
	if err != nil {
		s.log.Warn("Market statistics lookup failed, proceeding without", map[string]interface{}{
			"suburb": *subject.Suburb,
			"error":  err.Error(),
		})
		return nil
	}
	if market == nil {
		s.log.Debug("No market statistics for suburb", map[string]interface{}{
			"suburb": *subject.Suburb,
		})
		return nil
	}
	return market
}
