package services

import (
	"context"
	"log/slog"

	"github.com/malakmiqdad/storefront/internal/models"
)

const maxTrackedPathLength = 512

type AnalyticsService struct {
	analyticsRepo models.AnalyticsRepo
	logger        *slog.Logger
}

func NewAnalyticsService(analyticsRepo models.AnalyticsRepo, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{analyticsRepo: analyticsRepo, logger: logger}
}

// TrackPageView bumps the per-path counter and appends a raw event.
func (as *AnalyticsService) TrackPageView(ctx context.Context, path, userID string) (*models.PageCounter, error) {
	if path == "" {
		return nil, models.Validationf("path is required")
	}
	if len(path) > maxTrackedPathLength {
		return nil, models.Validationf("path is too long")
	}
	path = models.NormalizePath(path)

	counter, err := as.analyticsRepo.IncrementPageView(ctx, path)
	if err != nil {
		return nil, models.Upstream("track page view", err)
	}
	if err := as.analyticsRepo.RecordEvent(ctx, &models.AnalyticsEvent{
		Event:  models.EventPageView,
		Path:   path,
		UserID: userID,
	}); err != nil {
		as.logger.Warn("Failed to record page view event", "path", path, "error", err)
	}
	return counter, nil
}

func (as *AnalyticsService) TopPages(ctx context.Context, limit int) ([]*models.PageCounter, error) {
	if limit <= 0 || limit > adminListLimit {
		limit = 10
	}
	pages, err := as.analyticsRepo.TopPages(ctx, limit)
	if err != nil {
		return nil, models.Upstream("top pages", err)
	}
	return pages, nil
}
