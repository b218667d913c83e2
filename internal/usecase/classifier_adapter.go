package usecase

import (
	"context"
	"fmt"

	"github.com/itembuilder/backend/internal/domain"
	"github.com/itembuilder/backend/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// ClassifierAdapter asks an optional classifier for a top-level category override
type ClassifierAdapter struct {
	classifier domain.Classifier
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewClassifierAdapter wraps classifier, which may be nil when no model is configured
func NewClassifierAdapter(classifier domain.Classifier, m *metrics.Metrics, logger *zap.Logger) *ClassifierAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassifierAdapter{
		classifier: classifier,
		metrics:    m,
		logger:     logger,
	}
}

// Enabled reports whether a classifier is configured
func (a *ClassifierAdapter) Enabled() bool {
	return a != nil && a.classifier != nil
}

// MaybeOverride returns the predicted category for title, or "" for no override.
// A failing classifier yields "" and an error wrapping ErrClassifierFailed; callers keep the matched category.
func (a *ClassifierAdapter) MaybeOverride(ctx context.Context, title string) (category string, err error) {
	if !a.Enabled() {
		return "", nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			category = ""
			err = fmt.Errorf("%w: panic: %v", domain.ErrClassifierFailed, rec)
		}
		if err != nil {
			a.metrics.ClassifierOutcome("failure")
			a.logger.Warn("classifier failed, keeping matched category", zap.String("title", title), zap.Error(err))
		}
	}()

	predicted, err := a.classifier.Predict(ctx, title)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrClassifierFailed, err)
	}

	if predicted == "" {
		a.metrics.ClassifierOutcome("empty")
		return "", nil
	}

	a.metrics.ClassifierOutcome("override")
	return predicted, nil
}
