package services

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
)

const instrumentationName = "github.com/zatekoja/Patientbookingtriage/booking"

var (
	bookingMetricsOnce sync.Once
	triageScoreCounter metric.Int64Counter
	triagePoints       metric.Int64Histogram
	bookingOutcomes    metric.Int64Counter
	workflowRefusals   metric.Int64Counter
)

func initBookingMetrics() {
	meter := otel.Meter(instrumentationName)

	if c, err := meter.Int64Counter("triage.score.count",
		metric.WithDescription("Number of computed urgency scores by label"),
	); err == nil {
		triageScoreCounter = c
	}
	if h, err := meter.Int64Histogram("triage.score.points",
		metric.WithDescription("Distribution of urgency points"),
	); err == nil {
		triagePoints = h
	}
	if c, err := meter.Int64Counter("booking.submission.count",
		metric.WithDescription("Booking submissions by outcome"),
	); err == nil {
		bookingOutcomes = c
	}
	if c, err := meter.Int64Counter("booking.refusal.count",
		metric.WithDescription("Refused workflow transitions by reason"),
	); err == nil {
		workflowRefusals = c
	}
}

func recordScore(ctx context.Context, score entities.UrgencyScore) {
	bookingMetricsOnce.Do(initBookingMetrics)
	attrs := metric.WithAttributes(attribute.String("triage.label", string(score.Label)))
	if triageScoreCounter != nil {
		triageScoreCounter.Add(ctx, 1, attrs)
	}
	if triagePoints != nil {
		triagePoints.Record(ctx, int64(score.Points), attrs)
	}
}

func recordBookingOutcome(ctx context.Context, outcome string) {
	bookingMetricsOnce.Do(initBookingMetrics)
	if bookingOutcomes != nil {
		bookingOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("booking.outcome", outcome)))
	}
}

func recordRefusal(ctx context.Context, err error) {
	reason := apperrors.ReasonOf(err)
	if reason == "" {
		return
	}
	bookingMetricsOnce.Do(initBookingMetrics)
	if workflowRefusals != nil {
		workflowRefusals.Add(ctx, 1, metric.WithAttributes(attribute.String("booking.reason", string(reason))))
	}
}
