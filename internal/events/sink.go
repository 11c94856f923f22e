package events

import (
	"context"

	"go.uber.org/zap"
)

// LogSink handles link events by logging them.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that writes every event to logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) LinkCreated(_ context.Context, event *LinkCreatedEvent) error {
	s.logger.Info("link created",
		zap.String("code", event.Code),
		zap.String("originalUrl", event.OriginalURL),
		zap.String("title", event.Title),
		zap.Time("createdAt", event.CreatedAt),
		zap.String("clientIp", event.ClientIP),
	)

	return nil
}

func (s *LogSink) LinkVisited(_ context.Context, event *LinkVisitedEvent) error {
	s.logger.Info("link visited",
		zap.String("code", event.Code),
		zap.Int64("clicks", event.Clicks),
		zap.Time("visitedAt", event.VisitedAt),
		zap.String("referrer", event.Referrer),
		zap.String("userAgent", event.UserAgent),
	)

	return nil
}
