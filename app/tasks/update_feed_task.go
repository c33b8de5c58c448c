package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lotview/lotview/app/database"
)

// UpdateFeedTask re-processes one feed. Classified domain failures
// (unreachable upstream, malformed document) are recorded on the feed by
// the processor and are final for this run; only storage faults surface
// as task errors and become retryable.
type UpdateFeedTask struct {
	Task
	URL       string
	processor FeedProcessor
}

func NewUpdateFeedTask(feedID int64, url string, processor FeedProcessor) *UpdateFeedTask {
	return &UpdateFeedTask{
		Task:      NewTask(TaskTypeUpdateFeed, feedID),
		URL:       url,
		processor: processor,
	}
}

func (t *UpdateFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	outcome, err := t.processor.Process(ctx, t.FeedID, t.URL)
	if err != nil {
		return fmt.Errorf("failed to process feed %d: %w", t.FeedID, err)
	}

	switch outcome.Status {
	case database.StatusProcessing:
		slog.Debug("Task skipped, feed busy", "type", "UpdateFeed", "feed_id", t.FeedID)
	case database.StatusFailed:
		slog.Warn("Task completed with feed failure",
			"type", "UpdateFeed",
			"feed_id", t.FeedID,
			"duration", t.GetDuration(),
			"error", outcome.Error)
	default:
		slog.Info("Task completed",
			"type", "UpdateFeed",
			"feed_id", t.FeedID,
			"duration", t.GetDuration())
	}

	return nil
}
