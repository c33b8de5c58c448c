package tasks

import (
	"context"

	"github.com/lotview/lotview/app/feed"
)

// FeedProcessor is the slice of the feed processor the tasks need.
type FeedProcessor interface {
	Process(ctx context.Context, feedID int64, url string) (*feed.Outcome, error)
}

// TaskSchedulerInterface defines the interface for task scheduling
// operations. The scheduler owns the worker pool and the periodic
// auto-update tick; manual triggers can enqueue tasks through it as well.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
