package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/puteus/puteus/app/watch"
)

type CheckSourceTask struct {
	Task
	watchService *watch.Service
}

func NewCheckSourceTask(sourceID string, watchService *watch.Service) *CheckSourceTask {
	return &CheckSourceTask{
		Task:         NewTask(TaskTypeCheckSource, sourceID),
		watchService: watchService,
	}
}

func (t *CheckSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	article, err := t.watchService.Check(ctx, t.SourceID)
	if err != nil {
		if errors.Is(err, watch.ErrSourceNotFound) {
			slog.Warn("Source no longer active, skipping check", "source_id", t.SourceID)
			return nil
		}
		return fmt.Errorf("failed to check source: %w", err)
	}

	if article == nil {
		slog.Info("Task completed",
			"type", t.GetType(),
			"source_id", t.SourceID,
			"duration", t.GetDuration(),
			"changed", false)
		return nil
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"source_id", t.SourceID,
		"duration", t.GetDuration(),
		"changed", true,
		"article_id", article.ID)
	return nil
}
