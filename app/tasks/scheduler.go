package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/puteus/puteus/app/cfg"
	"github.com/puteus/puteus/app/database"
	"github.com/puteus/puteus/app/watch"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	watchService *watch.Service
	sourceRepo   database.SourceRepository
	articleRepo  database.ArticleRepository
	fetcher      Fetcher
	interval     time.Duration
	workerCount  int
	batchSize    int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	retryWg      sync.WaitGroup
	taskQueue    chan TaskInterface
}

func NewScheduler(watchService *watch.Service, sourceRepo database.SourceRepository,
	articleRepo database.ArticleRepository, fetcher Fetcher) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		watchService: watchService,
		sourceRepo:   sourceRepo,
		articleRepo:  articleRepo,
		fetcher:      fetcher,
		interval:     time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:  cfg.WorkerCount,
		batchSize:    cfg.ExtractBatchSize,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	// Pending retries may still try to enqueue; let them drain first
	s.retryWg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueTasks() {
	sources, err := s.sourceRepo.ListActiveSources()
	if err != nil {
		slog.Error("Failed to list active sources for scheduling", "error", err)
		return
	}
	if len(sources) == 0 {
		slog.Debug("No active sources found")
		return
	}

	slog.Debug("Scheduling source checks", "count", len(sources))

	for _, source := range sources {
		task := NewCheckSourceTask(source.ID, s.watchService)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue CheckSourceTask", "source_id", source.ID, "error", err)
		}
	}

	extractTask := NewExtractContentTask(s.articleRepo, s.fetcher, s.batchSize)
	if err := s.EnqueueTask(extractTask); err != nil {
		slog.Warn("Failed to enqueue ExtractContentTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source_id", task.GetSourceID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			s.retryWg.Add(1)
			go func() {
				defer s.retryWg.Done()
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
