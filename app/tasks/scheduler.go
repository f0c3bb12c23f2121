package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yknsg/ainews-digest/app/cfg"
	"github.com/yknsg/ainews-digest/app/database"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler owns the hourly delivery loop: a cron trigger on the wall-clock
// hour in the configured timezone, plus a worker pool draining a buffered
// task queue. Collection and scoring happen once per tick; the resulting
// scored set is shared read-only by every delivery task of that tick.
type Scheduler struct {
	subscriberRepo database.SubscriberRepository
	articleRepo    database.ArticleRepository
	collector      ArticleCollector
	scorer         ArticleScorer
	sender         MessageSender
	extractor      SummaryBackfiller
	location       *time.Location
	defaultHour    int
	maxArticles    int
	workerCount    int
	cron           *cron.Cron
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	taskQueue      chan TaskInterface

	// tickRunning implements the overlap policy: a tick that fires while the
	// previous one is still delivering is skipped, not queued.
	tickRunning atomic.Bool

	mu            sync.Mutex
	lastTickAt    time.Time
	lastDelivered int
}

func NewScheduler(subscriberRepo database.SubscriberRepository, articleRepo database.ArticleRepository,
	articleCollector ArticleCollector, articleScorer ArticleScorer, sender MessageSender,
	extractor SummaryBackfiller) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Warn("Failed to load timezone, falling back to UTC", "timezone", cfg.Timezone, "error", err)
		location = time.UTC
	}

	return &Scheduler{
		subscriberRepo: subscriberRepo,
		articleRepo:    articleRepo,
		collector:      articleCollector,
		scorer:         articleScorer,
		sender:         sender,
		extractor:      extractor,
		location:       location,
		defaultHour:    cfg.DefaultDeliveryHour,
		maxArticles:    cfg.MaxArticles,
		workerCount:    cfg.WorkerCount,
		ctx:            ctx,
		cancel:         cancel,
		taskQueue:      make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() error {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.cron = cron.New(cron.WithLocation(s.location))
	_, err := s.cron.AddFunc("0 * * * *", func() {
		s.RunTick(time.Now().In(s.location).Hour())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule hourly delivery: %w", err)
	}
	s.cron.Start()

	slog.Debug("Scheduler started", "workers", s.workerCount, "timezone", s.location.String())
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.cancel()
	s.wg.Wait()
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

// LastTick reports when the last tick ran and how many subscribers it
// enqueued deliveries for.
func (s *Scheduler) LastTick() (time.Time, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTickAt, s.lastDelivered
}

// RunTick executes one delivery cycle for the given wall-clock hour. It
// blocks until every delivery task of the tick has finished, so the overlap
// flag reflects actual in-flight work.
func (s *Scheduler) RunTick(hour int) {
	if !s.tickRunning.CompareAndSwap(false, true) {
		slog.Warn("Previous delivery tick still running, skipping", "hour", hour)
		return
	}
	defer s.tickRunning.Store(false)

	started := time.Now()

	due, err := s.subscriberRepo.GetDueSubscribers(hour, s.defaultHour)
	if err != nil {
		slog.Error("Failed to load due subscribers", "hour", hour, "error", err)
		return
	}
	if len(due) == 0 {
		slog.Debug("No subscribers due", "hour", hour)
		s.recordTick(started, 0)
		return
	}

	slog.Info("Delivery tick started", "hour", hour, "due_subscribers", len(due))

	articles, err := s.collector.Collect(s.ctx)
	if err != nil {
		slog.Error("Collection failed for delivery tick", "hour", hour, "error", err)
		s.notifyCollectionFailure(due)
		s.recordTick(started, 0)
		return
	}

	scored := s.scorer.Score(s.ctx, articles)

	var tickWg sync.WaitGroup
	for _, subscriber := range due {
		task := NewDeliverDigestTask(subscriber, scored, s.maxArticles,
			s.articleRepo, s.sender, s.extractor, tickWg.Done)

		tickWg.Add(1)
		if err := s.EnqueueTask(task); err != nil {
			tickWg.Done()
			slog.Error("Failed to enqueue DeliverDigestTask", "subscriber", subscriber.LineUserID, "error", err)
		}
	}
	tickWg.Wait()

	s.recordTick(started, len(due))
	slog.Info("Delivery tick finished", "hour", hour, "due_subscribers", len(due), "duration", time.Since(started).String())
}

func (s *Scheduler) recordTick(at time.Time, delivered int) {
	s.mu.Lock()
	s.lastTickAt = at
	s.lastDelivered = delivered
	s.mu.Unlock()
}

func (s *Scheduler) notifyCollectionFailure(due []database.DueSubscriber) {
	for _, subscriber := range due {
		err := s.sender.PushText(s.ctx, subscriber.LineUserID,
			"ニュースの取得に失敗しました。しばらく後にお試しください。")
		if err != nil {
			slog.Warn("Failed to send collection failure notice", "subscriber", subscriber.LineUserID, "error", err)
		}
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
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "subscriber", task.GetSubscriberID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subscriber", task.GetSubscriberID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
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
