package tasks

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/yknsg/ainews-digest/app/collector"
	"github.com/yknsg/ainews-digest/app/database"
	"github.com/yknsg/ainews-digest/app/scoring"
)

type fakeSubscriberRepo struct {
	due     []database.DueSubscriber
	failing bool
}

func (r *fakeSubscriberRepo) GetDueSubscribers(hour, defaultHour int) ([]database.DueSubscriber, error) {
	if r.failing {
		return nil, fmt.Errorf("database unavailable")
	}
	return r.due, nil
}

func (r *fakeSubscriberRepo) GetSettings(lineUserID string) (*database.SubscriberSettings, error) {
	return nil, nil
}
func (r *fakeSubscriberRepo) Register(lineUserID, displayName string) (*database.Subscriber, error) {
	return nil, nil
}
func (r *fakeSubscriberRepo) Deactivate(lineUserID string) error                  { return nil }
func (r *fakeSubscriberRepo) UpdateDeliveryHour(lineUserID string, h int) error   { return nil }
func (r *fakeSubscriberRepo) ToggleCategory(lineUserID, c string) (bool, error)   { return false, nil }
func (r *fakeSubscriberRepo) UpdateLanguage(lineUserID, language string) error    { return nil }
func (r *fakeSubscriberRepo) GetSubscriberCount() (int, error)                    { return len(r.due), nil }

type fakeCollector struct {
	mu       sync.Mutex
	calls    int
	articles []collector.Article
	failing  bool
}

func (c *fakeCollector) Collect(ctx context.Context) ([]collector.Article, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.failing {
		return nil, fmt.Errorf("all sources failed")
	}
	return c.articles, nil
}

func (c *fakeCollector) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeScorer struct{}

func (s *fakeScorer) Score(ctx context.Context, articles []collector.Article) []scoring.ScoredArticle {
	scored := make([]scoring.ScoredArticle, len(articles))
	for i, article := range articles {
		scored[i] = scoring.ScoredArticle{Article: article, PopularityScore: 10}
	}
	return scored
}

func newTestScheduler(subscriberRepo database.SubscriberRepository, articleRepo database.ArticleRepository,
	c ArticleCollector, sender MessageSender) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		subscriberRepo: subscriberRepo,
		articleRepo:    articleRepo,
		collector:      c,
		scorer:         &fakeScorer{},
		sender:         sender,
		extractor:      &fakeExtractor{},
		location:       time.UTC,
		defaultHour:    8,
		maxArticles:    5,
		workerCount:    2,
		ctx:            ctx,
		cancel:         cancel,
		taskQueue:      make(chan TaskInterface, 16),
	}
}

func startWorkers(s *Scheduler) {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func stopScheduler(s *Scheduler) {
	s.cancel()
	s.wg.Wait()
}

func TestRunTick_DeliversToAllDueSubscribers(t *testing.T) {
	subscriberRepo := &fakeSubscriberRepo{due: []database.DueSubscriber{
		dueSubscriber("U1"),
		dueSubscriber("U2"),
	}}
	articleRepo := &fakeArticleRepo{}
	c := &fakeCollector{articles: []collector.Article{
		{URL: "https://x.com/a", Title: "GPT news", Summary: "llm", Source: "Feed", SourceCount: 1},
	}}
	sender := newFakeSender()

	s := newTestScheduler(subscriberRepo, articleRepo, c, sender)
	startWorkers(s)
	defer stopScheduler(s)

	s.RunTick(8)

	if sender.flexes["U1"] != 1 || sender.flexes["U2"] != 1 {
		t.Errorf("Expected both subscribers to receive a digest, got %v", sender.flexes)
	}

	// Collection and scoring run once per tick, not per subscriber
	if c.callCount() != 1 {
		t.Errorf("Expected a single collection per tick, got %d", c.callCount())
	}

	lastTickAt, delivered := s.LastTick()
	if lastTickAt.IsZero() {
		t.Errorf("Expected LastTick to be recorded")
	}
	if delivered != 2 {
		t.Errorf("Expected 2 deliveries recorded, got %d", delivered)
	}
}

func TestRunTick_FailingSubscriberDoesNotAffectOthers(t *testing.T) {
	subscriberRepo := &fakeSubscriberRepo{due: []database.DueSubscriber{
		dueSubscriber("U_bad"),
		dueSubscriber("U_good"),
	}}
	articleRepo := &fakeArticleRepo{}
	c := &fakeCollector{articles: []collector.Article{
		{URL: "https://x.com/a", Title: "GPT news", Summary: "llm", Source: "Feed", SourceCount: 1},
	}}
	sender := newFakeSender()
	sender.failFor["U_bad"] = true

	s := newTestScheduler(subscriberRepo, articleRepo, c, sender)
	startWorkers(s)
	defer stopScheduler(s)

	s.RunTick(8)

	if sender.flexes["U_good"] != 1 {
		t.Errorf("Expected the healthy subscriber to receive a digest despite the failing one")
	}
}

func TestRunTick_NoDueSubscribersSkipsCollection(t *testing.T) {
	subscriberRepo := &fakeSubscriberRepo{}
	c := &fakeCollector{}
	sender := newFakeSender()

	s := newTestScheduler(subscriberRepo, &fakeArticleRepo{}, c, sender)
	startWorkers(s)
	defer stopScheduler(s)

	s.RunTick(8)

	if c.callCount() != 0 {
		t.Errorf("Expected no collection when nobody is due, got %d calls", c.callCount())
	}
}

func TestRunTick_SubscriberLoadFailure(t *testing.T) {
	subscriberRepo := &fakeSubscriberRepo{failing: true}
	c := &fakeCollector{}
	sender := newFakeSender()

	s := newTestScheduler(subscriberRepo, &fakeArticleRepo{}, c, sender)
	startWorkers(s)
	defer stopScheduler(s)

	s.RunTick(8)

	if c.callCount() != 0 {
		t.Errorf("Expected no collection when due subscribers cannot be loaded")
	}
	if len(sender.texts) != 0 || len(sender.flexes) != 0 {
		t.Errorf("Expected no messages sent on load failure")
	}
}

func TestRunTick_CollectionFailureNotifiesSubscribers(t *testing.T) {
	subscriberRepo := &fakeSubscriberRepo{due: []database.DueSubscriber{
		dueSubscriber("U1"),
	}}
	c := &fakeCollector{failing: true}
	sender := newFakeSender()

	s := newTestScheduler(subscriberRepo, &fakeArticleRepo{}, c, sender)
	startWorkers(s)
	defer stopScheduler(s)

	s.RunTick(8)

	if len(sender.texts["U1"]) != 1 {
		t.Errorf("Expected a failure notice, got %d texts", len(sender.texts["U1"]))
	}
	if sender.flexes["U1"] != 0 {
		t.Errorf("Expected no digest when collection fails")
	}
}

func TestRunTick_OverlapSkipped(t *testing.T) {
	subscriberRepo := &fakeSubscriberRepo{due: []database.DueSubscriber{
		dueSubscriber("U1"),
	}}
	c := &fakeCollector{}
	sender := newFakeSender()

	s := newTestScheduler(subscriberRepo, &fakeArticleRepo{}, c, sender)
	startWorkers(s)
	defer stopScheduler(s)

	// Simulate a tick still in flight
	s.tickRunning.Store(true)
	s.RunTick(8)

	if c.callCount() != 0 {
		t.Errorf("Expected overlapping tick to be skipped")
	}
	if !s.tickRunning.Load() {
		t.Errorf("Expected the in-flight flag to stay set after a skipped tick")
	}
}

func TestEnqueueTask_QueueFull(t *testing.T) {
	s := newTestScheduler(&fakeSubscriberRepo{}, &fakeArticleRepo{}, &fakeCollector{}, newFakeSender())
	s.taskQueue = make(chan TaskInterface, 1)
	defer s.cancel()

	task := NewDeliverDigestTask(dueSubscriber("U1"), nil, 5, &fakeArticleRepo{}, newFakeSender(), &fakeExtractor{}, nil)

	if err := s.EnqueueTask(task); err != nil {
		t.Fatalf("First enqueue should succeed: %v", err)
	}
	if err := s.EnqueueTask(task); err == nil {
		t.Errorf("Expected error when the queue is full")
	}
}
