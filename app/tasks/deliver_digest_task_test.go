package tasks

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/yknsg/ainews-digest/app/collector"
	"github.com/yknsg/ainews-digest/app/database"
	"github.com/yknsg/ainews-digest/app/scoring"
)

type fakeArticleRepo struct {
	mu       sync.Mutex
	upserted []database.Article
	failing  bool
}

func (r *fakeArticleRepo) UpsertArticle(article database.Article) error {
	if r.failing {
		return fmt.Errorf("storage unavailable")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserted = append(r.upserted, article)
	return nil
}

func (r *fakeArticleRepo) GetArticle(id string) (*database.Article, error) { return nil, nil }
func (r *fakeArticleRepo) GetArticleCount() (int, error)                   { return 0, nil }

type fakeSender struct {
	mu      sync.Mutex
	texts   map[string][]string
	flexes  map[string]int
	failFor map[string]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		texts:   make(map[string][]string),
		flexes:  make(map[string]int),
		failFor: make(map[string]bool),
	}
}

func (s *fakeSender) PushText(ctx context.Context, userID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[userID] {
		return fmt.Errorf("push rejected")
	}
	s.texts[userID] = append(s.texts[userID], text)
	return nil
}

func (s *fakeSender) PushFlex(ctx context.Context, userID, altText string, contents map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[userID] {
		return fmt.Errorf("push rejected")
	}
	s.flexes[userID]++
	return nil
}

type fakeExtractor struct {
	summary string
}

func (e *fakeExtractor) Extract(ctx context.Context, url string) (string, error) {
	if e.summary == "" {
		return "", fmt.Errorf("extraction failed")
	}
	return e.summary, nil
}

func scoredGPTArticle(url string, score int) scoring.ScoredArticle {
	return scoring.ScoredArticle{
		Article: collector.Article{
			URL:         url,
			Title:       "GPT update at " + url,
			Summary:     "LLM news summary",
			Source:      "Feed",
			SourceCount: 1,
		},
		PopularityScore: score,
	}
}

func dueSubscriber(id string) database.DueSubscriber {
	return database.DueSubscriber{
		LineUserID: id,
		Categories: []string{"llm"},
		Language:   "both",
	}
}

func TestDeliverDigestTask_SendsDigest(t *testing.T) {
	repo := &fakeArticleRepo{}
	sender := newFakeSender()

	scored := []scoring.ScoredArticle{
		scoredGPTArticle("https://x.com/a", 40),
		scoredGPTArticle("https://x.com/b", 20),
	}

	task := NewDeliverDigestTask(dueSubscriber("U1"), scored, 5, repo, sender, &fakeExtractor{}, nil)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if sender.flexes["U1"] != 1 {
		t.Errorf("Expected 1 flex message, got %d", sender.flexes["U1"])
	}
	if len(repo.upserted) != 2 {
		t.Errorf("Expected 2 persisted articles, got %d", len(repo.upserted))
	}
	if repo.upserted[0].ID != collector.ArticleID("https://x.com/a") {
		t.Errorf("Expected persisted id derived from normalized URL, got %q", repo.upserted[0].ID)
	}
}

func TestDeliverDigestTask_TruncatesToMax(t *testing.T) {
	repo := &fakeArticleRepo{}
	sender := newFakeSender()

	scored := make([]scoring.ScoredArticle, 8)
	for i := range scored {
		scored[i] = scoredGPTArticle(fmt.Sprintf("https://x.com/%d", i), 10)
	}

	task := NewDeliverDigestTask(dueSubscriber("U1"), scored, 5, repo, sender, &fakeExtractor{}, nil)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(repo.upserted) != 5 {
		t.Errorf("Expected 5 persisted articles after truncation, got %d", len(repo.upserted))
	}
}

func TestDeliverDigestTask_EmptySendsNotice(t *testing.T) {
	repo := &fakeArticleRepo{}
	sender := newFakeSender()

	// Nothing matches the robotics category
	subscriber := database.DueSubscriber{
		LineUserID: "U1",
		Categories: []string{"robotics"},
		Language:   "both",
	}
	scored := []scoring.ScoredArticle{scoredGPTArticle("https://x.com/a", 40)}

	task := NewDeliverDigestTask(subscriber, scored, 5, repo, sender, &fakeExtractor{}, nil)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected empty digest to succeed, got: %v", err)
	}

	if len(sender.texts["U1"]) != 1 {
		t.Fatalf("Expected a no-content notice, got %d texts", len(sender.texts["U1"]))
	}
	if sender.flexes["U1"] != 0 {
		t.Errorf("Expected no flex message for an empty digest")
	}
	if len(repo.upserted) != 0 {
		t.Errorf("Expected nothing persisted for an empty digest")
	}
}

func TestDeliverDigestTask_PersistFailureAbortsBeforeSend(t *testing.T) {
	repo := &fakeArticleRepo{failing: true}
	sender := newFakeSender()

	scored := []scoring.ScoredArticle{scoredGPTArticle("https://x.com/a", 40)}

	task := NewDeliverDigestTask(dueSubscriber("U1"), scored, 5, repo, sender, &fakeExtractor{}, nil)
	if err := task.Execute(context.Background()); err == nil {
		t.Fatalf("Expected error on persistence failure")
	}

	if sender.flexes["U1"] != 0 {
		t.Errorf("Expected no message sent when persistence fails")
	}
}

func TestDeliverDigestTask_BackfillsMissingSummaries(t *testing.T) {
	repo := &fakeArticleRepo{}
	sender := newFakeSender()

	article := scoredGPTArticle("https://x.com/a", 40)
	article.Summary = ""
	scored := []scoring.ScoredArticle{article}

	task := NewDeliverDigestTask(dueSubscriber("U1"), scored, 5, repo, sender,
		&fakeExtractor{summary: "extracted summary"}, nil)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if repo.upserted[0].Summary != "extracted summary" {
		t.Errorf("Expected backfilled summary, got %q", repo.upserted[0].Summary)
	}

	// The shared scored slice must stay untouched
	if scored[0].Summary != "" {
		t.Errorf("Expected shared slice to remain unmodified, got %q", scored[0].Summary)
	}
}

func TestDeliverDigestTask_ExtractionFailureLeavesSummaryEmpty(t *testing.T) {
	repo := &fakeArticleRepo{}
	sender := newFakeSender()

	article := scoredGPTArticle("https://x.com/a", 40)
	article.Summary = ""
	scored := []scoring.ScoredArticle{article}

	task := NewDeliverDigestTask(dueSubscriber("U1"), scored, 5, repo, sender, &fakeExtractor{}, nil)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected extraction failure to be non-fatal, got: %v", err)
	}

	if repo.upserted[0].Summary != "" {
		t.Errorf("Expected empty summary after failed extraction, got %q", repo.upserted[0].Summary)
	}
}

func TestDeliverDigestTask_NoRetries(t *testing.T) {
	task := NewDeliverDigestTask(dueSubscriber("U1"), nil, 5, &fakeArticleRepo{}, newFakeSender(), &fakeExtractor{}, nil)

	if task.GetMaxRetries() != 0 {
		t.Errorf("Expected delivery task to never retry, got max retries %d", task.GetMaxRetries())
	}
	if task.CanRetry() {
		t.Errorf("Expected CanRetry to be false")
	}
}
