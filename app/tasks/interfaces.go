package tasks

import (
	"context"
	"time"

	"github.com/yknsg/ainews-digest/app/collector"
	"github.com/yknsg/ainews-digest/app/scoring"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage the hourly delivery pipeline.
// Example usage:
//
//	scheduler := NewScheduler(subscriberRepo, articleRepo, collector, scorer, sender, extractor)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start() error
	Stop()
	EnqueueTask(task TaskInterface) error
	RunTick(hour int)
	LastTick() (time.Time, int)
}

// ArticleCollector gathers candidate articles from all configured sources.
type ArticleCollector interface {
	Collect(ctx context.Context) ([]collector.Article, error)
}

// ArticleScorer annotates articles with popularity signals and sorts them.
type ArticleScorer interface {
	Score(ctx context.Context, articles []collector.Article) []scoring.ScoredArticle
}

// MessageSender pushes digest content to a subscriber.
type MessageSender interface {
	PushText(ctx context.Context, userID, text string) error
	PushFlex(ctx context.Context, userID, altText string, contents map[string]any) error
}

// SummaryBackfiller produces a summary for articles that arrived without one.
type SummaryBackfiller interface {
	Extract(ctx context.Context, url string) (string, error)
}
