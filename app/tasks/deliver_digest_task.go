package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yknsg/ainews-digest/app/collector"
	"github.com/yknsg/ainews-digest/app/database"
	"github.com/yknsg/ainews-digest/app/digest"
	"github.com/yknsg/ainews-digest/app/line"
	"github.com/yknsg/ainews-digest/app/scoring"
)

// DeliverDigestTask delivers one tick's scored articles to one subscriber:
// preference filter, truncate, summary backfill, persist, render, send. The
// scored slice is shared across the tick's tasks and must not be mutated.
type DeliverDigestTask struct {
	Task
	Subscriber  database.DueSubscriber
	Scored      []scoring.ScoredArticle
	MaxArticles int
	articleRepo database.ArticleRepository
	sender      MessageSender
	extractor   SummaryBackfiller
	done        func()
}

func NewDeliverDigestTask(subscriber database.DueSubscriber, scored []scoring.ScoredArticle,
	maxArticles int, articleRepo database.ArticleRepository, sender MessageSender,
	extractor SummaryBackfiller, done func()) *DeliverDigestTask {
	task := NewTask(TaskTypeDeliverDigest, subscriber.LineUserID)
	// A retried delivery could double-send the digest, so this task never
	// retries.
	task.MaxRetries = 0

	return &DeliverDigestTask{
		Task:        task,
		Subscriber:  subscriber,
		Scored:      scored,
		MaxArticles: maxArticles,
		articleRepo: articleRepo,
		sender:      sender,
		extractor:   extractor,
		done:        done,
	}
}

func (t *DeliverDigestTask) Execute(ctx context.Context) error {
	if t.done != nil {
		defer t.done()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	articles := digest.Filter(t.Scored, t.Subscriber.Categories, t.Subscriber.Language)
	if len(articles) > t.MaxArticles {
		articles = articles[:t.MaxArticles]
	}

	if len(articles) == 0 {
		err := t.sender.PushText(ctx, t.Subscriber.LineUserID,
			"現在配信できるニュースがありません。\n設定を変更すると、より多くの記事が表示される場合があります。")
		if err != nil {
			return fmt.Errorf("failed to send no-content notice: %w", err)
		}
		slog.Info("Task completed", "type", "DeliverDigest", "subscriber", t.SubscriberID, "duration", t.GetDuration(), "articles", 0)
		return nil
	}

	articles = t.backfillSummaries(ctx, articles)

	if err := t.persistArticles(articles); err != nil {
		return fmt.Errorf("failed to persist articles: %w", err)
	}

	carousel := line.NewsCarousel(articles)
	altText := fmt.Sprintf("本日のAIニュース TOP%d", len(articles))
	if err := t.sender.PushFlex(ctx, t.Subscriber.LineUserID, altText, carousel); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}

	slog.Info("Task completed",
		"type", "DeliverDigest",
		"subscriber", t.SubscriberID,
		"duration", t.GetDuration(),
		"articles", len(articles))

	return nil
}

// backfillSummaries fills in missing summaries by extracting page content.
// Runs only on the truncated set so at most MaxArticles pages are fetched;
// an extraction failure leaves the summary empty.
func (t *DeliverDigestTask) backfillSummaries(ctx context.Context, articles []scoring.ScoredArticle) []scoring.ScoredArticle {
	backfilled := make([]scoring.ScoredArticle, len(articles))
	copy(backfilled, articles)

	for i := range backfilled {
		if backfilled[i].Summary != "" {
			continue
		}
		summary, err := t.extractor.Extract(ctx, backfilled[i].URL)
		if err != nil {
			slog.Debug("Summary backfill failed", "url", backfilled[i].URL, "error", err)
			continue
		}
		backfilled[i].Summary = summary
	}

	return backfilled
}

func (t *DeliverDigestTask) persistArticles(articles []scoring.ScoredArticle) error {
	now := time.Now().UTC()

	for _, article := range articles {
		dbArticle := database.Article{
			ID:              collector.ArticleID(article.URL),
			URL:             article.URL,
			Title:           article.Title,
			Summary:         article.Summary,
			Source:          article.Source,
			ThumbnailURL:    article.ThumbnailURL,
			PopularityScore: article.PopularityScore,
			HatenaCount:     article.HatenaCount,
			HackerNewsScore: article.HackerNewsScore,
			RedditScore:     article.RedditScore,
			SourceCount:     article.SourceCount,
			PublishedAt:     article.PublishedAt,
			FetchedAt:       now,
		}

		if err := t.articleRepo.UpsertArticle(dbArticle); err != nil {
			return fmt.Errorf("failed to upsert article %s: %w", dbArticle.ID, err)
		}
	}

	return nil
}
