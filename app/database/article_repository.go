package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ ArticleRepository = (*SQLArticleRepository)(nil)

// SQLArticleRepository handles database operations for articles
type SQLArticleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) *SQLArticleRepository {
	return &SQLArticleRepository{db: db}
}

// UpsertArticle stores an article keyed by its stable id. Re-scoring the same
// URL updates the score fields in place instead of creating a second row; the
// single INSERT .. ON CONFLICT statement keeps the operation atomic under
// concurrent delivery workers.
func (r *SQLArticleRepository) UpsertArticle(article Article) error {
	fetchedAt := article.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO articles (
			id, url, title, summary, source, thumbnail_url,
			popularity_score, hatena_count, hackernews_score, reddit_score,
			source_count, published_at, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			popularity_score = excluded.popularity_score,
			hatena_count = excluded.hatena_count,
			hackernews_score = excluded.hackernews_score
	`, article.ID, article.URL, article.Title, article.Summary, article.Source,
		article.ThumbnailURL, article.PopularityScore, article.HatenaCount,
		article.HackerNewsScore, article.RedditScore, article.SourceCount,
		article.PublishedAt, fetchedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert article: %w", err)
	}

	return nil
}

func (r *SQLArticleRepository) GetArticle(id string) (*Article, error) {
	var article Article
	err := r.db.QueryRow(`
		SELECT id, url, title, summary, source, thumbnail_url,
		       popularity_score, hatena_count, hackernews_score, reddit_score,
		       source_count, published_at, fetched_at
		FROM articles
		WHERE id = ?
	`, id).Scan(
		&article.ID, &article.URL, &article.Title, &article.Summary,
		&article.Source, &article.ThumbnailURL, &article.PopularityScore,
		&article.HatenaCount, &article.HackerNewsScore, &article.RedditScore,
		&article.SourceCount, &article.PublishedAt, &article.FetchedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return &article, nil
}

func (r *SQLArticleRepository) GetArticleCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}
