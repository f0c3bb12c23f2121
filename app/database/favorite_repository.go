package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ FavoriteRepository = (*SQLFavoriteRepository)(nil)

// SQLFavoriteRepository handles database operations for saved articles
type SQLFavoriteRepository struct {
	db *DB
}

func NewFavoriteRepository(db *DB) *SQLFavoriteRepository {
	return &SQLFavoriteRepository{db: db}
}

// Add saves an article for a subscriber. Unknown subscriber, unknown article
// and duplicate saves are reported as outcomes, not errors.
func (r *SQLFavoriteRepository) Add(lineUserID, articleID string) (Outcome, error) {
	subscriberID, err := r.subscriberID(lineUserID)
	if err != nil {
		return "", err
	}
	if subscriberID == "" {
		return OutcomeUserNotFound, nil
	}

	var exists int
	err = r.db.QueryRow("SELECT COUNT(*) FROM articles WHERE id = ?", articleID).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("failed to check article existence: %w", err)
	}
	if exists == 0 {
		return OutcomeArticleNotFound, nil
	}

	result, err := r.db.Exec(`
		INSERT INTO favorites (id, subscriber_id, article_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (subscriber_id, article_id) DO NOTHING
	`, uuid.NewString(), subscriberID, articleID, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to add favorite: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return OutcomeAlreadyFavorited, nil
	}

	return OutcomeSuccess, nil
}

// Remove deletes a saved article and reports whether a row was removed.
func (r *SQLFavoriteRepository) Remove(lineUserID, articleID string) (bool, error) {
	subscriberID, err := r.subscriberID(lineUserID)
	if err != nil {
		return false, err
	}
	if subscriberID == "" {
		return false, nil
	}

	result, err := r.db.Exec(`
		DELETE FROM favorites WHERE subscriber_id = ? AND article_id = ?
	`, subscriberID, articleID)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

// ListBySubscriber returns saved articles newest-first.
func (r *SQLFavoriteRepository) ListBySubscriber(lineUserID string) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT a.id, a.url, a.title, a.summary, a.source, a.thumbnail_url,
		       a.popularity_score, a.hatena_count, a.hackernews_score, a.reddit_score,
		       a.source_count, a.published_at, a.fetched_at
		FROM favorites f
		JOIN subscribers s ON s.id = f.subscriber_id
		JOIN articles a ON a.id = f.article_id
		WHERE s.line_user_id = ?
		ORDER BY f.created_at DESC
	`, lineUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var article Article
		if err := rows.Scan(
			&article.ID, &article.URL, &article.Title, &article.Summary,
			&article.Source, &article.ThumbnailURL, &article.PopularityScore,
			&article.HatenaCount, &article.HackerNewsScore, &article.RedditScore,
			&article.SourceCount, &article.PublishedAt, &article.FetchedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorite rows: %w", err)
	}

	return articles, nil
}

func (r *SQLFavoriteRepository) subscriberID(lineUserID string) (string, error) {
	var id string
	err := r.db.QueryRow(`
		SELECT id FROM subscribers WHERE line_user_id = ? AND is_active = 1
	`, lineUserID).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up subscriber: %w", err)
	}
	return id, nil
}
