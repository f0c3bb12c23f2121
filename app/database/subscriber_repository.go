package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yknsg/ainews-digest/app/digest"
)

var _ SubscriberRepository = (*SQLSubscriberRepository)(nil)

// SQLSubscriberRepository handles database operations for subscribers and
// their delivery preferences
type SQLSubscriberRepository struct {
	db *DB
}

func NewSubscriberRepository(db *DB) *SQLSubscriberRepository {
	return &SQLSubscriberRepository{db: db}
}

// decodeCategories parses the categories JSON column. A malformed or empty
// value falls back to the default category set rather than failing the read.
func decodeCategories(raw string) []string {
	if raw == "" {
		return digest.DefaultCategories()
	}

	var categories []string
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		slog.Warn("Malformed categories value, using defaults", "raw", raw, "error", err)
		return digest.DefaultCategories()
	}
	return categories
}

func encodeCategories(categories []string) string {
	data, err := json.Marshal(categories)
	if err != nil {
		// []string cannot fail to marshal; keep the column valid regardless.
		return "[]"
	}
	return string(data)
}

// GetDueSubscribers returns active subscribers whose configured delivery hour
// matches. When hour equals defaultHour, active subscribers without any
// settings row join the due set with default preferences; a subscriber with
// an explicit different hour is never part of that fallback group.
func (r *SQLSubscriberRepository) GetDueSubscribers(hour, defaultHour int) ([]DueSubscriber, error) {
	rows, err := r.db.Query(`
		SELECT s.line_user_id, ss.categories, ss.language
		FROM subscribers s
		JOIN subscriber_settings ss ON ss.subscriber_id = s.id
		WHERE s.is_active = 1
		  AND ss.delivery_hour = ?
	`, hour)
	if err != nil {
		return nil, fmt.Errorf("failed to get due subscribers: %w", err)
	}
	defer rows.Close()

	var due []DueSubscriber
	for rows.Next() {
		var lineUserID, categories, language string
		if err := rows.Scan(&lineUserID, &categories, &language); err != nil {
			return nil, fmt.Errorf("failed to scan due subscriber row: %w", err)
		}
		due = append(due, DueSubscriber{
			LineUserID: lineUserID,
			Categories: decodeCategories(categories),
			Language:   language,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due subscriber rows: %w", err)
	}

	if hour != defaultHour {
		return due, nil
	}

	fallbackRows, err := r.db.Query(`
		SELECT s.line_user_id
		FROM subscribers s
		LEFT JOIN subscriber_settings ss ON ss.subscriber_id = s.id
		WHERE s.is_active = 1
		  AND ss.id IS NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get fallback subscribers: %w", err)
	}
	defer fallbackRows.Close()

	for fallbackRows.Next() {
		var lineUserID string
		if err := fallbackRows.Scan(&lineUserID); err != nil {
			return nil, fmt.Errorf("failed to scan fallback subscriber row: %w", err)
		}
		due = append(due, DueSubscriber{
			LineUserID: lineUserID,
			Categories: digest.DefaultCategories(),
			Language:   "both",
		})
	}
	if err := fallbackRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fallback subscriber rows: %w", err)
	}

	return due, nil
}

// GetSettings returns the settings for a subscriber, creating a default row
// on first access. Returns nil when the subscriber is unknown.
func (r *SQLSubscriberRepository) GetSettings(lineUserID string) (*SubscriberSettings, error) {
	subscriber, err := r.getSubscriber(lineUserID)
	if err != nil {
		return nil, err
	}
	if subscriber == nil {
		return nil, nil
	}

	settings, err := r.getSettingsBySubscriberID(subscriber.ID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}

	return r.createDefaultSettings(subscriber.ID)
}

func (r *SQLSubscriberRepository) Register(lineUserID, displayName string) (*Subscriber, error) {
	_, err := r.db.Exec(`
		INSERT INTO subscribers (id, line_user_id, display_name, is_active, created_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT (line_user_id) DO UPDATE SET
			is_active = 1,
			display_name = CASE WHEN excluded.display_name != '' THEN excluded.display_name ELSE subscribers.display_name END
	`, uuid.NewString(), lineUserID, displayName, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to register subscriber: %w", err)
	}

	return r.getSubscriber(lineUserID)
}

func (r *SQLSubscriberRepository) Deactivate(lineUserID string) error {
	_, err := r.db.Exec(`
		UPDATE subscribers SET is_active = 0 WHERE line_user_id = ?
	`, lineUserID)
	if err != nil {
		return fmt.Errorf("failed to deactivate subscriber: %w", err)
	}
	return nil
}

func (r *SQLSubscriberRepository) UpdateDeliveryHour(lineUserID string, hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("delivery hour must be within 0-23, got %d", hour)
	}

	subscriber, err := r.getSubscriber(lineUserID)
	if err != nil {
		return err
	}
	if subscriber == nil {
		return fmt.Errorf("subscriber not found: %s", lineUserID)
	}

	return r.upsertSettings(subscriber.ID, func(s *SubscriberSettings) {
		s.DeliveryHour = hour
	})
}

// ToggleCategory flips a category on or off and returns the new state.
func (r *SQLSubscriberRepository) ToggleCategory(lineUserID, category string) (bool, error) {
	subscriber, err := r.getSubscriber(lineUserID)
	if err != nil {
		return false, err
	}
	if subscriber == nil {
		return false, fmt.Errorf("subscriber not found: %s", lineUserID)
	}

	var enabled bool
	err = r.upsertSettings(subscriber.ID, func(s *SubscriberSettings) {
		categories := make([]string, 0, len(s.Categories))
		enabled = true
		for _, c := range s.Categories {
			if c == category {
				enabled = false
				continue
			}
			categories = append(categories, c)
		}
		if enabled {
			categories = append(categories, category)
		}
		s.Categories = categories
	})
	return enabled, err
}

func (r *SQLSubscriberRepository) UpdateLanguage(lineUserID, language string) error {
	if language != "ja" && language != "en" && language != "both" {
		return fmt.Errorf("language must be 'ja', 'en' or 'both', got '%s'", language)
	}

	subscriber, err := r.getSubscriber(lineUserID)
	if err != nil {
		return err
	}
	if subscriber == nil {
		return fmt.Errorf("subscriber not found: %s", lineUserID)
	}

	return r.upsertSettings(subscriber.ID, func(s *SubscriberSettings) {
		s.Language = language
	})
}

func (r *SQLSubscriberRepository) GetSubscriberCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM subscribers WHERE is_active = 1").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get subscriber count: %w", err)
	}
	return count, nil
}

func (r *SQLSubscriberRepository) getSubscriber(lineUserID string) (*Subscriber, error) {
	var subscriber Subscriber
	var isActive int
	err := r.db.QueryRow(`
		SELECT id, line_user_id, display_name, is_active, created_at
		FROM subscribers
		WHERE line_user_id = ?
	`, lineUserID).Scan(
		&subscriber.ID, &subscriber.LineUserID, &subscriber.DisplayName,
		&isActive, &subscriber.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}

	subscriber.IsActive = isActive == 1
	return &subscriber, nil
}

func (r *SQLSubscriberRepository) getSettingsBySubscriberID(subscriberID string) (*SubscriberSettings, error) {
	var settings SubscriberSettings
	var categories string
	err := r.db.QueryRow(`
		SELECT id, subscriber_id, delivery_hour, categories, language, updated_at
		FROM subscriber_settings
		WHERE subscriber_id = ?
	`, subscriberID).Scan(
		&settings.ID, &settings.SubscriberID, &settings.DeliveryHour,
		&categories, &settings.Language, &settings.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber settings: %w", err)
	}

	settings.Categories = decodeCategories(categories)
	return &settings, nil
}

func (r *SQLSubscriberRepository) createDefaultSettings(subscriberID string) (*SubscriberSettings, error) {
	settings := &SubscriberSettings{
		ID:           uuid.NewString(),
		SubscriberID: subscriberID,
		DeliveryHour: 8,
		Categories:   digest.DefaultCategories(),
		Language:     "both",
		UpdatedAt:    time.Now().UTC(),
	}

	_, err := r.db.Exec(`
		INSERT INTO subscriber_settings (id, subscriber_id, delivery_hour, categories, language, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, settings.ID, settings.SubscriberID, settings.DeliveryHour,
		encodeCategories(settings.Categories), settings.Language, settings.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create default settings: %w", err)
	}

	return settings, nil
}

func (r *SQLSubscriberRepository) upsertSettings(subscriberID string, update func(*SubscriberSettings)) error {
	settings, err := r.getSettingsBySubscriberID(subscriberID)
	if err != nil {
		return err
	}
	if settings == nil {
		settings = &SubscriberSettings{
			ID:           uuid.NewString(),
			SubscriberID: subscriberID,
			DeliveryHour: 8,
			Categories:   digest.DefaultCategories(),
			Language:     "both",
		}
	}

	update(settings)
	settings.UpdatedAt = time.Now().UTC()

	_, err = r.db.Exec(`
		INSERT INTO subscriber_settings (id, subscriber_id, delivery_hour, categories, language, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (subscriber_id) DO UPDATE SET
			delivery_hour = excluded.delivery_hour,
			categories = excluded.categories,
			language = excluded.language,
			updated_at = excluded.updated_at
	`, settings.ID, settings.SubscriberID, settings.DeliveryHour,
		encodeCategories(settings.Categories), settings.Language, settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert subscriber settings: %w", err)
	}

	return nil
}
