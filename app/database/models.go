package database

import (
	"time"
)

type Subscriber struct {
	ID          string // Database UUID
	LineUserID  string // External LINE user identity
	DisplayName string
	IsActive    bool
	CreatedAt   time.Time
}

type SubscriberSettings struct {
	ID           string
	SubscriberID string
	DeliveryHour int      // 0-23
	Categories   []string // Decoded from the categories JSON column
	Language     string   // "ja", "en" or "both"
	UpdatedAt    time.Time
}

type Article struct {
	ID              string // First 16 hex chars of md5 over the normalized URL
	URL             string
	Title           string
	Summary         string
	Source          string
	ThumbnailURL    string
	PopularityScore int
	HatenaCount     int
	HackerNewsScore int
	RedditScore     int
	SourceCount     int
	PublishedAt     *time.Time
	FetchedAt       time.Time
}

type Favorite struct {
	ID           string
	SubscriberID string
	ArticleID    string
	CreatedAt    time.Time
}
