package database

// DueSubscriber is the delivery view of a subscriber: the external identity
// plus the preference fields the digest pipeline filters on.
type DueSubscriber struct {
	LineUserID string
	Categories []string
	Language   string
}

// Outcome is an explicit result code for operations whose failure modes are
// expected states rather than errors.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeUserNotFound     Outcome = "user_not_found"
	OutcomeArticleNotFound  Outcome = "article_not_found"
	OutcomeAlreadyFavorited Outcome = "already_favorited"
)

type ArticleRepository interface {
	// UpsertArticle inserts the article or, when the id already exists,
	// updates only the recomputed score fields. Must be atomic per id.
	UpsertArticle(article Article) error

	GetArticle(id string) (*Article, error)
	GetArticleCount() (int, error)
}

type SubscriberRepository interface {
	// GetDueSubscribers returns active subscribers whose delivery hour is the
	// given hour. When the hour equals defaultHour it also includes active
	// subscribers with no settings row at all, carrying default preferences.
	GetDueSubscribers(hour, defaultHour int) ([]DueSubscriber, error)

	GetSettings(lineUserID string) (*SubscriberSettings, error)
	Register(lineUserID, displayName string) (*Subscriber, error)
	Deactivate(lineUserID string) error
	UpdateDeliveryHour(lineUserID string, hour int) error
	ToggleCategory(lineUserID, category string) (bool, error)
	UpdateLanguage(lineUserID, language string) error
	GetSubscriberCount() (int, error)
}

type FavoriteRepository interface {
	// Add reports expected states (unknown user, unknown article, duplicate)
	// through the Outcome; the error is reserved for storage failures.
	Add(lineUserID, articleID string) (Outcome, error)
	Remove(lineUserID, articleID string) (bool, error)
	ListBySubscriber(lineUserID string) ([]Article, error)
}
