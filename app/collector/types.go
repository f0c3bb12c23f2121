package collector

import (
	"time"
)

// Article is a collected news item before scoring. PublishedAt is nil when
// the upstream feed carries no usable date.
type Article struct {
	URL          string
	Title        string
	Summary      string
	Source       string
	ThumbnailURL string
	PublishedAt  *time.Time
	SourceCount  int
}
