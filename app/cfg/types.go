package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	SourcesFile         string
	Port                string
	WorkerCount         int
	LookbackHours       int
	MaxArticles         int
	DefaultDeliveryHour int
	Timezone            string

	// External endpoints
	HackerNewsURL    string
	HatenaCountURL   string
	HNSearchURL      string
	LineAPIURL       string
	LineChannelToken string

	// HTTP behavior
	CollectTimeout int // seconds, feed and story fetches
	SignalTimeout  int // seconds, popularity signal lookups

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
