package config

// Config holds the configuration of the application
// Use cmd.NewConfig to create a new instance
type Config struct {
	Vision      VisionConfig      `mapstructure:"vision"`
	Crawler     CrawlerConfig     `mapstructure:"crawler"`
	Labels      []LabelConfig     `mapstructure:"labels"`
	LabelStudio LabelStudioConfig `mapstructure:"label_studio"`
	Dashboard   DashboardConfig   `mapstructure:"dashboard"`
	Store       StoreConfig       `mapstructure:"store"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Auth        AuthConfig        `mapstructure:"auth"`
	DataConfig  DataConfig        `mapstructure:"data"`
}

// VisionConfig holds the connection settings for the hosted object-detection
// service. Keys are loaded from ENV, not the config file.
type VisionConfig struct {
	TrainingEndpoint     string `mapstructure:"training_endpoint"`
	PredictionEndpoint   string `mapstructure:"prediction_endpoint"`
	TrainingKey          string `mapstructure:"training_key"`
	PredictionKey        string `mapstructure:"prediction_key"`
	ProjectID            string `mapstructure:"project_id"`
	PredictionResourceID string `mapstructure:"prediction_resource_id"`
	AdvancedTraining     bool   `mapstructure:"advanced_training"`
	// TrainingTimeout bounds the poll loop waiting for an iteration to
	// complete, in minutes. Zero disables the timeout.
	TrainingTimeout int `mapstructure:"training_timeout"`
	// PollInterval is the iteration status poll interval in seconds.
	PollInterval int `mapstructure:"poll_interval"`
}

type CrawlerConfig struct {
	YouTube   YouTubeCrawlerConfig   `mapstructure:"youtube"`
	Playboard PlayboardCrawlerConfig `mapstructure:"playboard"`
	// HDOnly accepts only maxres thumbnails when true. Otherwise the
	// crawler walks down the quality ladder and records what it got.
	HDOnly bool `mapstructure:"hd_only"`
	// MinWidth rejects decoded thumbnails narrower than this many pixels.
	MinWidth int `mapstructure:"min_width"`
	// DedupByHash enables perceptual-hash duplicate filtering within a run.
	DedupByHash bool   `mapstructure:"dedup_by_hash"`
	UserAgent   string `mapstructure:"user_agent"`
}

type YouTubeCrawlerConfig struct {
	TrendingURL string `mapstructure:"trending_url"`
}

type PlayboardCrawlerConfig struct {
	ChartURL string `mapstructure:"chart_url"`
	Year     int    `mapstructure:"year"`
	Month    int    `mapstructure:"month"`
	// SessionCookie is loaded from ENV, not the config file. The daily
	// chart pages require an authenticated session.
	SessionCookie string `mapstructure:"session_cookie"`
}

// LabelConfig describes one category of the detection model.
type LabelConfig struct {
	Name      string  `mapstructure:"name"`
	ID        int     `mapstructure:"id"`
	Threshold float64 `mapstructure:"threshold"`
	// Weight is used by the dashboard similarity score.
	Weight float64 `mapstructure:"weight"`
}

type LabelStudioConfig struct {
	// Command is the executable used to launch the labeling tool.
	Command string `mapstructure:"command"`
	PIDFile string `mapstructure:"pid_file"`
	// DocumentRoot is exported as the tool's local-files document root.
	DocumentRoot string `mapstructure:"document_root"`
}

// DashboardConfig names the published iterations the demo dashboard
// scores uploads against.
type DashboardConfig struct {
	ViewCountIteration string `mapstructure:"viewcount_iteration"`
	TrendingIteration  string `mapstructure:"trending_iteration"`
	// DefaultThreshold is the initial confidence slider position.
	DefaultThreshold float64 `mapstructure:"default_threshold"`
}

type StoreConfig struct {
	Type   string       `mapstructure:"type"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
}

type SQLiteConfig struct {
	DSN string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	Secret   string `mapstructure:"secret"`
	Required bool   `mapstructure:"required"`
}

// DataConfig holds filesystem layout for crawled data and pipeline output.
type DataConfig struct {
	// Root is the base directory under which crawl output is written.
	Root string `mapstructure:"root"`
	// PurgeEvery is the interval, in minutes, at which stale analysis
	// records are purged while the dashboard runs. 0 disables purging.
	PurgeEvery int `mapstructure:"purge_every"`
	// AnalysisTTL is the age, in minutes, after which a stored analysis
	// is considered stale. 0 keeps analyses forever.
	AnalysisTTL int `mapstructure:"analysis_ttl"`
}
