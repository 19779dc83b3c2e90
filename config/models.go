package config

// Config holds the configuration of the application
// Use config.LoadConfig to create a new instance
type Config struct {
	Model   ModelConfig   `mapstructure:"model"`
	Wiki    WikiConfig    `mapstructure:"wiki"`
	Eval    EvalConfig    `mapstructure:"eval"`
	History HistoryConfig `mapstructure:"history"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

// ModelConfig points at the model server that decodes parser actions and
// reconstructs AMR graphs from them.
type ModelConfig struct {
	ServerURL string `mapstructure:"server_url"`
	// Checkpoint identifies the model checkpoint (epoch) used for decoding.
	Checkpoint string `mapstructure:"checkpoint"`
	BeamSize   int    `mapstructure:"beam_size"`
	BatchSize  int    `mapstructure:"batch_size"`
	// MinServerVersion gates startup on the model server's advertised version.
	MinServerVersion string `mapstructure:"min_server_version"`
}

// WikiConfig points at the wiki link resolution server.
type WikiConfig struct {
	ServerURL     string `mapstructure:"server_url"`
	KnowledgeBase string `mapstructure:"knowledge_base"`
	// CandidateTags lists annotation tags eligible for wiki augmentation.
	// Empty means the built-in named-entity tag set.
	CandidateTags []string `mapstructure:"candidate_tags"`
}

// EvalConfig holds the per-split reference artifacts and scoring knobs.
type EvalConfig struct {
	// Restarts is the number of independent scorer restarts per graph pair.
	Restarts int `mapstructure:"restarts"`
	// Significant is the number of significant digits reported scores are
	// rounded to.
	Significant int `mapstructure:"significant"`
	// Seed drives the scorer's randomized restarts, making runs repeatable.
	Seed      int64       `mapstructure:"seed"`
	ReportDir string      `mapstructure:"report_dir"`
	Dev       SplitConfig `mapstructure:"dev"`
	Test      SplitConfig `mapstructure:"test"`
}

// SplitConfig holds the file artifacts for one corpus split. An empty
// WikiReference means wiki mode is off for the split.
type SplitConfig struct {
	Candidates    string `mapstructure:"candidates"`
	Reference     string `mapstructure:"reference"`
	WikiReference string `mapstructure:"wiki_reference"`
	Annotations   string `mapstructure:"annotations"`
}

// HistoryConfig configures the evaluation run history store. An empty DBPath
// disables history recording.
type HistoryConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	// Secret is loaded from ENV not config file.
	Secret   string `mapstructure:"secret"`
	Required bool   `mapstructure:"required"`
}
