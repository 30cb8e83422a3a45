package config

// Config is the top-level configuration parsed from patchgate YAML.
type Config struct {
	BaseDir    string `yaml:"basedir"`
	WorkDir    string `yaml:"workdir"`
	Repo       string `yaml:"repo"`
	Mode       string `yaml:"mode"`
	LogLevel   string `yaml:"log_level"`
	AllowDirty bool   `yaml:"allow_dirty"`
	LogURL     string `yaml:"log_url"`

	Tracker     TrackerConfig     `yaml:"tracker"`
	GitHub      GitHubConfig      `yaml:"github"`
	ReviewBoard ReviewBoardConfig `yaml:"review_board"`

	Tools          ToolsConfig              `yaml:"tools"`
	Warnings       map[string]WarningConfig `yaml:"warnings"`
	StaticAnalysis StaticAnalysisConfig     `yaml:"static_analysis"`
	Skip           SkipConfig               `yaml:"skip"`
}

// TrackerConfig holds the issue tracker endpoint and credentials.
type TrackerConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// GitHubConfig identifies the repository pull-request diffs come from.
type GitHubConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
	Token string `yaml:"token"`
}

// ReviewBoardConfig holds the review-board base URL for rb-N sources.
type ReviewBoardConfig struct {
	URL string `yaml:"url"`
}

// ToolsConfig holds external tool command overrides and invocation timeouts.
type ToolsConfig struct {
	Git         string `yaml:"git"`
	Build       string `yaml:"build"`
	Tests       string `yaml:"tests"`
	Timeout     string `yaml:"timeout"`
	TestTimeout string `yaml:"test_timeout"`
}

// WarningConfig defines one regression-only warning check: a command run
// identically before and after the patch, and a line pattern that counts
// its warnings.
type WarningConfig struct {
	Command string `yaml:"command"`
	Pattern string `yaml:"pattern"`
	Timeout string `yaml:"timeout"`
}

// StaticAnalysisConfig defines the bug-pattern tool invocation.
type StaticAnalysisConfig struct {
	Command string `yaml:"command"`
	Pattern string `yaml:"pattern"`
	Timeout string `yaml:"timeout"`
}

// SkipConfig disables expensive gates for quick local runs.
type SkipConfig struct {
	Tests          bool `yaml:"tests"`
	StaticAnalysis bool `yaml:"static_analysis"`
}
