package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is everything outside the invocation core itself: where the
// binaries live, where artifacts and the database go, and the retry
// schedule the template path uses. The 5-minute attempt ceiling is not
// here on purpose; it is a hard constant of the wrapper contract.
type Config struct {
	AgentBin      string `mapstructure:"agent_bin"`
	BridgeBin     string `mapstructure:"bridge_bin"`
	AgentName     string `mapstructure:"agent_name"`
	Model         string `mapstructure:"model"`
	SettingsPath  string `mapstructure:"settings_path"`
	ArtifactDir   string `mapstructure:"artifact_dir"`
	DBPath        string `mapstructure:"db_path"`
	TrackerPath   string `mapstructure:"tracker_path"`
	WorkspaceMode string `mapstructure:"workspace_mode"`
	RepoPath      string `mapstructure:"repo_path"`
	MaxAttempts   int    `mapstructure:"max_attempts"`
	RetryDelays   []int  `mapstructure:"retry_delays_seconds"`
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
}

func Default() Config {
	return Config{
		AgentBin:      "claude",
		BridgeBin:     "agent-bridge",
		AgentName:     "delegate",
		Model:         "sonnet",
		ArtifactDir:   "artifacts",
		DBPath:        "artifacts/delegate.db",
		WorkspaceMode: "in_place",
		RepoPath:      ".",
		MaxAttempts:   3,
		RetryDelays:   []int{1, 3, 5},
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load layers an optional YAML file and DELEGATE_* environment overrides
// on top of the defaults.
func Load(path string) (Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("agent_bin", defaults.AgentBin)
	v.SetDefault("bridge_bin", defaults.BridgeBin)
	v.SetDefault("agent_name", defaults.AgentName)
	v.SetDefault("model", defaults.Model)
	v.SetDefault("settings_path", defaults.SettingsPath)
	v.SetDefault("artifact_dir", defaults.ArtifactDir)
	v.SetDefault("db_path", defaults.DBPath)
	v.SetDefault("tracker_path", defaults.TrackerPath)
	v.SetDefault("workspace_mode", defaults.WorkspaceMode)
	v.SetDefault("repo_path", defaults.RepoPath)
	v.SetDefault("max_attempts", defaults.MaxAttempts)
	v.SetDefault("retry_delays_seconds", defaults.RetryDelays)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)

	v.SetEnvPrefix("DELEGATE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// RetryDelayDurations converts the configured schedule to durations.
func (c Config) RetryDelayDurations() []time.Duration {
	out := make([]time.Duration, 0, len(c.RetryDelays))
	for _, seconds := range c.RetryDelays {
		out = append(out, time.Duration(seconds)*time.Second)
	}
	return out
}
