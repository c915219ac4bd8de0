package config

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	DataDir      string             `yaml:"data_dir" mapstructure:"data_dir"`
	Collect      CollectConfig      `yaml:"collect" mapstructure:"collect"`
	Ingest       IngestConfig       `yaml:"ingest" mapstructure:"ingest"`
	ClassyFire   ClassyFireConfig   `yaml:"classyfire" mapstructure:"classyfire"`
	NPClassifier NPClassifierConfig `yaml:"npclassifier" mapstructure:"npclassifier"`
	LipidMaps    LipidMapsConfig    `yaml:"lipidmaps" mapstructure:"lipidmaps"`
	Flatten      FlattenConfig      `yaml:"flatten" mapstructure:"flatten"`
	RunLog       RunLogConfig       `yaml:"runlog" mapstructure:"runlog"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// CollectConfig configures the raw dataset download stage.
type CollectConfig struct {
	HMDBArchiveURL     string `yaml:"hmdb_archive_url" mapstructure:"hmdb_archive_url"`
	HMDBDownloadsURL   string `yaml:"hmdb_downloads_url" mapstructure:"hmdb_downloads_url"`
	HMDBVersionPattern string `yaml:"hmdb_version_pattern" mapstructure:"hmdb_version_pattern"`
	LMArchiveURL       string `yaml:"lm_archive_url" mapstructure:"lm_archive_url"`
	LMDownloadsURL     string `yaml:"lm_downloads_url" mapstructure:"lm_downloads_url"`
	LMVersionPattern   string `yaml:"lm_version_pattern" mapstructure:"lm_version_pattern"`
	TimeoutSecs        int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries         int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// IngestConfig configures HMDB XML parsing.
type IngestConfig struct {
	ProgressEvery int   `yaml:"progress_every" mapstructure:"progress_every"`
	BackupPoints  []int `yaml:"backup_points" mapstructure:"backup_points"`
}

// ClassyFireConfig configures the ClassyFire taxonomy client.
type ClassyFireConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts int    `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// NPClassifierConfig configures the NPClassifier client and worker pool.
type NPClassifierConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Workers     int    `yaml:"workers" mapstructure:"workers"`
}

// LipidMapsConfig configures the structural cross-reference matcher.
type LipidMapsConfig struct {
	// MinCriteria is the number of distinct weak identifiers that must agree
	// before a fallback match is accepted.
	MinCriteria int `yaml:"min_criteria" mapstructure:"min_criteria"`
}

// FlattenConfig configures the final columnar artifact.
type FlattenConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // "csv" or "xlsx"
}

// RunLogConfig configures the stage run log database.
type RunLogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// HMDBDir returns the download directory for HMDB dumps.
func (c *Config) HMDBDir() string {
	return filepath.Join(c.DataDir, "download", "HMDB")
}

// LipidMapsDir returns the download directory for LIPID MAPS dumps.
func (c *Config) LipidMapsDir() string {
	return filepath.Join(c.DataDir, "download", "LIPIDMAPS")
}

// StageOutputDir returns the output directory for a pipeline stage.
func (c *Config) StageOutputDir(stage string) string {
	return filepath.Join(c.DataDir, "enrichment", stage, "output")
}

// StageLogDir returns the log directory for a pipeline stage.
func (c *Config) StageLogDir(stage string) string {
	return filepath.Join(c.DataDir, "enrichment", stage, "log")
}

// BackupDir returns the checkpoint directory for the ingestion stage.
func (c *Config) BackupDir() string {
	return filepath.Join(c.DataDir, "enrichment", "classyfire", "backup")
}

// FinalDir returns the directory for the flattened columnar artifact.
func (c *Config) FinalDir() string {
	return filepath.Join(c.DataDir, "final")
}

// RunLogPath returns the path to the run log database.
func (c *Config) RunLogPath() string {
	if c.RunLog.Path != "" {
		return c.RunLog.Path
	}
	return filepath.Join(c.DataDir, "runs.db")
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data_dir", "data")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("collect.hmdb_archive_url", "https://hmdb.ca/system/downloads/current/hmdb_metabolites.zip")
	v.SetDefault("collect.hmdb_downloads_url", "https://hmdb.ca/downloads")
	v.SetDefault("collect.hmdb_version_pattern", `All Metabolites</td><td>(\d{4}-\d{2}-\d{2})</td>`)
	v.SetDefault("collect.lm_archive_url", "https://lipidmaps.org/files/?file=LMSD&ext=sdf.zip")
	v.SetDefault("collect.lm_downloads_url", "https://lipidmaps.org/databases/lmsd/download")
	v.SetDefault("collect.lm_version_pattern", `>LMSD\s+([\d-]+)\s+\(ZIP\)`)
	v.SetDefault("collect.timeout_secs", 60)
	v.SetDefault("collect.max_retries", 3)
	v.SetDefault("ingest.progress_every", 1000)
	v.SetDefault("ingest.backup_points", []int{1000, 10000, 50000, 100000, 150000, 200000})
	v.SetDefault("classyfire.base_url", "http://classyfire.wishartlab.com")
	v.SetDefault("classyfire.timeout_secs", 10)
	v.SetDefault("classyfire.max_attempts", 5)
	v.SetDefault("npclassifier.base_url", "https://npclassifier.gnps2.org")
	v.SetDefault("npclassifier.timeout_secs", 30)
	v.SetDefault("npclassifier.workers", 20)
	v.SetDefault("lipidmaps.min_criteria", 2)
	v.SetDefault("flatten.format", "csv")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
