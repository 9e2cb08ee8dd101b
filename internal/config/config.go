package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Log    LogConfig
	CORS   CORSConfig
	Fetch  FetchConfig
	S3     S3Config
	OCR    OCRConfig
	AI     AIConfig
	Budget BudgetConfig
	Email  EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// FetchConfig holds document download settings. AllowedDomains is the
// SSRF guard: a fileUrl whose host is not listed here is rejected
// before any request is made.
type FetchConfig struct {
	AllowedDomains []string      `mapstructure:"allowed_domains"`
	MaxFileSizeMB  int64         `mapstructure:"max_file_size_mb"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// S3Config holds AWS S3 settings for s3:// sources and debug-artifact
// archival. An empty ArtifactBucket disables archival.
type S3Config struct {
	Region         string `mapstructure:"region"`
	Endpoint       string `mapstructure:"endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	ArtifactBucket string `mapstructure:"artifact_bucket"`
}

// OCRConfig holds OCR fallback settings. The replacement thresholds
// are policy knobs, not invariants.
type OCRConfig struct {
	Enabled            bool    `mapstructure:"enabled"`
	Languages          string  `mapstructure:"languages"`
	MinCoverageRatio   float64 `mapstructure:"min_coverage_ratio"`
	MinTextChars       int     `mapstructure:"min_text_chars"`
	ReplaceLengthRatio float64 `mapstructure:"replace_length_ratio"`
	ReplaceConfidence  float64 `mapstructure:"replace_confidence"`
	PdftoppmPath       string  `mapstructure:"pdftoppm_path"`
}

// AIConfig holds LLM post-processing settings.
type AIConfig struct {
	Provider         string        `mapstructure:"provider"`
	APIKey           string        `mapstructure:"api_key"`
	DefaultModel     string        `mapstructure:"default_model"`
	TimeoutSecs      int           `mapstructure:"timeout_secs"`
	MaxRetries       int           `mapstructure:"max_retries"`
	BackoffBase      time.Duration `mapstructure:"backoff_base"`
	BackoffCap       time.Duration `mapstructure:"backoff_cap"`
	BatchSize        int           `mapstructure:"batch_size"`
	TableConcurrency int           `mapstructure:"table_concurrency"`
	BatchDelayMin    time.Duration `mapstructure:"batch_delay_min"`
	BatchDelayMax    time.Duration `mapstructure:"batch_delay_max"`
}

// BudgetConfig holds the hard resource ceilings applied before AI
// processing. Exceeding a budget truncates input deterministically.
type BudgetConfig struct {
	MaxTables         int           `mapstructure:"max_tables"`
	MaxCells          int           `mapstructure:"max_cells"`
	MaxRowsPerTable   int           `mapstructure:"max_rows_per_table"`
	ProcessingTimeout time.Duration `mapstructure:"processing_timeout"`
}

// EmailConfig holds failure-alert delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	AlertTo     string `mapstructure:"alert_to"`
}

// Load reads configuration from environment variables with the AGRIDOCS_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AGRIDOCS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "agridocs")
	v.SetDefault("db.password", "agridocs_secret")
	v.SetDefault("db.name", "agridocs_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Fetch defaults
	v.SetDefault("fetch.allowed_domains", "storage.googleapis.com,s3.amazonaws.com,supabase.co")
	v.SetDefault("fetch.max_file_size_mb", 50)
	v.SetDefault("fetch.timeout", "30s")

	// S3 defaults
	v.SetDefault("s3.region", "eu-central-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.artifact_bucket", "")

	// OCR defaults
	v.SetDefault("ocr.enabled", true)
	v.SetDefault("ocr.languages", "eng")
	v.SetDefault("ocr.min_coverage_ratio", 0.002)
	v.SetDefault("ocr.min_text_chars", 100)
	v.SetDefault("ocr.replace_length_ratio", 1.5)
	v.SetDefault("ocr.replace_confidence", 0.7)
	v.SetDefault("ocr.pdftoppm_path", "pdftoppm")

	// AI defaults
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.default_model", "gpt-4o-mini")
	v.SetDefault("ai.timeout_secs", 60)
	v.SetDefault("ai.max_retries", 3)
	v.SetDefault("ai.backoff_base", "500ms")
	v.SetDefault("ai.backoff_cap", "8s")
	v.SetDefault("ai.batch_size", 5)
	v.SetDefault("ai.table_concurrency", 2)
	v.SetDefault("ai.batch_delay_min", "300ms")
	v.SetDefault("ai.batch_delay_max", "700ms")

	// Budget defaults
	v.SetDefault("budget.max_tables", 50)
	v.SetDefault("budget.max_cells", 50000)
	v.SetDefault("budget.max_rows_per_table", 500)
	v.SetDefault("budget.processing_timeout", "12s")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "eu-central-1")
	v.SetDefault("email.from_address", "noreply@agridocs.local")
	v.SetDefault("email.from_name", "Agridocs")
	v.SetDefault("email.alert_to", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":               "AGRIDOCS_SERVER_PORT",
		"server.read_timeout":       "AGRIDOCS_SERVER_READ_TIMEOUT",
		"server.write_timeout":      "AGRIDOCS_SERVER_WRITE_TIMEOUT",
		"server.environment":        "AGRIDOCS_SERVER_ENVIRONMENT",
		"db.host":                   "AGRIDOCS_DB_HOST",
		"db.port":                   "AGRIDOCS_DB_PORT",
		"db.user":                   "AGRIDOCS_DB_USER",
		"db.password":               "AGRIDOCS_DB_PASSWORD",
		"db.name":                   "AGRIDOCS_DB_NAME",
		"db.sslmode":                "AGRIDOCS_DB_SSLMODE",
		"db.max_open":               "AGRIDOCS_DB_MAX_OPEN",
		"db.max_idle":               "AGRIDOCS_DB_MAX_IDLE",
		"log.level":                 "AGRIDOCS_LOG_LEVEL",
		"log.format":                "AGRIDOCS_LOG_FORMAT",
		"cors.allowed_origins":      "AGRIDOCS_CORS_ALLOWED_ORIGINS",
		"fetch.allowed_domains":     "AGRIDOCS_FETCH_ALLOWED_DOMAINS",
		"fetch.max_file_size_mb":    "AGRIDOCS_FETCH_MAX_FILE_SIZE_MB",
		"fetch.timeout":             "AGRIDOCS_FETCH_TIMEOUT",
		"s3.region":                 "AGRIDOCS_S3_REGION",
		"s3.endpoint":               "AGRIDOCS_S3_ENDPOINT",
		"s3.access_key":             "AGRIDOCS_S3_ACCESS_KEY",
		"s3.secret_key":             "AGRIDOCS_S3_SECRET_KEY",
		"s3.artifact_bucket":        "AGRIDOCS_S3_ARTIFACT_BUCKET",
		"ocr.enabled":               "AGRIDOCS_OCR_ENABLED",
		"ocr.languages":             "AGRIDOCS_OCR_LANGUAGES",
		"ocr.min_coverage_ratio":    "AGRIDOCS_OCR_MIN_COVERAGE_RATIO",
		"ocr.min_text_chars":        "AGRIDOCS_OCR_MIN_TEXT_CHARS",
		"ocr.replace_length_ratio":  "AGRIDOCS_OCR_REPLACE_LENGTH_RATIO",
		"ocr.replace_confidence":    "AGRIDOCS_OCR_REPLACE_CONFIDENCE",
		"ocr.pdftoppm_path":         "AGRIDOCS_OCR_PDFTOPPM_PATH",
		"ai.provider":               "AGRIDOCS_AI_PROVIDER",
		"ai.api_key":                "AGRIDOCS_AI_API_KEY",
		"ai.default_model":          "AGRIDOCS_AI_DEFAULT_MODEL",
		"ai.timeout_secs":           "AGRIDOCS_AI_TIMEOUT_SECS",
		"ai.max_retries":            "AGRIDOCS_AI_MAX_RETRIES",
		"ai.backoff_base":           "AGRIDOCS_AI_BACKOFF_BASE",
		"ai.backoff_cap":            "AGRIDOCS_AI_BACKOFF_CAP",
		"ai.batch_size":             "AGRIDOCS_AI_BATCH_SIZE",
		"ai.table_concurrency":      "AGRIDOCS_AI_TABLE_CONCURRENCY",
		"ai.batch_delay_min":        "AGRIDOCS_AI_BATCH_DELAY_MIN",
		"ai.batch_delay_max":        "AGRIDOCS_AI_BATCH_DELAY_MAX",
		"budget.max_tables":         "AGRIDOCS_BUDGET_MAX_TABLES",
		"budget.max_cells":          "AGRIDOCS_BUDGET_MAX_CELLS",
		"budget.max_rows_per_table": "AGRIDOCS_BUDGET_MAX_ROWS_PER_TABLE",
		"budget.processing_timeout": "AGRIDOCS_BUDGET_PROCESSING_TIMEOUT",
		"email.provider":            "AGRIDOCS_EMAIL_PROVIDER",
		"email.region":              "AGRIDOCS_EMAIL_REGION",
		"email.from_address":        "AGRIDOCS_EMAIL_FROM_ADDRESS",
		"email.from_name":           "AGRIDOCS_EMAIL_FROM_NAME",
		"email.alert_to":            "AGRIDOCS_EMAIL_ALERT_TO",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if AGRIDOCS_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("AGRIDOCS_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitCSV(v.GetString("cors.allowed_origins")),
	}
	cfg.Fetch = FetchConfig{
		AllowedDomains: splitCSV(v.GetString("fetch.allowed_domains")),
		MaxFileSizeMB:  v.GetInt64("fetch.max_file_size_mb"),
		Timeout:        v.GetDuration("fetch.timeout"),
	}
	cfg.S3 = S3Config{
		Region:         v.GetString("s3.region"),
		Endpoint:       v.GetString("s3.endpoint"),
		AccessKey:      v.GetString("s3.access_key"),
		SecretKey:      v.GetString("s3.secret_key"),
		ArtifactBucket: v.GetString("s3.artifact_bucket"),
	}
	cfg.OCR = OCRConfig{
		Enabled:            v.GetBool("ocr.enabled"),
		Languages:          v.GetString("ocr.languages"),
		MinCoverageRatio:   v.GetFloat64("ocr.min_coverage_ratio"),
		MinTextChars:       v.GetInt("ocr.min_text_chars"),
		ReplaceLengthRatio: v.GetFloat64("ocr.replace_length_ratio"),
		ReplaceConfidence:  v.GetFloat64("ocr.replace_confidence"),
		PdftoppmPath:       v.GetString("ocr.pdftoppm_path"),
	}
	cfg.AI = AIConfig{
		Provider:         v.GetString("ai.provider"),
		APIKey:           v.GetString("ai.api_key"),
		DefaultModel:     v.GetString("ai.default_model"),
		TimeoutSecs:      v.GetInt("ai.timeout_secs"),
		MaxRetries:       v.GetInt("ai.max_retries"),
		BackoffBase:      v.GetDuration("ai.backoff_base"),
		BackoffCap:       v.GetDuration("ai.backoff_cap"),
		BatchSize:        v.GetInt("ai.batch_size"),
		TableConcurrency: v.GetInt("ai.table_concurrency"),
		BatchDelayMin:    v.GetDuration("ai.batch_delay_min"),
		BatchDelayMax:    v.GetDuration("ai.batch_delay_max"),
	}
	cfg.Budget = BudgetConfig{
		MaxTables:         v.GetInt("budget.max_tables"),
		MaxCells:          v.GetInt("budget.max_cells"),
		MaxRowsPerTable:   v.GetInt("budget.max_rows_per_table"),
		ProcessingTimeout: v.GetDuration("budget.processing_timeout"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		AlertTo:     v.GetString("email.alert_to"),
	}

	return cfg, nil
}

// splitCSV parses a comma-separated string into trimmed entries.
func splitCSV(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
