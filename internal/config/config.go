package config

import (
	"fmt"
	"time"

	"github.com/sitesurvey/camplan/internal/geo"
	"github.com/sitesurvey/camplan/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "camplan.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings. An empty Path keeps
// the database in memory and dumps it to DumpPath every DumpInterval.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and configures the camera repository.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// DSN formats the settings for the pgx driver.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// APIConfig points the api and websocket backends at a server.
type APIConfig struct {
	ServerURL string        `mapstructure:"serverUrl"`
	APIKey    string        `mapstructure:"apiKey"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ServerConfig configures cmd/camplan-server.
type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	PublicDir string `mapstructure:"publicDir"`
	UploadDir string `mapstructure:"uploadDir"`
	// MaxUploadBytes bounds a single floor plan upload.
	MaxUploadBytes int64 `mapstructure:"maxUploadBytes"`
	// APIKey, when set, is required on every write and on the stream.
	APIKey string `mapstructure:"apiKey"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	ServiceName  string        `mapstructure:"serviceName"`
	BatchTimeout time.Duration `mapstructure:"batchTimeout"`
	Endpoint     string        `mapstructure:"endpoint"`
	Insecure     bool          `mapstructure:"insecure"`
}

// InfluxConfig holds InfluxDB settings
type InfluxConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Protocol string `mapstructure:"protocol"`
	Token    string `mapstructure:"token"`
	Org      string `mapstructure:"org"`
	Bucket   string `mapstructure:"bucket"`
}

// URL returns the server base URL.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// SessionConfig holds editing session behaviour.
type SessionConfig struct {
	// BackgroundClick is "create" or "deselect".
	BackgroundClick string `mapstructure:"backgroundClick"`
	// ClickThreshold is the pointer travel, in screen pixels, below which a
	// press-release counts as a click.
	ClickThreshold float64 `mapstructure:"clickThreshold"`
	// HitSlop widens handle hit targets, in screen pixels.
	HitSlop float64 `mapstructure:"hitSlop"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// SetDefaults registers the default values. Load calls it; binaries that
// run without a config file call it directly.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("server.addr", ":3000")
	viper.SetDefault("server.publicDir", "./public")
	viper.SetDefault("server.uploadDir", "./uploads")
	viper.SetDefault("server.maxUploadBytes", 20<<20)
	viper.SetDefault("server.apiKey", "")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./data")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "./data/camplan.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("api.serverUrl", "http://localhost:3000")
	viper.SetDefault("api.apiKey", "")
	viper.SetDefault("api.timeout", "10s")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "camplan")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "camplan-metrics")
	viper.SetDefault("influx.bucket", "camplan")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "camplan")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("vocabulary.statuses", core.DefaultStatuses)
	viper.SetDefault("vocabulary.analysisTypes", core.DefaultAnalysisTypes)

	viper.SetDefault("session.backgroundClick", "create")
	viper.SetDefault("session.clickThreshold", 3.0)
	viper.SetDefault("session.hitSlop", 4.0)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the storage section.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// GetDBConfig returns the PostgreSQL section.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetAPIConfig returns the api section.
func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
		Timeout:   viper.GetDuration("api.timeout"),
	}
}

// GetServerConfig returns the server section.
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           viper.GetString("server.addr"),
		PublicDir:      viper.GetString("server.publicDir"),
		UploadDir:      viper.GetString("server.uploadDir"),
		MaxUploadBytes: viper.GetInt64("server.maxUploadBytes"),
		APIKey:         viper.GetString("server.apiKey"),
	}
}

// GetOTelConfig returns the otel section.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns the influx section.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetVocabulary returns the default option lists for new projects.
func GetVocabulary() core.Vocabulary {
	return core.Vocabulary{
		Statuses:      viper.GetStringSlice("vocabulary.statuses"),
		AnalysisTypes: viper.GetStringSlice("vocabulary.analysisTypes"),
	}.WithFallback(core.DefaultVocabulary())
}

// GetGeoreference returns the floor plan anchor. ok is false when the
// section is absent.
func GetGeoreference() (g geo.Georeference, ok bool, err error) {
	if !viper.IsSet("georeference") {
		return geo.Georeference{}, false, nil
	}
	if err := viper.UnmarshalKey("georeference", &g); err != nil {
		return geo.Georeference{}, false, fmt.Errorf("georeference: %w", err)
	}
	if err := g.Validate(); err != nil {
		return geo.Georeference{}, false, fmt.Errorf("georeference: %w", err)
	}
	return g, true, nil
}

// GetSessionConfig returns the session section.
func GetSessionConfig() SessionConfig {
	return SessionConfig{
		BackgroundClick: viper.GetString("session.backgroundClick"),
		ClickThreshold:  viper.GetFloat64("session.clickThreshold"),
		HitSlop:         viper.GetFloat64("session.hitSlop"),
	}
}
