package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values.
// Secrets should come from the environment or a .env file, never from defaults in code.
type AppConfig struct {
	AppPort            string
	RateLimitPerMinute int
	AllowedOrigins     []string
	ShutdownTimeoutSec int
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis for subject locks and read caching; disabled means in-process locks, no cache
	RedisEnabled  bool
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Progress engine
	StreakTimezone     string
	BadgeCatalogPath   string
	DefaultSubject     string
	SubjectLockTTLSec  int
	SubjectLockWaitSec int
	ProfileCacheTTLSec int
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
//
// Precedence: config/config.json -> defaults -> .env -> environment variables.
func Load() AppConfig {
	if loaded {
		return cfg
	}
	cfg = LoadFrom(filepath.Join("config", "config.json"), ".env")
	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Set replaces the cached configuration. Used by commands that build config from flags and by tests.
func Set(c AppConfig) {
	cfg = c
	loaded = true
}

// LoadFrom builds a configuration from the given JSON file and dotenv file without touching
// the cached one. Missing files are ignored.
func LoadFrom(jsonPath, envPath string) AppConfig {
	var c AppConfig
	if err := loadJSONConfig(jsonPath, &c); err != nil {
		log.Printf("ignoring invalid config file %s: %v", jsonPath, err)
	}
	applyDefaults(&c)
	if envPath != "" {
		// godotenv never overrides variables already present in the environment.
		_ = godotenv.Load(envPath)
	}
	applyEnvOverrides(&c)
	return c
}

// Location resolves StreakTimezone, falling back to UTC.
func (c AppConfig) Location() *time.Location {
	if c.StreakTimezone == "" || strings.EqualFold(c.StreakTimezone, "UTC") {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.StreakTimezone)
	if err != nil {
		log.Printf("unknown streak timezone %q, using UTC: %v", c.StreakTimezone, err)
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads grouped sections into out if the file exists. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if f, ok := m[key].(float64); ok {
			return int(f)
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		b, _ := m[key].(bool)
		return b
	}
	getStringSlice := func(m map[string]any, key string) []string {
		arr, ok := m[key].([]any)
		if !ok {
			return nil
		}
		res := make([]string, 0, len(arr))
		for _, it := range arr {
			if s, ok := it.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}

	if app, ok := raw["app"]; ok {
		out.AppPort = getString(app, "AppPort")
		out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
		out.AllowedOrigins = getStringSlice(app, "AllowedOrigins")
		out.ShutdownTimeoutSec = getInt(app, "ShutdownTimeoutSec")
		out.GinMode = getString(app, "GinMode")
		out.GinPath = getString(app, "GinPath")
	}

	if dbs, ok := raw["database"]; ok {
		out.DBDriver = getString(dbs, "Driver")
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"]; ok {
		out.RedisEnabled = getBool(rds, "Enabled")
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if lg, ok := raw["log"]; ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}

	if pg, ok := raw["progress"]; ok {
		out.StreakTimezone = getString(pg, "StreakTimezone")
		out.BadgeCatalogPath = getString(pg, "BadgeCatalogPath")
		out.DefaultSubject = getString(pg, "DefaultSubject")
		out.SubjectLockTTLSec = getInt(pg, "SubjectLockTTLSec")
		out.SubjectLockWaitSec = getInt(pg, "SubjectLockWaitSec")
		out.ProfileCacheTTLSec = getInt(pg, "ProfileCacheTTLSec")
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 120
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.ShutdownTimeoutSec == 0 {
		c.ShutdownTimeoutSec = 30
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "taskquest"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.StreakTimezone == "" {
		c.StreakTimezone = "UTC"
	}
	if c.DefaultSubject == "" {
		c.DefaultSubject = "demo-user"
	}
	if c.SubjectLockTTLSec == 0 {
		c.SubjectLockTTLSec = 10
	}
	if c.SubjectLockWaitSec == 0 {
		c.SubjectLockWaitSec = 5
	}
	if c.ProfileCacheTTLSec == 0 {
		c.ProfileCacheTTLSec = 60
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	strs := map[string]*string{
		"APP_PORT":           &c.AppPort,
		"GIN_MODE":           &c.GinMode,
		"GIN_PATH":           &c.GinPath,
		"DATABASE_URI":       &c.DatabaseURI,
		"DB_HOST":            &c.DBHost,
		"DB_PORT":            &c.DBPort,
		"DB_USER":            &c.DBUser,
		"DB_PASSWORD":        &c.DBPassword,
		"DB_NAME":            &c.DBName,
		"REDIS_HOST":         &c.RedisHost,
		"REDIS_PASSWORD":     &c.RedisPassword,
		"LOG_LEVEL":          &c.LogLevel,
		"LOG_PATH":           &c.LogPath,
		"STREAK_TIMEZONE":    &c.StreakTimezone,
		"BADGE_CATALOG_PATH": &c.BadgeCatalogPath,
		"DEFAULT_SUBJECT":    &c.DefaultSubject,
	}
	for key, dst := range strs {
		if v := getEnv(key, ""); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"RATE_LIMIT_PER_MINUTE": &c.RateLimitPerMinute,
		"SHUTDOWN_TIMEOUT_SEC":  &c.ShutdownTimeoutSec,
		"REDIS_PORT":            &c.RedisPort,
		"REDIS_DB":              &c.RedisDB,
		"LOG_MAX_SIZE_MB":       &c.LogMaxSizeMB,
		"LOG_MAX_BACKUPS":       &c.LogMaxBackups,
		"LOG_MAX_AGE_DAYS":      &c.LogMaxAgeDays,
		"SUBJECT_LOCK_TTL_SEC":  &c.SubjectLockTTLSec,
		"SUBJECT_LOCK_WAIT_SEC": &c.SubjectLockWaitSec,
		"PROFILE_CACHE_TTL_SEC": &c.ProfileCacheTTLSec,
	}
	for key, dst := range ints {
		if v := getEnv(key, ""); v != "" {
			*dst = mustParseInt(v)
		}
	}

	if v := getEnv("REDIS_ENABLED", ""); v != "" {
		c.RedisEnabled = v == "true"
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
	if v := getEnv("DB_DRIVER", ""); v != "" {
		c.DBDriver = strings.ToLower(v)
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
