package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendNeo4j    = "neo4j"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config storefront 服务配置
type Config struct {
	HTTP struct {
		Addr               string
		CORSAllowedOrigins []string
	}
	App struct {
		ApexDomain string // e.g. "example.com"
		BaseURL    string
	}
	Backend  string
	Neo4j    Neo4jConfig
	Database DatabaseConfig
	Redis    struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Auth struct {
		Secret       string
		GitHubID     string
		GitHubSecret string
	}
	Vercel VercelConfig
	AI     AIConfig

	OwnershipRepairEnabled bool
	StorefrontCacheTTL     time.Duration
	OwnerSyncTTL           time.Duration
}

type Neo4jConfig struct {
	URI      string
	User     string
	Password string
	Database string
}

// DatabaseConfig PostgreSQL 连接参数
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN lib/pq key=value DSN
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// VercelConfig DNS 记录管理
type VercelConfig struct {
	APIToken    string
	TeamID      string
	CNAMETarget string
	BaseURL     string
}

// AIConfig OpenAI-compatible chat completions endpoint
type AIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// ApexLabel is the first label of the apex domain ("example" for "example.com").
func (c *Config) ApexLabel() string {
	apex := strings.ToLower(strings.TrimSpace(c.App.ApexDomain))
	if i := strings.IndexByte(apex, '.'); i >= 0 {
		return apex[:i]
	}
	return apex
}

var bindings = map[string]string{
	"http.addr":                 "HTTP_ADDR",
	"http.cors_allowed_origins": "CORS_ALLOWED_ORIGINS",
	"app.apex_domain":           "APP_APEX_DOMAIN",
	"app.base_url":              "APP_BASE_URL",
	"store.backend":             "STORE_BACKEND",
	"neo4j.uri":                 "NEO4J_URI",
	"neo4j.user":                "NEO4J_USER",
	"neo4j.password":            "NEO4J_PASSWORD",
	"neo4j.database":            "NEO4J_DATABASE",
	"database.host":             "DB_HOST",
	"database.port":             "DB_PORT",
	"database.user":             "DB_USER",
	"database.password":         "DB_PASSWORD",
	"database.name":             "DB_NAME",
	"database.sslmode":          "DB_SSLMODE",
	"database.max_conns":        "DB_MAX_CONNS",
	"database.max_idle":         "DB_MAX_IDLE",
	"redis.enabled":             "REDIS_ENABLED",
	"redis.addr":                "REDIS_ADDR",
	"redis.password":            "REDIS_PASSWORD",
	"redis.db":                  "REDIS_DB",
	"log.level":                 "LOG_LEVEL",
	"log.format":                "LOG_FORMAT",
	"auth.secret":               "AUTH_SECRET",
	"auth.github_id":            "GITHUB_ID",
	"auth.github_secret":        "GITHUB_SECRET",
	"vercel.api_token":          "VERCEL_API_TOKEN",
	"vercel.team_id":            "VERCEL_TEAM_ID",
	"vercel.cname_target":       "VERCEL_CNAME_TARGET",
	"vercel.base_url":           "VERCEL_BASE_URL",
	"ai.base_url":               "AI_BASE_URL",
	"ai.api_key":                "AI_API_KEY",
	"ai.model":                  "AI_MODEL",
	"ai.timeout":                "AI_TIMEOUT",
	"ownership.repair_enabled":  "OWNERSHIP_REPAIR_ENABLED",
	"storefront.cache_ttl":      "STOREFRONT_CACHE_TTL",
	"owner_sync.ttl":            "OWNER_SYNC_TTL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.cors_allowed_origins", "*")
	v.SetDefault("app.apex_domain", "localhost")
	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("store.backend", BackendNeo4j)

	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.user", "neo4j")
	v.SetDefault("neo4j.password", "password")
	v.SetDefault("neo4j.database", "neo4j")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "storefront")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.max_idle", 5)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("vercel.cname_target", "cname.vercel-dns.com")
	v.SetDefault("vercel.base_url", "https://api.vercel.com")

	v.SetDefault("ai.base_url", "https://integrate.api.nvidia.com/v1")
	v.SetDefault("ai.model", "meta/llama-3.1-8b-instruct")
	v.SetDefault("ai.timeout", "60s")

	v.SetDefault("ownership.repair_enabled", true)
	v.SetDefault("storefront.cache_ttl", "5m")
	v.SetDefault("owner_sync.ttl", "10m")
}

// Load 读取 config.yaml（可选）并以环境变量覆盖
func Load() *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig()
	return FromViper(v)
}

// FromViper builds a Config from v after applying defaults and env bindings.
func FromViper(v *viper.Viper) *Config {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.HTTP.CORSAllowedOrigins = splitList(v.GetString("http.cors_allowed_origins"))
	cfg.App.ApexDomain = strings.ToLower(v.GetString("app.apex_domain"))
	cfg.App.BaseURL = strings.TrimRight(v.GetString("app.base_url"), "/")

	// 未知值原样保留，由 app.New 报错
	cfg.Backend = strings.ToLower(strings.TrimSpace(v.GetString("store.backend")))

	cfg.Neo4j = Neo4jConfig{
		URI:      v.GetString("neo4j.uri"),
		User:     v.GetString("neo4j.user"),
		Password: v.GetString("neo4j.password"),
		Database: v.GetString("neo4j.database"),
	}

	cfg.Database = DatabaseConfig{
		Host:     v.GetString("database.host"),
		Port:     v.GetInt("database.port"),
		User:     v.GetString("database.user"),
		Password: v.GetString("database.password"),
		Database: v.GetString("database.name"),
		SSLMode:  v.GetString("database.sslmode"),
		MaxConns: v.GetInt("database.max_conns"),
		MaxIdle:  v.GetInt("database.max_idle"),
	}

	cfg.Redis.Enabled = v.GetBool("redis.enabled")
	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")

	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	cfg.Auth.Secret = v.GetString("auth.secret")
	cfg.Auth.GitHubID = v.GetString("auth.github_id")
	cfg.Auth.GitHubSecret = v.GetString("auth.github_secret")

	cfg.Vercel = VercelConfig{
		APIToken:    v.GetString("vercel.api_token"),
		TeamID:      v.GetString("vercel.team_id"),
		CNAMETarget: v.GetString("vercel.cname_target"),
		BaseURL:     v.GetString("vercel.base_url"),
	}

	cfg.AI = AIConfig{
		BaseURL: v.GetString("ai.base_url"),
		APIKey:  v.GetString("ai.api_key"),
		Model:   v.GetString("ai.model"),
		Timeout: v.GetDuration("ai.timeout"),
	}

	cfg.OwnershipRepairEnabled = v.GetBool("ownership.repair_enabled")
	cfg.StorefrontCacheTTL = v.GetDuration("storefront.cache_ttl")
	cfg.OwnerSyncTTL = v.GetDuration("owner_sync.ttl")
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
