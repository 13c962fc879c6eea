// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用程式設定，啟動時載入一次後唯讀
type Config struct {
	ServerAddr  string
	SubmitAddr  string
	DatabaseURL string
	CORSOrigins []string
	LogLevel    string

	Auth  AuthConfig
	Redis RedisConfig

	WorkerCount int
	// LoginRateLimit 每個 IP 每秒可呼叫 /user/token 的次數；0 表示不限制
	LoginRateLimit float64
}

// AuthConfig JWT 相關設定
type AuthConfig struct {
	SecretKey            string
	Algorithm            string
	AccessTokenTTL       time.Duration
	RequireAuthForWrites bool
}

// RedisConfig 快取設定；Addr 為空時停用快取
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	NewsTTL  time.Duration
}

// Enabled 回報是否設定了 Redis
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

var loadDotEnv = func() { _ = godotenv.Load() }

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("SUBMIT_ADDR", ":5000")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	v.SetDefault("REQUIRE_AUTH_FOR_WRITES", true)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("NEWS_CACHE_TTL_SECONDS", 300)
	v.SetDefault("WORKER_COUNT", 2)
	v.SetDefault("LOGIN_RATE_LIMIT", 5)
	return v
}

// Load 讀取 .env (若存在) 與環境變數，組成 API 服務設定
func Load() (Config, error) {
	loadDotEnv()
	v := newViper()

	cfg := Config{
		ServerAddr:  v.GetString("SERVER_ADDR"),
		SubmitAddr:  v.GetString("SUBMIT_ADDR"),
		DatabaseURL: databaseURL(v),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Auth: AuthConfig{
			SecretKey:            v.GetString("SECRET_KEY"),
			Algorithm:            strings.ToUpper(v.GetString("ALGORITHM")),
			AccessTokenTTL:       time.Duration(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
			RequireAuthForWrites: v.GetBool("REQUIRE_AUTH_FOR_WRITES"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			NewsTTL:  time.Duration(v.GetInt("NEWS_CACHE_TTL_SECONDS")) * time.Second,
		},
		WorkerCount:    v.GetInt("WORKER_COUNT"),
		LoginRateLimit: v.GetFloat64("LOGIN_RATE_LIMIT"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadSubmit 只讀取舊版投稿服務需要的設定，不要求資料庫與金鑰
func LoadSubmit() Config {
	loadDotEnv()
	v := newViper()
	return Config{
		SubmitAddr: v.GetString("SUBMIT_ADDR"),
		LogLevel:   v.GetString("LOG_LEVEL"),
	}
}

func (c Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("環境變數 DATABASE_URL 或 POSTGRES_* 未設定")
	}
	if c.Auth.SecretKey == "" {
		return errors.New("環境變數 SECRET_KEY 未設定")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("無效的 ACCESS_TOKEN_EXPIRE_MINUTES: %s", c.Auth.AccessTokenTTL)
	}
	if c.Redis.Enabled() && c.Redis.NewsTTL <= 0 {
		return fmt.Errorf("無效的 NEWS_CACHE_TTL_SECONDS: %s", c.Redis.NewsTTL)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("無效的 WORKER_COUNT: %d", c.WorkerCount)
	}
	if c.LoginRateLimit < 0 {
		return fmt.Errorf("無效的 LOGIN_RATE_LIMIT: %v", c.LoginRateLimit)
	}
	return nil
}

// databaseURL 優先使用 DATABASE_URL，否則以 POSTGRES_* 組出連線字串
func databaseURL(v *viper.Viper) string {
	if u := v.GetString("DATABASE_URL"); u != "" {
		return u
	}
	user := v.GetString("POSTGRES_USER")
	dbName := v.GetString("POSTGRES_DB")
	if user == "" || dbName == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, v.GetString("POSTGRES_PASSWORD")),
		Host:   net.JoinHostPort(v.GetString("POSTGRES_HOST"), v.GetString("POSTGRES_PORT")),
		Path:   "/" + dbName,
	}
	return u.String()
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
