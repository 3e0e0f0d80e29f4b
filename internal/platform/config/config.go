package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix は設定を上書きする環境変数の接頭辞です。
const EnvPrefix = "EMPLOYEE_IMPORT_"

const (
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverSQLite   = "sqlite"

	StagingDriverFS = "fs"
	StagingDriverS3 = "s3"

	SessionDriverMemory = "memory"
	SessionDriverRedis  = "redis"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`
	Staging  StagingConfig  `yaml:"staging" envPrefix:"STAGING_"`
	Session  SessionConfig  `yaml:"session" envPrefix:"SESSION_"`
	Access   AccessConfig   `yaml:"access" envPrefix:"ACCESS_"`
	Logging  LoggingConfig  `yaml:"logging" envPrefix:"LOG_"`
	Metrics  MetricsConfig  `yaml:"metrics" envPrefix:"METRICS_"`
}

// ServerConfig は HTTP / gRPC サーバーに関する設定です。
type ServerConfig struct {
	HTTPListenAddr     string        `yaml:"http_listen_addr" env:"HTTP_LISTEN_ADDR"`
	GRPCListenAddr     string        `yaml:"grpc_listen_addr" env:"GRPC_LISTEN_ADDR"`
	ReadTimeout        time.Duration `yaml:"-"`
	WriteTimeout       time.Duration `yaml:"-"`
	ShutdownTimeout    time.Duration `yaml:"-"`
	ReadTimeoutRaw     string        `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeoutRaw    string        `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig は社員データの保存先に関する設定です。
type DatabaseConfig struct {
	Driver             string        `yaml:"driver" env:"DRIVER"`
	Host               string        `yaml:"host" env:"HOST"`
	Port               int           `yaml:"port" env:"PORT"`
	User               string        `yaml:"user" env:"USER"`
	Password           string        `yaml:"password" env:"PASSWORD"`
	Name               string        `yaml:"name" env:"NAME"`
	SSLMode            string        `yaml:"ssl_mode" env:"SSL_MODE"`
	MaxOpenConns       int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns       int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time" env:"CONN_MAX_IDLE_TIME"`
	SQLitePath         string        `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

// StagingConfig は CSV バッチの置き場所に関する設定です。
type StagingConfig struct {
	Driver            string   `yaml:"driver" env:"DRIVER"`
	Dir               string   `yaml:"dir" env:"DIR"`
	DeleteAfterImport bool     `yaml:"delete_after_import" env:"DELETE_AFTER_IMPORT"`
	S3                S3Config `yaml:"s3" envPrefix:"S3_"`
}

// S3Config は S3 互換ストレージの設定です。
type S3Config struct {
	Bucket    string `yaml:"bucket" env:"BUCKET"`
	Prefix    string `yaml:"prefix" env:"PREFIX"`
	Region    string `yaml:"region" env:"REGION"`
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
	PathStyle bool   `yaml:"path_style" env:"PATH_STYLE"`
}

// SessionConfig はセッションストアの設定です。
type SessionConfig struct {
	Driver     string        `yaml:"driver" env:"DRIVER"`
	CookieName string        `yaml:"cookie_name" env:"COOKIE_NAME"`
	TTL        time.Duration `yaml:"-"`
	TTLRaw     string        `yaml:"ttl" env:"TTL"`
	Redis      RedisConfig   `yaml:"redis" envPrefix:"REDIS_"`
}

// RedisConfig は Redis 接続設定です。
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	Prefix   string `yaml:"prefix" env:"PREFIX"`
}

// AccessConfig はアクセスポリシーの設定です。
type AccessConfig struct {
	DefaultRole string `yaml:"default_role" env:"DEFAULT_ROLE"`
	RoleHeader  string `yaml:"role_header" env:"ROLE_HEADER"`
	// TrustRoleHeader が false の間は role_header と x-role メタデータを無視し、全員を default_role として扱います。
	// クライアントが直接届く構成では有効にしないでください。ヘッダーを付け替える認証済みプロキシの背後でのみ true にします。
	TrustRoleHeader bool     `yaml:"trust_role_header" env:"TRUST_ROLE_HEADER"`
	Policy          []string `yaml:"policy" env:"POLICY" envSeparator:";"`
}

// LoggingConfig はログ出力の設定です。
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// MetricsConfig は Prometheus エンドポイントの設定です。
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// LoadDotEnv は存在する .env ファイルだけを読み込み、読み込んだ数を返します。
func LoadDotEnv(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load は指定されたパスから設定ファイルを読み込み、環境変数で上書きします。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	return errors.Join(
		c.Server.validateAndNormalize(),
		c.Database.validateAndNormalize(),
		c.Staging.validateAndNormalize(),
		c.Session.validateAndNormalize(),
		c.Access.validateAndNormalize(),
		c.Logging.validateAndNormalize(),
		c.Metrics.validateAndNormalize(),
	)
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.HTTPListenAddr == "" {
		return fmt.Errorf("config: server.http_listen_addr must be set")
	}

	var err error
	if s.ReadTimeout, err = parseDurationDefault(s.ReadTimeoutRaw, 15*time.Second); err != nil {
		return fmt.Errorf("config: server.read_timeout: %w", err)
	}
	if s.WriteTimeout, err = parseDurationDefault(s.WriteTimeoutRaw, 30*time.Second); err != nil {
		return fmt.Errorf("config: server.write_timeout: %w", err)
	}
	if s.ShutdownTimeout, err = parseDurationDefault(s.ShutdownTimeoutRaw, 10*time.Second); err != nil {
		return fmt.Errorf("config: server.shutdown_timeout: %w", err)
	}
	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Driver == "" {
		d.Driver = DatabaseDriverPostgres
	}

	switch d.Driver {
	case DatabaseDriverSQLite:
		if d.SQLitePath == "" {
			return fmt.Errorf("config: database.sqlite_path must be set")
		}
		return nil
	case DatabaseDriverPostgres:
	default:
		return fmt.Errorf("config: database.driver %q is not supported", d.Driver)
	}

	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationDefault(d.ConnMaxLifetimeRaw, 0)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationDefault(d.ConnMaxIdleTimeRaw, 0)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (s *StagingConfig) validateAndNormalize() error {
	if s.Driver == "" {
		s.Driver = StagingDriverFS
	}

	switch s.Driver {
	case StagingDriverFS:
		if s.Dir == "" {
			s.Dir = filepath.Join(os.TempDir(), "employees")
		}
	case StagingDriverS3:
		if s.S3.Bucket == "" {
			return fmt.Errorf("config: staging.s3.bucket must be set")
		}
	default:
		return fmt.Errorf("config: staging.driver %q is not supported", s.Driver)
	}
	return nil
}

func (s *SessionConfig) validateAndNormalize() error {
	if s.Driver == "" {
		s.Driver = SessionDriverMemory
	}
	if s.CookieName == "" {
		s.CookieName = "employee_import_session"
	}

	ttl, err := parseDurationDefault(s.TTLRaw, 12*time.Hour)
	if err != nil {
		return fmt.Errorf("config: session.ttl: %w", err)
	}
	s.TTL = ttl

	switch s.Driver {
	case SessionDriverMemory:
	case SessionDriverRedis:
		if s.Redis.Addr == "" {
			return fmt.Errorf("config: session.redis.addr must be set")
		}
	default:
		return fmt.Errorf("config: session.driver %q is not supported", s.Driver)
	}
	return nil
}

func (a *AccessConfig) validateAndNormalize() error {
	if a.DefaultRole == "" {
		a.DefaultRole = "operator"
	}
	if a.RoleHeader == "" {
		a.RoleHeader = "X-Role"
	}
	return nil
}

func (l *LoggingConfig) validateAndNormalize() error {
	if l.Level == "" {
		l.Level = "info"
	}
	switch l.Format {
	case "":
		l.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("config: logging.format %q is not supported", l.Format)
	}
	return nil
}

func (m *MetricsConfig) validateAndNormalize() error {
	if m.Path == "" {
		m.Path = "/metrics"
	}
	if !strings.HasPrefix(m.Path, "/") {
		return fmt.Errorf("config: metrics.path must start with /")
	}
	return nil
}

func parseDurationDefault(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// MigrationURL は golang-migrate 用のデータベース URL を返します。
func (d DatabaseConfig) MigrationURL() string {
	if d.Driver == DatabaseDriverSQLite {
		return "sqlite://" + filepath.ToSlash(d.SQLitePath)
	}
	return d.DSN()
}
