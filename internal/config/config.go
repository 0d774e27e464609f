package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fzj270452746/MJSort/internal/game/table"
)

// EnvPrefix 环境变量前缀，例如 MJSORT_NATS_URL
const EnvPrefix = "MJSORT"

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Game     GameConfig     `mapstructure:"game"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Health   HealthConfig   `mapstructure:"health"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
}

// GameConfig 牌局节奏与会话配置，*_ticks 的单位是 tick_interval
type GameConfig struct {
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	StartTicks     int           `mapstructure:"start_ticks"`
	SettleTicks    int           `mapstructure:"settle_ticks"`
	DealTicks      int           `mapstructure:"deal_ticks"`
	CountdownTicks int           `mapstructure:"countdown_ticks"`
	Seed           int64         `mapstructure:"seed"` // 0 表示按时间取种子
	MaxSessions    int           `mapstructure:"max_sessions"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	WorkerCount    int           `mapstructure:"worker_count"`
}

// TableConfig 转换为牌局节奏配置
func (g GameConfig) TableConfig() table.Config {
	return table.Config{
		StartTicks:     g.StartTicks,
		SettleTicks:    g.SettleTicks,
		DealTicks:      g.DealTicks,
		CountdownTicks: g.CountdownTicks,
	}
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	WorkerCount   int           `mapstructure:"worker_count"`
	BufferSize    int           `mapstructure:"buffer_size"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

type HealthConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:     "mjsort-logic",
			LogLevel: "info",
		},
		Game: GameConfig{
			TickInterval:   time.Second,
			StartTicks:     1,
			SettleTicks:    1,
			DealTicks:      1,
			CountdownTicks: 10,
			MaxSessions:    10000,
			IdleTimeout:    30 * time.Minute,
			WorkerCount:    16,
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			MaxReconnects: 10,
			ReconnectWait: 2 * time.Second,
			WorkerCount:   32,
			BufferSize:    4096,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "mjsort",
			User:            "postgres",
			Password:        "postgres",
			MaxOpenConns:    20,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
		},
		Redis: RedisConfig{
			Host:        "localhost",
			Port:        6379,
			DB:          0,
			PoolSize:    20,
			SnapshotTTL: time.Hour,
		},
		Health: HealthConfig{
			Addr: ":8081",
		},
	}
}

// setDefaults 把默认配置注册到 viper，环境变量才能覆盖未出现在文件中的键
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("app.name", d.App.Name)
	v.SetDefault("app.log_level", d.App.LogLevel)

	v.SetDefault("game.tick_interval", d.Game.TickInterval)
	v.SetDefault("game.start_ticks", d.Game.StartTicks)
	v.SetDefault("game.settle_ticks", d.Game.SettleTicks)
	v.SetDefault("game.deal_ticks", d.Game.DealTicks)
	v.SetDefault("game.countdown_ticks", d.Game.CountdownTicks)
	v.SetDefault("game.seed", d.Game.Seed)
	v.SetDefault("game.max_sessions", d.Game.MaxSessions)
	v.SetDefault("game.idle_timeout", d.Game.IdleTimeout)
	v.SetDefault("game.worker_count", d.Game.WorkerCount)

	v.SetDefault("nats.url", d.NATS.URL)
	v.SetDefault("nats.max_reconnects", d.NATS.MaxReconnects)
	v.SetDefault("nats.reconnect_wait", d.NATS.ReconnectWait)
	v.SetDefault("nats.worker_count", d.NATS.WorkerCount)
	v.SetDefault("nats.buffer_size", d.NATS.BufferSize)

	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)

	v.SetDefault("redis.host", d.Redis.Host)
	v.SetDefault("redis.port", d.Redis.Port)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.pool_size", d.Redis.PoolSize)
	v.SetDefault("redis.snapshot_ttl", d.Redis.SnapshotTTL)

	v.SetDefault("health.addr", d.Health.Addr)
}

// Load 从指定路径加载配置
//
// 文件不存在时使用默认配置，MJSORT_ 前缀的环境变量优先于文件。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
