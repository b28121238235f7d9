package redisbackend

import (
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	// Either a single address or a seed list of host:port addresses
	Addrs           []string `validate:"required"`
	DB              int      `validate:"gte=0,lte=16"`
	Password        string
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PoolSize        int `validate:"required"`
	MinIdleConns    int
	MaxConnAge      time.Duration
	PoolTimeout     time.Duration
	IdleTimeout     time.Duration
	MasterName      string
}

func (rc RedisConfig) AsUniversalOptions() *redis.UniversalOptions {
	return &redis.UniversalOptions{
		Addrs:           rc.Addrs,
		DB:              rc.DB,
		Password:        rc.Password,
		MaxRetries:      rc.MaxRetries,
		MinRetryBackoff: rc.MinRetryBackoff,
		MaxRetryBackoff: rc.MaxRetryBackoff,
		DialTimeout:     rc.DialTimeout,
		ReadTimeout:     rc.ReadTimeout,
		WriteTimeout:    rc.WriteTimeout,
		PoolSize:        rc.PoolSize,
		MinIdleConns:    rc.MinIdleConns,
		ConnMaxLifetime: rc.MaxConnAge,
		PoolTimeout:     rc.PoolTimeout,
		ConnMaxIdleTime: rc.IdleTimeout,
		MasterName:      rc.MasterName,
	}
}

// Config configures a redis backend.
type Config struct {
	// Connection used for requests that don't name a shard.
	Redis RedisConfig
	// Additional datasets, selected by TrackRequest.Shard etc. Every bucket combined in a
	// single call must live on the same shard.
	Shards map[string]RedisConfig `validate:"dive"`
	// Number of collapsed counts cached locally by Lookup. Zero disables the cache.
	LookupCacheSize int `validate:"gte=0"`
}

func DefaultConfig() Config {
	return Config{
		Redis: RedisConfig{
			Addrs:    []string{"localhost:6379"},
			PoolSize: 10,
		},
	}
}
