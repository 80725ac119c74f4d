package db

import (
	"strings"
	"time"

	"backend-pettopia/internal/config"
	"backend-pettopia/internal/logging"

	"github.com/redis/go-redis/v9"
)

// redisClientName shows up in CLIENT LIST next to the walk feed subscriptions.
const redisClientName = "pettopia-walk-stream"

// ConnectRedis returns the client backing the live walk feed, or nil when
// REDIS_ADDR is empty or unusable. REDIS_ADDR is either host:port or a
// redis:// URL; a non-empty REDIS_PASSWORD overrides the URL's password.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		logging.NewDefault("db").WithError(err).Error("invalid redis address, live feed stays local")
		return nil
	}
	return redis.NewClient(opts)
}

func redisOptions(cfg config.Config) (*redis.Options, error) {
	opts := &redis.Options{Addr: cfg.RedisAddr}
	if strings.Contains(cfg.RedisAddr, "://") {
		parsed, err := redis.ParseURL(cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	opts.ClientName = redisClientName
	opts.DialTimeout = 5 * time.Second
	return opts, nil
}
