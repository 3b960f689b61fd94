package config

import (
	"fmt"
	"strconv"

	"github.com/gomodule/redigo/redis"
)

// InitRedis builds a connection pool from REDIS_* env vars and verifies it
// with a PING.
func InitRedis() (*redis.Pool, error) {
	host := EnvOrDefault("REDIS_HOST", "127.0.0.1")
	port := EnvOrDefault("REDIS_PORT", "6379")
	pass := EnvOrDefault("REDIS_AUTH", "")
	useTLS, _ := strconv.ParseBool(EnvOrDefault("REDIS_TLS", "false"))

	pool := &redis.Pool{
		MaxIdle: 10,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", fmt.Sprintf("%s:%s", host, port),
				redis.DialPassword(pass), redis.DialUseTLS(useTLS))
		},
	}

	ping := pool.Get()
	defer ping.Close()
	if _, err := ping.Do("PING"); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return pool, nil
}
