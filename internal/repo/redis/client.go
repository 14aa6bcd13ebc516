package redis

import goredis "github.com/redis/go-redis/v9"

// NewClient returns nil when addr is empty; callers treat a nil client
// as "redis disabled".
func NewClient(addr, password string, db int) *goredis.Client {
	if addr == "" {
		return nil
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
