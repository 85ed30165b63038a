package lib

import (
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the verification store. The client is built at
// startup and injected wherever it is needed.
func NewRedisClient() (*redis.Client, error) {
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil, err
	}
	return redis.NewClient(opt), nil
}
