package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tanzschule/internal/config"
	"tanzschule/internal/queue"
	"tanzschule/internal/store"
)

// Worker consumes toggle events and keeps per-course daily head counts in a
// Redis hash, so the dashboard can show tallies without scanning the ledger.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	if !redisClient.Healthy(ctx) {
		log.Fatalf("redis not reachable at %s", cfg.RedisAddr)
	}

	q := queue.NewRedisQueue(redisClient.Client, "tanzschule:toggles")

	events, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for toggle events...")
	for evt := range events {
		delta := int64(1)
		if !evt.Present {
			delta = -1
		}

		// tally:<courseId> { <date>: headcount }
		key := "tally:" + evt.CourseID
		n, err := redisClient.Client.HIncrBy(ctx, key, evt.Date, delta).Result()
		if err != nil {
			log.Printf("tally update failed for %s/%s: %v", evt.CourseID, evt.Date, err)
			continue
		}
		// Repeated unsets of the same triple can drive the count below
		// zero; clamp instead of trusting event replays.
		if n < 0 {
			_ = redisClient.Client.HSet(ctx, key, evt.Date, 0).Err()
		}

		log.Printf("course %s %s: %d present", evt.CourseID, evt.Date, max(n, 0))
	}

	log.Println("worker stopped")
}
