package cache

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func stubRedisSeams(t *testing.T, pingErr error) *string {
	t.Helper()
	origNewClient := newRedisClient
	origPing := pingRedis
	t.Cleanup(func() {
		newRedisClient = origNewClient
		pingRedis = origPing
	})

	var capturedAddr string
	newRedisClient = func(opts *redis.Options) *redis.Client {
		capturedAddr = opts.Addr
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return pingErr
	}
	return &capturedAddr
}

func TestInitRedisWithCustomAddr(t *testing.T) {
	addr := stubRedisSeams(t, nil)

	client, err := InitRedis(context.Background(), "redis:9999", quietLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client == nil {
		t.Fatal("expected client")
	}
	if *addr != "redis:9999" {
		t.Fatalf("expected custom addr, got %s", *addr)
	}
}

func TestInitRedisParsesURL(t *testing.T) {
	addr := stubRedisSeams(t, nil)

	if _, err := InitRedis(context.Background(), "redis://cache.internal:6380/2", quietLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *addr != "cache.internal:6380" {
		t.Fatalf("expected parsed addr, got %s", *addr)
	}
}

func TestInitRedisDisabledWhenEmpty(t *testing.T) {
	addr := stubRedisSeams(t, nil)

	client, err := InitRedis(context.Background(), "  ", quietLogger())
	if err != nil || client != nil {
		t.Fatalf("expected nil client and no error, got %v, %v", client, err)
	}
	if *addr != "" {
		t.Fatalf("no client should be built, got addr %s", *addr)
	}
}

func TestInitRedisPingFailure(t *testing.T) {
	stubRedisSeams(t, errors.New("connection refused"))

	client, err := InitRedis(context.Background(), "localhost:6379", quietLogger())
	if err == nil || client != nil {
		t.Fatalf("expected ping failure, got %v, %v", client, err)
	}
}
