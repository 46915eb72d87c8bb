package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/formloom/formloom-backend/internal/domain"
	"github.com/formloom/formloom-backend/internal/pkg/logger"
	"github.com/formloom/formloom-backend/internal/utils"
)

// EventEmitter publishes domain events after successful writes. A publish
// failure does not undo the write but does fail the request, so callers
// treat the operation as not fully confirmed.
type EventEmitter interface {
	Emit(ctx context.Context, ev types.Event) error
}

type redisEmitter struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisEmitter connects to REDIS_ADDR and publishes events on
// EVENTS_CHANNEL (default "formloom.events").
func NewRedisEmitter(log *logger.Logger) (EventEmitter, error) {
	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	channel := strings.TrimSpace(utils.GetEnv("EVENTS_CHANNEL", "formloom.events", log))

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisEmitter{
		log:     log.With("service", "RedisEventEmitter"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (e *redisEmitter) Emit(ctx context.Context, ev types.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return e.rdb.Publish(ctx, e.channel, raw).Err()
}

type logEmitter struct {
	log *logger.Logger
}

// NewLogEmitter is the fallback emitter when redis is not configured: it
// records the event and reports success.
func NewLogEmitter(log *logger.Logger) EventEmitter {
	return &logEmitter{log: log.With("service", "LogEventEmitter")}
}

func (e *logEmitter) Emit(ctx context.Context, ev types.Event) error {
	e.log.Info("domain event", "type", ev.Type, "response_set_id", ev.ResponseSetID)
	return nil
}
