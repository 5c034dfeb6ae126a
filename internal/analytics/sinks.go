package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/julianstephens/lessfeed/internal/logger"
)

// RPCCaller invokes a remote database function.
type RPCCaller interface {
	RPC(ctx context.Context, function string, params any) error
}

// SupabaseSink upserts counts through the upsert_analytics function.
type SupabaseSink struct {
	client RPCCaller
}

func NewSupabaseSink(client RPCCaller) *SupabaseSink {
	return &SupabaseSink{client: client}
}

type upsertParams struct {
	CardID    string `json:"p_card_id"`
	EventType string `json:"p_event_type"`
	Lang      string `json:"p_lang"`
	Count     int    `json:"p_count"`
}

func (s *SupabaseSink) Send(ctx context.Context, e Event) error {
	return s.client.RPC(ctx, "upsert_analytics", upsertParams{
		CardID:    e.CardID,
		EventType: string(e.Type),
		Lang:      e.Lang,
		Count:     e.Count,
	})
}

// RedisSink publishes each event as JSON on a channel.
type RedisSink struct {
	rdb     *goredis.Client
	channel string
}

// NewRedisSink connects to addr and checks the connection.
func NewRedisSink(ctx context.Context, addr, channel string) (*RedisSink, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if channel == "" {
		channel = "lessfeed.analytics"
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisSink{rdb: rdb, channel: channel}, nil
}

// NewRedisSinkFromClient wraps an existing client.
func NewRedisSinkFromClient(rdb *goredis.Client, channel string) *RedisSink {
	return &RedisSink{rdb: rdb, channel: channel}
}

func (s *RedisSink) Send(ctx context.Context, e Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, s.channel, raw).Err()
}

func (s *RedisSink) Close() error {
	return s.rdb.Close()
}

// LogSink writes events to the log and never fails.
type LogSink struct{}

func (LogSink) Send(_ context.Context, e Event) error {
	logger.Info("Analytics event", "card_id", e.CardID, "event", e.Type, "lang", e.Lang, "count", e.Count)
	return nil
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Send(context.Context, Event) error { return nil }
