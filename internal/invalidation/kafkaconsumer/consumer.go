// Package kafkaconsumer consumes place-update events and deletes the cached
// nearby-search responses they make stale.
package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/moodscout/moodscout/internal/cache"
	"github.com/moodscout/moodscout/internal/cache/keys"
	obs "github.com/moodscout/moodscout/internal/core/observability"
	"github.com/moodscout/moodscout/internal/geo"
	"github.com/moodscout/moodscout/internal/invalidation"
	mylog "github.com/moodscout/moodscout/internal/logger"
)

type Consumer struct {
	cfg        Config
	logger     *slog.Logger
	cache      cache.Interface
	res        int
	radii      []int
	activities []string
	dedupe     *replayDedupe
	zlog       *zerolog.Logger
}

// New wires a consumer against the cache it invalidates. The activities
// list is the full set of activity types searches can be keyed by, and
// radii holds the search radii the service serves; together with the H3
// coverage of the event coordinate they span every key a place update can
// affect.
func New(cfg Config, logger *slog.Logger, c cache.Interface, res int, radii []int, activities []string) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		cfg:        cfg,
		logger:     logger,
		cache:      c,
		res:        res,
		radii:      radii,
		activities: activities,
		dedupe:     newReplayDedupe(0),
	}
}

// Start runs the consumer group loop until the context is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	if c.cache == nil {
		return errors.New("kafkaconsumer: missing cache")
	}
	if len(c.activities) == 0 || len(c.radii) == 0 {
		return errors.New("kafkaconsumer: no activities or radii to invalidate")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	base := mylog.WithComponent(context.Background(), "kafka_consumer")
	zl := mylog.Build(mylog.Config{
		Level:     "info",
		Component: "kafka_consumer",
	}, nil)
	c.zlog = mylog.FromContext(base, &zl)

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info("kafka invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("kafka invalidation consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				c.logger.Error("consumer error", "err", err)
				c.zlog.Error().Err(err).
					Strs("brokers", c.cfg.Brokers).
					Str("topic", c.cfg.Topic).
					Msg("kafka consumer error")
				time.Sleep(2 * time.Second)
			}
		}
	}
}

// ProcessOne handles a single place-update message.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		obs.IncKafkaConsumerError("decode")

		mylog.FromContext(ctx, c.zlog).Error().
			Str("kind", "decode").
			Str("topic", msg.Topic).
			Int32("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("kafka error")

		return fmt.Errorf("json decode: %w", err)
	}
	if err := ev.Validate(); err != nil {
		obs.IncKafkaConsumerError("validate")
		obs.ObserveInvalidation(ev.Op, err)
		return fmt.Errorf("validate event: %w", err)
	}

	ts := ev.TS.UnixNano()
	if c.dedupe.stale(ev.PlaceID, ts) {
		c.logger.Debug("skipping replayed event",
			"op", ev.Op, "place_id", ev.PlaceID, "ts", ev.TS)
		return nil
	}

	cells, err := geo.CoverageFor(ev.Location, c.res)
	if err != nil {
		obs.ObserveInvalidation(ev.Op, err)
		return fmt.Errorf("derive cells: %w", err)
	}

	delKeys := make([]string, 0, len(cells)*len(c.activities)*len(c.radii))
	for _, cell := range cells {
		for _, activity := range c.activities {
			for _, radius := range c.radii {
				delKeys = append(delKeys, keys.SearchKey(cell, c.res, activity, radius))
			}
		}
	}

	if err := c.cache.Del(ctx, delKeys...); err != nil {
		obs.IncKafkaConsumerError("redis_del")
		obs.ObserveInvalidation(ev.Op, err)

		mylog.FromContext(ctx, c.zlog).Error().
			Str("kind", "redis_del").
			Str("topic", msg.Topic).
			Int32("partition", msg.Partition).
			Int("keys", len(delKeys)).
			Msg("kafka error")

		return fmt.Errorf("redis del: %w", err)
	}

	c.dedupe.applied(ev.PlaceID, ts)

	obs.ObserveInvalidation(ev.Op, nil)
	c.logger.Debug("invalidated keys",
		"op", ev.Op, "place_id", ev.PlaceID, "cells", len(cells), "keys", len(delKeys))

	mylog.FromContext(ctx, c.zlog).Info().
		Str("event", "invalidation").
		Str("op", ev.Op).Str("place_id", ev.PlaceID).
		Int("cells", len(cells)).Int("keys", len(delKeys)).
		Msg("invalidated keys")

	return nil
}
