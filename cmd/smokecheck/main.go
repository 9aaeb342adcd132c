// Command smokecheck exercises the backing services a deployment needs:
// Redis, the HTTP API, and the Kafka invalidation topic. Run it against a
// fresh environment to confirm the wiring before pointing traffic at it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"

	"github.com/moodscout/moodscout/internal/core/model"
	"github.com/moodscout/moodscout/internal/geo"
	"github.com/moodscout/moodscout/internal/invalidation"
)

func getenv(key, def string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return def
}

func testRedis(ctx context.Context, addr string) error {
	fmt.Println("Redis test")
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
	})
	defer func() { _ = client.Close() }()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	if err := client.Set(ctx, "smokecheck", "ok", 30*time.Second).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	val, err := client.Get(ctx, "smokecheck").Result()
	if err != nil {
		return fmt.Errorf("redis get: %w", err)
	}
	fmt.Println("redis GET smokecheck:", val)
	return nil
}

func testAPI(baseURL string) error {
	fmt.Println("API test")

	base := strings.TrimRight(baseURL, "/")
	resp, err := http.Get(base + "/healthz")
	if err != nil {
		return fmt.Errorf("http get healthz: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthz status %d", resp.StatusCode)
	}

	// Sample suggestion request around central Stockholm.
	sugURL := base + "/v1/suggestions?lat=59.3293&lng=18.0686&mood=relaxed"
	resp2, err := http.Get(sugURL)
	if err != nil {
		return fmt.Errorf("http get suggestions: %w", err)
	}
	defer func() { _ = resp2.Body.Close() }()

	// Only read a small part of the body (it can be large)
	body, _ := io.ReadAll(io.LimitReader(resp2.Body, 2048))
	fmt.Printf("suggestions status %d, sample:\n%s\n", resp2.StatusCode, string(body))
	return nil
}

func testKafka(brokers []string, topic string) error {
	fmt.Println("Kafka test")

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Version = sarama.V2_1_0_0
	prod, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return fmt.Errorf("producer create: %w", err)
	}
	defer func() { _ = prod.Close() }()

	ev := invalidation.Event{
		Version:  1,
		Op:       "update",
		PlaceID:  "smokecheck-place",
		Location: model.Coordinate{Latitude: 59.3293, Longitude: 18.0686},
		TS:       time.Now().UTC(),
		Source:   "smokecheck",
	}
	msgBytes, _ := json.Marshal(ev)
	_, _, err = prod.SendMessage(&sarama.ProducerMessage{
		Topic: topic, Value: sarama.ByteEncoder(msgBytes),
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	fmt.Println("produced one place-update event")

	consumer, err := sarama.NewConsumer(brokers, cfg)
	if err != nil {
		return fmt.Errorf("consumer create: %w", err)
	}
	defer func() { _ = consumer.Close() }()

	pc, err := consumer.ConsumePartition(topic, 0, sarama.OffsetNewest)
	if err != nil {
		pc, err = consumer.ConsumePartition(topic, 0, sarama.OffsetOldest)
		if err != nil {
			return fmt.Errorf("consume partition: %w", err)
		}
	}
	defer func() { _ = pc.Close() }()

	select {
	case m := <-pc.Messages():
		fmt.Println("consumed:", string(m.Value))
	case <-time.After(5 * time.Second):
		fmt.Println("no message consumed (timeout)")
	}

	return nil
}

func showCoverage() {
	fmt.Println("Invalidation coverage")
	loc := model.Coordinate{Latitude: 59.3293, Longitude: 18.0686}
	cells, err := geo.CoverageFor(loc, 8)
	if err != nil {
		fmt.Println("coverage error:", err)
		return
	}
	fmt.Printf("res-8 coverage of (%.4f, %.4f): %d cells\n",
		loc.Latitude, loc.Longitude, len(cells))
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	redisAddr := getenv("REDIS_ADDR", "localhost:6379")
	apiURL := getenv("API_URL", "http://localhost:8090")
	brokers := strings.Split(getenv("KAFKA_BROKERS", "localhost:9092"), ",")
	topic := getenv("KAFKA_TOPIC", "place-updates")

	if err := testRedis(ctx, redisAddr); err != nil {
		fmt.Println("Redis error:", err)
		return
	}
	if err := testAPI(apiURL); err != nil {
		fmt.Println("API error:", err)
		return
	}
	if err := testKafka(brokers, topic); err != nil {
		fmt.Println("Kafka error:", err)
		return
	}
	showCoverage()
	fmt.Println("All checks completed")
}
