package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IBM/sarama"

	"github.com/moodscout/moodscout/internal/cache"
	"github.com/moodscout/moodscout/internal/core/model"
	"github.com/moodscout/moodscout/internal/invalidation"
)

type fakeCache struct {
	failFirst atomic.Bool
	seenDel   []string
	mu        sync.Mutex
}

func (f *fakeCache) Get(_ context.Context, _ string) ([]byte, bool, error) { return nil, false, nil }
func (f *fakeCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}
func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	f.seenDel = append(f.seenDel, keys...)
	f.mu.Unlock()
	if f.failFirst.Load() {
		f.failFirst.Store(false)
		return errors.New("boom")
	}
	return nil
}

type sess struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *sess) Claims() map[string][]int32 { return nil }
func (s *sess) MemberID() string           { return "" }
func (s *sess) GenerationID() int32        { return 0 }
func (s *sess) MarkMessage(m *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	s.marked = append(s.marked, m.Offset)
	s.mu.Unlock()
}
func (s *sess) ResetOffset(_ string, _ int32, _ int64, _ string) {}
func (s *sess) MarkOffset(_ string, _ int32, _ int64, _ string)  {}
func (s *sess) Context() context.Context                         { return s.ctx }
func (s *sess) Errors() <-chan error                             { return nil }
func (s *sess) Commit()                                          {}

type claim struct {
	part int32
	msgs chan *sarama.ConsumerMessage
}

func (c *claim) Topic() string                            { return "place-updates" }
func (c *claim) Partition() int32                         { return c.part }
func (c *claim) InitialOffset() int64                     { return 0 }
func (c *claim) HighWaterMarkOffset() int64               { return 0 }
func (c *claim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func eventBytes() []byte {
	ev := invalidation.Event{
		Version: 1, Op: "update", PlaceID: "place-1", TS: time.Now().UTC(),
		Location: model.Coordinate{Latitude: 59.3293, Longitude: 18.0686},
	}
	b, _ := json.Marshal(ev)
	return b
}

func newConsumerForTest(fc cache.Interface) *Consumer {
	cfg := Config{Brokers: []string{"x"}, Topic: "place-updates", GroupID: "g"}
	return New(cfg, slog.Default(), fc, 8, []int{1000}, []string{"park", "museum"})
}

func TestProcessOne_DeletesCoverageKeys(t *testing.T) {
	fc := &fakeCache{}
	c := newConsumerForTest(fc)

	msg := &sarama.ConsumerMessage{Topic: "place-updates", Partition: 0, Offset: 1, Value: eventBytes()}
	if err := c.ProcessOne(context.Background(), msg); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if len(fc.seenDel) == 0 {
		t.Fatalf("expected cache deletions")
	}
	// Every activity appears in the deleted key set; the ring spans one
	// cell plus its neighbors, so counts are a multiple of the activity
	// and radius fan-out.
	if len(fc.seenDel)%2 != 0 {
		t.Fatalf("deleted %d keys, want a multiple of the 2 activities", len(fc.seenDel))
	}
	var parks, museums int
	for _, k := range fc.seenDel {
		if strings.Contains(k, ":park:") {
			parks++
		}
		if strings.Contains(k, ":museum:") {
			museums++
		}
	}
	if parks == 0 || museums == 0 || parks != museums {
		t.Fatalf("activity fan-out uneven: park=%d museum=%d", parks, museums)
	}
}

func TestProcessOne_RejectsInvalidEvent(t *testing.T) {
	fc := &fakeCache{}
	c := newConsumerForTest(fc)

	ev := invalidation.Event{Version: 1, Op: "rename", PlaceID: "p", TS: time.Now().UTC()}
	b, _ := json.Marshal(ev)
	msg := &sarama.ConsumerMessage{Topic: "place-updates", Partition: 0, Offset: 1, Value: b}
	if err := c.ProcessOne(context.Background(), msg); err == nil {
		t.Fatalf("expected error for invalid op")
	}
	if len(fc.seenDel) != 0 {
		t.Fatalf("invalid event must not touch the cache; deleted %v", fc.seenDel)
	}
}

func TestSinglePartition_OrderAndCommitAfterWork(t *testing.T) {
	fc := &fakeCache{}
	c := newConsumerForTest(fc)

	g := &groupHandler{process: c.ProcessOne}
	ctx := t.Context()
	s := &sess{ctx: ctx}
	ch := make(chan *sarama.ConsumerMessage, 2)
	cl := &claim{part: 0, msgs: ch}

	ch <- &sarama.ConsumerMessage{Topic: "place-updates", Partition: 0, Offset: 10, Value: eventBytes()}
	ch <- &sarama.ConsumerMessage{Topic: "place-updates", Partition: 0, Offset: 11, Value: eventBytes()}
	close(ch)

	if err := g.ConsumeClaim(s, cl); err != nil {
		t.Fatalf("ConsumeClaim: %v", err)
	}

	if len(s.marked) != 2 || s.marked[0] != 10 || s.marked[1] != 11 {
		t.Fatalf("marked offsets=%v want [10 11]", s.marked)
	}
}

func TestRetry_CommitOnceAfterSuccess(t *testing.T) {
	fc := &fakeCache{}
	fc.failFirst.Store(true)
	c := newConsumerForTest(fc)
	ctx := context.Background()

	msg := &sarama.ConsumerMessage{Topic: "place-updates", Partition: 0, Offset: 5, Value: eventBytes()}
	if err := c.ProcessOne(ctx, msg); err == nil {
		t.Fatalf("expected error on first attempt")
	}

	s := &sess{ctx: ctx}
	g := &groupHandler{process: c.ProcessOne}
	ch := make(chan *sarama.ConsumerMessage, 1)
	ch <- msg
	close(ch)
	if err := g.ConsumeClaim(s, &claim{part: 0, msgs: ch}); err != nil {
		t.Fatalf("ConsumeClaim second attempt: %v", err)
	}
	if len(s.marked) != 1 || s.marked[0] != 5 {
		t.Fatalf("offset was not marked after success; marked=%v", s.marked)
	}
}

func TestMultiPartition_Parallel_NoCrossOrdering(t *testing.T) {
	fc := &fakeCache{}
	c := newConsumerForTest(fc)
	g := &groupHandler{process: c.ProcessOne}

	ctx := t.Context()
	s := &sess{ctx: ctx}

	p0 := make(chan *sarama.ConsumerMessage, 2)
	p1 := make(chan *sarama.ConsumerMessage, 2)
	p0 <- &sarama.ConsumerMessage{Topic: "t", Partition: 0, Offset: 1, Value: eventBytes()}
	p0 <- &sarama.ConsumerMessage{Topic: "t", Partition: 0, Offset: 2, Value: eventBytes()}
	p1 <- &sarama.ConsumerMessage{Topic: "t", Partition: 1, Offset: 1, Value: eventBytes()}
	p1 <- &sarama.ConsumerMessage{Topic: "t", Partition: 1, Offset: 2, Value: eventBytes()}
	close(p0)
	close(p1)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = g.ConsumeClaim(s, &claim{part: 0, msgs: p0}) }()
	go func() { defer wg.Done(); _ = g.ConsumeClaim(s, &claim{part: 1, msgs: p1}) }()
	wg.Wait()

	if len(s.marked) != 4 {
		t.Fatalf("expected 4 marks total; got %v", s.marked)
	}
}

func TestProcessOne_SkipsReplayedEvent(t *testing.T) {
	fc := &fakeCache{}
	c := newConsumerForTest(fc)

	body := eventBytes()
	first := &sarama.ConsumerMessage{Topic: "place-updates", Partition: 0, Offset: 1, Value: body}
	if err := c.ProcessOne(context.Background(), first); err != nil {
		t.Fatalf("first ProcessOne: %v", err)
	}
	fc.mu.Lock()
	n := len(fc.seenDel)
	fc.mu.Unlock()
	if n == 0 {
		t.Fatal("expected deletions from first delivery")
	}

	replay := &sarama.ConsumerMessage{Topic: "place-updates", Partition: 0, Offset: 2, Value: body}
	if err := c.ProcessOne(context.Background(), replay); err != nil {
		t.Fatalf("replayed ProcessOne: %v", err)
	}
	fc.mu.Lock()
	after := len(fc.seenDel)
	fc.mu.Unlock()
	if after != n {
		t.Fatalf("replay triggered %d extra deletions", after-n)
	}
}

func TestProcessOne_NewerEventForSamePlaceInvalidatesAgain(t *testing.T) {
	fc := &fakeCache{}
	c := newConsumerForTest(fc)

	old := invalidation.Event{
		Version: 1, Op: "update", PlaceID: "place-1",
		TS:       time.Now().UTC(),
		Location: model.Coordinate{Latitude: 59.3293, Longitude: 18.0686},
	}
	newer := old
	newer.TS = old.TS.Add(time.Second)

	oldBody, _ := json.Marshal(old)
	newBody, _ := json.Marshal(newer)

	if err := c.ProcessOne(context.Background(), &sarama.ConsumerMessage{Offset: 1, Value: oldBody}); err != nil {
		t.Fatal(err)
	}
	fc.mu.Lock()
	n := len(fc.seenDel)
	fc.mu.Unlock()

	if err := c.ProcessOne(context.Background(), &sarama.ConsumerMessage{Offset: 2, Value: newBody}); err != nil {
		t.Fatal(err)
	}
	fc.mu.Lock()
	after := len(fc.seenDel)
	fc.mu.Unlock()
	if after != 2*n {
		t.Fatalf("newer event should invalidate again: %d deletions after, %d first", after, n)
	}
}
