package event

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
)

func newTestRedisSink(t *testing.T) (*RedisSink, *redis.Client) {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		mini, err := miniredis.Run()
		if err != nil {
			t.Fatalf("start miniredis: %v", err)
		}
		t.Cleanup(mini.Close)
		addr = mini.Addr()
	}

	sink, err := NewRedisSink(RedisConfig{Addr: addr, Stream: "test:events"})
	if err != nil {
		t.Fatalf("NewRedisSink: %v", err)
	}
	t.Cleanup(func() { _ = sink.Close() })

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Del(context.Background(), "test:events").Err(); err != nil {
		t.Fatalf("clear stream: %v", err)
	}
	return sink, client
}

// Test 1: emitted records land on the stream with a decodable payload.
func TestRedisSink_Emit(t *testing.T) {
	sink, client := newTestRedisSink(t)

	recs := []Record{
		{Kind: KindRepoCreated, Repo: "repo-1", Actor: "alice", Unix: 100},
		{Kind: KindRefAdded, Repo: "repo-1", Name: "main", ObjectID: "commit-1", Actor: "alice", Unix: 101},
	}
	for _, rec := range recs {
		if err := sink.Emit(rec); err != nil {
			t.Fatalf("Emit(%s): %v", rec.Kind, err)
		}
	}

	msgs, err := client.XRange(context.Background(), "test:events", "-", "+").Result()
	if err != nil {
		t.Fatalf("XRange: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("stream has %d messages, want 2", len(msgs))
	}

	var got Record
	if err := json.Unmarshal([]byte(msgs[1].Values["payload"].(string)), &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.Kind != KindRefAdded || got.Name != "main" || got.ObjectID != "commit-1" {
		t.Errorf("payload = %+v", got)
	}
	if msgs[0].Values["kind"] != string(KindRepoCreated) {
		t.Errorf("kind field = %v", msgs[0].Values["kind"])
	}
}

// Test 2: the memory sink preserves emission order.
func TestMemorySink_Order(t *testing.T) {
	sink := NewMemorySink()
	for i, kind := range []Kind{KindRepoCreated, KindFileStaged, KindCommitCreated} {
		if err := sink.Emit(Record{Kind: kind, Unix: int64(i)}); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}

	recs := sink.Records()
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].Kind != KindRepoCreated || recs[2].Kind != KindCommitCreated {
		t.Errorf("order = %v", recs)
	}
}

// Test 3: multi sink fans out to all members.
func TestMultiSink(t *testing.T) {
	a, b := NewMemorySink(), NewMemorySink()
	m := MultiSink{a, b}

	if err := m.Emit(Record{Kind: KindRefDeleted, Unix: 1}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(a.Records()) != 1 || len(b.Records()) != 1 {
		t.Errorf("fan-out missed a sink: a=%d b=%d", len(a.Records()), len(b.Records()))
	}
}
