//go:build integration

package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"adespota/internal/domain"
	"adespota/pkg/e"
)

var testClient *goredis.Client

func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
	}

	tc, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Println("cannot start container:", err)
		os.Exit(1)
	}

	host, _ := tc.Host(ctx)
	port, _ := tc.MappedPort(ctx, "6379/tcp")

	testClient = goredis.NewClient(&goredis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	if err := testClient.Ping(ctx).Err(); err != nil {
		fmt.Println("ping:", err)
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()

	_ = testClient.Close()
	_ = tc.Terminate(ctx)
	os.Exit(code)
}

func flush(t *testing.T) {
	t.Helper()
	if err := testClient.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func TestReportCache_MissSetInvalidate(t *testing.T) {
	flush(t)
	ctx := context.Background()
	c := NewReportCache(&Redis{Client: testClient})

	if _, err := c.Get(ctx); !errors.Is(err, e.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss got %v", err)
	}

	in := []domain.SubmittedReport{{
		ID:        uuid.New(),
		Type:      domain.AnimalDog,
		Urgency:   domain.UrgencyHigh,
		Tags:      []domain.Tag{domain.TagInjured},
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	if err := c.Set(ctx, in, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 1 || got[0].ID != in[0].ID || !got[0].Timestamp.Equal(in[0].Timestamp) {
		t.Fatalf("unexpected cached reports %+v", got)
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := c.Get(ctx); !errors.Is(err, e.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss after invalidate, got %v", err)
	}
}

func TestChallengeQueue_FIFO(t *testing.T) {
	flush(t)
	ctx := context.Background()
	q := NewChallengeQueue(testClient)

	first := domain.Challenge{ID: uuid.New(), Channel: domain.ChannelEmail, Contact: "a@b.c", Code: "1111"}
	second := domain.Challenge{ID: uuid.New(), Channel: domain.ChannelPhone, Contact: "+30", Code: "2222"}

	if err := q.Enqueue(ctx, first); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, second); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	got, err := q.BRPop(ctx, time.Second)
	if err != nil || got.ID != first.ID {
		t.Fatalf("expected first challenge, got %+v err=%v", got, err)
	}
	got, err = q.BRPop(ctx, time.Second)
	if err != nil || got.ID != second.ID {
		t.Fatalf("expected second challenge, got %+v err=%v", got, err)
	}

	if _, err := q.BRPop(ctx, time.Second); !errors.Is(err, e.ErrQueueEmpty) {
		t.Fatalf("expected ErrQueueEmpty got %v", err)
	}
}

func TestCodeStore(t *testing.T) {
	flush(t)
	ctx := context.Background()
	s := NewCodeStore(testClient, time.Minute)
	user := uuid.New()

	if _, err := s.GetCode(ctx, user); !errors.Is(err, e.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss got %v", err)
	}
	if err := s.SaveCode(ctx, user, "123456"); err != nil {
		t.Fatalf("SaveCode: %v", err)
	}
	code, err := s.GetCode(ctx, user)
	if err != nil || code != "123456" {
		t.Fatalf("unexpected code %q err=%v", code, err)
	}
	if err := s.DeleteCode(ctx, user); err != nil {
		t.Fatalf("DeleteCode: %v", err)
	}
	if _, err := s.GetCode(ctx, user); !errors.Is(err, e.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss after delete, got %v", err)
	}
}

func TestRevocations(t *testing.T) {
	flush(t)
	ctx := context.Background()
	r := NewRevocations(testClient)

	revoked, err := r.IsRevoked(ctx, "jti-1")
	if err != nil || revoked {
		t.Fatalf("fresh token reported revoked: %v %v", revoked, err)
	}

	if err := r.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	revoked, err = r.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Fatalf("expected revoked, got %v %v", revoked, err)
	}

	// already expired tokens need no entry
	if err := r.Revoke(ctx, "jti-2", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke expired: %v", err)
	}
	if revoked, _ := r.IsRevoked(ctx, "jti-2"); revoked {
		t.Fatalf("expired token should not be stored")
	}
}
