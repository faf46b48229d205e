package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/kbassist/internal/db"
)

func TestNewStore_RequiresAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty addrs")
	}
}

func TestPing(t *testing.T) {
	tests := []struct {
		name    string
		result  rueidis.RedisResult
		wantErr bool
	}{
		{"pong", mock.Result(mock.RedisString("PONG")), false},
		{"timeout", mock.ErrorResult(context.DeadlineExceeded), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(tc.result)

			err := NewStoreForTest(c).Ping(context.Background())
			if (err != nil) != tc.wantErr {
				t.Fatalf("Ping() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("connection refused"))).
		AnyTimes()

	err := NewStoreForTest(c).WaitForReady(context.Background(), 250*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestWaitForReady_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	if err := NewStoreForTest(c).WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIsRedisErr(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisError("Unknown Index Name")))

	err := c.Do(context.Background(), c.B().Ping().Build()).Error()
	if !isRedisErr(err, "unknown index name") {
		t.Errorf("expected case-insensitive match for %v", err)
	}
	if isRedisErr(err, "already exists") {
		t.Error("unexpected match")
	}
	if isRedisErr(context.Canceled, "canceled") {
		t.Error("non-server errors must not match")
	}
}

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
