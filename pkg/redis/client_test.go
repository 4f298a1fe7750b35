package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Ping(ctx context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *goredis.BoolCmd {
	if _, held := f.values[key]; held {
		return goredis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	return goredis.NewBoolResult(true, nil)
}

// Eval mirrors the owner-checked delete the release script performs.
func (f *fakeStore) Eval(ctx context.Context, script string, keys []string, args ...any) *goredis.Cmd {
	if len(keys) != 1 || len(args) != 1 {
		return goredis.NewCmdResult(int64(0), nil)
	}
	if f.values[keys[0]] == args[0].(string) {
		delete(f.values, keys[0])
		return goredis.NewCmdResult(int64(1), nil)
	}
	return goredis.NewCmdResult(int64(0), nil)
}

func TestLockKeyIsNamespaced(t *testing.T) {
	c := &Client{store: newFakeStore()}
	if got := c.LockKey("ORD-1001"); got != "sk:lock:ORD-1001" {
		t.Fatalf("unexpected lock key: %q", got)
	}
}

func TestAcquireLockIsExclusivePerScope(t *testing.T) {
	ctx := context.Background()
	c := &Client{store: newFakeStore()}

	ok, err := c.AcquireLock(ctx, "ORD-1001", "owner-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	ok, err = c.AcquireLock(ctx, "ORD-1001", "owner-b", time.Minute)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("second acquire should fail while the lease is held")
	}

	ok, err = c.AcquireLock(ctx, "ORD-2002", "owner-b", time.Minute)
	if err != nil || !ok {
		t.Fatalf("acquire on a different scope: ok=%v err=%v", ok, err)
	}
}

func TestReleaseLockRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	c := &Client{store: newFakeStore()}

	if ok, err := c.AcquireLock(ctx, "ORD-1001", "owner-a", time.Minute); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}

	if err := c.ReleaseLock(ctx, "ORD-1001", "owner-b"); err != nil {
		t.Fatalf("release by non-owner: %v", err)
	}
	if ok, _ := c.AcquireLock(ctx, "ORD-1001", "owner-c", time.Minute); ok {
		t.Fatal("lease should survive a release by a non-owner")
	}

	if err := c.ReleaseLock(ctx, "ORD-1001", "owner-a"); err != nil {
		t.Fatalf("release by owner: %v", err)
	}
	if ok, _ := c.AcquireLock(ctx, "ORD-1001", "owner-c", time.Minute); !ok {
		t.Fatal("lease should be free after the owner releases it")
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	ctx := context.Background()
	c := &Client{}

	if _, err := c.AcquireLock(ctx, "ORD-1001", "owner-a", time.Minute); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if err := c.ReleaseLock(ctx, "ORD-1001", "owner-a"); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if err := c.Ping(ctx); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
}
