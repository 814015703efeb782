package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestSubmissionGuardSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	guard := NewSubmissionGuard(newClient(mr))
	ctx := context.Background()

	ok, err := guard.Acquire(ctx, "payment:u1:abc", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected acquire, ok=%v err=%v", ok, err)
	}
	if !mr.Exists("guard:payment:u1:abc") {
		t.Fatalf("expected redis key to be set")
	}
	if ok, _ := guard.Acquire(ctx, "payment:u1:abc", time.Minute); ok {
		t.Fatalf("expected duplicate to be rejected")
	}

	mr.FastForward(2 * time.Minute)
	if ok, _ := guard.Acquire(ctx, "payment:u1:abc", time.Minute); !ok {
		t.Fatalf("expected key to expire")
	}

	if err := guard.Release(ctx, "payment:u1:abc"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("guard:payment:u1:abc") {
		t.Fatalf("expected redis key to be removed")
	}
}
