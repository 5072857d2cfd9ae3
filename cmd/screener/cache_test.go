package main

import (
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestCacheFlush(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("RS_REDIS_ADDR", mr.Addr())
	mr.Set("screen:a", "{}")
	mr.Set("screen:b", "{}")
	mr.Set("session:x", "keep")

	stdout, _, err := execute(t, "cache", "flush")
	if err != nil {
		t.Fatalf("cache flush: %v", err)
	}
	if !strings.Contains(stdout, "deleted 2 cached runs") {
		t.Errorf("output = %q", stdout)
	}
	if keys := mr.Keys(); len(keys) != 1 || keys[0] != "session:x" {
		t.Errorf("keys left = %v", keys)
	}
}

func TestCacheFlushWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	t.Setenv("RS_REDIS_ADDR", addr)
	if _, _, err := execute(t, "cache", "flush"); err == nil {
		t.Fatal("expected an error with Redis down")
	}
}
