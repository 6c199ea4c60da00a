package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestPresenceMarkers(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewPresenceStore(newClient(mr), time.Minute)

	store.Connected("alice")
	if !mr.Exists("presence:user:alice") {
		t.Fatalf("expected presence marker after connect")
	}
	if ttl := mr.TTL("presence:user:alice"); ttl != time.Minute {
		t.Fatalf("expected 1m TTL, got %v", ttl)
	}

	store.Disconnected("alice")
	if mr.Exists("presence:user:alice") {
		t.Fatalf("expected marker removed after disconnect")
	}
}

func TestPresenceMarkerExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewPresenceStore(newClient(mr), time.Minute)
	store.Connected("alice")

	mr.FastForward(2 * time.Minute)
	if mr.Exists("presence:user:alice") {
		t.Fatalf("expected stale marker to expire")
	}
}
