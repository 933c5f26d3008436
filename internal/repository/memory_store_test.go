package repository

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreGetSetRemove(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, ok, _ := s.Get(ctx, KeyCredential); ok {
		t.Fatalf("expected empty store")
	}
	if err := s.SetMany(ctx, map[string]string{KeyCredential: "abc", KeyIssuedAt: "1"}); err != nil {
		t.Fatalf("set many: %v", err)
	}
	v, ok, err := s.Get(ctx, KeyCredential)
	if err != nil || !ok || v != "abc" {
		t.Fatalf("get = %q %v %v", v, ok, err)
	}
	if err := s.Remove(ctx, KeyCredential); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := s.Get(ctx, KeyCredential); ok {
		t.Fatalf("expected key removed")
	}
}

func TestMemoryStorePublishReachesEveryWatcher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewMemoryStore()

	a, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	b, _ := s.Watch(ctx)

	if err := s.Publish(ctx); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for i, ch := range []<-chan SessionEvent{a, b} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("watcher %d did not receive event", i)
		}
	}
}

func TestMemoryStoreWatchClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewMemoryStore()
	ch, _ := s.Watch(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed after cancel")
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	s := NewMemoryStore()
	s.Close()
	if err := s.Set(context.Background(), KeyCredential, "x"); err != ErrStoreClosed {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
}
