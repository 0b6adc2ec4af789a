package memory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/memory"
)

func TestFindBySubject_NotFound(t *testing.T) {
	repo := memory.NewIdentityRepository()

	_, err := repo.FindBySubject(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Errorf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestSave_MergesFields(t *testing.T) {
	repo := memory.NewIdentityRepository()
	ctx := context.Background()

	if err := repo.SavePhoneNumber(ctx, "u1", "+15551234567"); err != nil {
		t.Fatalf("save phone: %v", err)
	}
	if err := repo.SaveLinkedAccount(ctx, "u1", &domain.LinkedAccount{ID: "hld_1", Status: "active"}); err != nil {
		t.Fatalf("save linked: %v", err)
	}

	id, err := repo.FindBySubject(ctx, "u1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if id.PhoneNumber != "+15551234567" || id.LinkedAccountID != "hld_1" || id.LinkedStatus != "active" {
		t.Errorf("unexpected identity: %+v", id)
	}
}

func TestSaveLinkedAccount_RequiresID(t *testing.T) {
	repo := memory.NewIdentityRepository()
	if err := repo.SaveLinkedAccount(context.Background(), "u1", &domain.LinkedAccount{}); err == nil {
		t.Error("expected error for empty linked account id")
	}
}

func TestWithSubjectLock_SerializesPerSubject(t *testing.T) {
	repo := memory.NewIdentityRepository()
	ctx := context.Background()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.WithSubjectLock(ctx, "u1", func(context.Context) error {
				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	if got := maxInside.Load(); got != 1 {
		t.Errorf("max concurrent holders = %d, want 1", got)
	}
}

func TestWithSubjectLock_OtherSubjectsProceed(t *testing.T) {
	repo := memory.NewIdentityRepository()
	ctx := context.Background()

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = repo.WithSubjectLock(ctx, "u1", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	done := make(chan struct{})
	go func() {
		_ = repo.WithSubjectLock(ctx, "u2", func(context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for u2 blocked behind u1")
	}
}

func TestWithSubjectLock_CancelledWhileWaiting(t *testing.T) {
	repo := memory.NewIdentityRepository()

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = repo.WithSubjectLock(context.Background(), "u1", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := repo.WithSubjectLock(ctx, "u1", func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if called {
		t.Error("fn ran without the lock")
	}
}

func TestWithSubjectLock_PropagatesError(t *testing.T) {
	repo := memory.NewIdentityRepository()
	boom := errors.New("boom")

	err := repo.WithSubjectLock(context.Background(), "u1", func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}

	// lock must be free again
	if err := repo.WithSubjectLock(context.Background(), "u1", func(context.Context) error { return nil }); err != nil {
		t.Errorf("second acquire: %v", err)
	}
}
