package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUploadLimiter_AcquireRelease(t *testing.T) {
	l := NewUploadLimiter(2, time.Second)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got := l.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount() = %d, want 2", got)
	}

	l.Release()
	l.Release()
	if got := l.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() = %d, want 0", got)
	}
}

func TestUploadLimiter_RejectsWhenFull(t *testing.T) {
	l := NewUploadLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer l.Release()

	err := l.Acquire(ctx)
	if !errors.Is(err, ErrTooManyUploads) {
		t.Errorf("Acquire() error = %v, want ErrTooManyUploads", err)
	}
}

func TestUploadLimiter_ContextCancelled(t *testing.T) {
	l := NewUploadLimiter(1, time.Minute)

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Acquire(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() error = %v, want context.Canceled", err)
	}
}

func TestUploadLimiter_Status(t *testing.T) {
	l := NewUploadLimiter(3, time.Second)

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer l.Release()

	status := l.Status()
	if status.Active != 1 {
		t.Errorf("Status().Active = %d, want 1", status.Active)
	}
	if status.MaxConcurrent != 3 {
		t.Errorf("Status().MaxConcurrent = %d, want 3", status.MaxConcurrent)
	}
	if status.Available != 2 {
		t.Errorf("Status().Available = %d, want 2", status.Available)
	}
}

func TestUploadLimiter_WaitForDrain(t *testing.T) {
	l := NewUploadLimiter(1, time.Second)

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		done <- l.WaitForDrain(ctx)
	}()

	time.Sleep(150 * time.Millisecond)
	l.Release()

	if err := <-done; err != nil {
		t.Errorf("WaitForDrain() error = %v", err)
	}
}
