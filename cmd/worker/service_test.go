package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/fitlinehq/fitline-backend/pkg/config"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error {
	return f.err
}

type fakeRunner struct {
	err    error
	called bool
}

func (f *fakeRunner) Run(ctx context.Context) error {
	f.called = true
	return f.err
}

func newWorkerService(t *testing.T, db, redis, pubsub pinger, r runner) *Service {
	t.Helper()
	logg := logger.New(logger.Options{
		ServiceName: "worker-test",
		Output:      io.Discard,
	})
	service, err := NewService(ServiceParams{
		Config: &config.Config{},
		Logger: logg,
		DB:     db,
		Redis:  redis,
		PubSub: pubsub,
		Runner: r,
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func TestServiceRunFailsWhenDependencyIsDown(t *testing.T) {
	r := &fakeRunner{}
	service := newWorkerService(t, fakePinger{}, fakePinger{err: errors.New("redis down")}, fakePinger{}, r)

	err := service.Run(context.Background())
	if err == nil {
		t.Fatalf("expected readiness error")
	}
	if r.called {
		t.Fatalf("runner must not start when readiness fails")
	}
}

func TestServiceRunPropagatesRunnerError(t *testing.T) {
	want := errors.New("subscription closed")
	r := &fakeRunner{err: want}
	service := newWorkerService(t, fakePinger{}, fakePinger{}, fakePinger{}, r)

	err := service.Run(context.Background())
	if !errors.Is(err, want) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServiceRunReturnsContextError(t *testing.T) {
	blocker := &blockingRunner{}
	service := newWorkerService(t, fakePinger{}, fakePinger{}, fakePinger{}, blocker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := service.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected error: %v", err)
	}
}

type blockingRunner struct{}

func (b *blockingRunner) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
