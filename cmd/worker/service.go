package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fitlinehq/fitline-backend/pkg/config"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
)

type runner interface {
	Run(context.Context) error
}

type pinger interface {
	Ping(context.Context) error
}

type ServiceParams struct {
	Config *config.Config
	Logger *logger.Logger
	DB     pinger
	Redis  pinger
	PubSub pinger
	Runner runner
}

// Service supervises the notification subscription runner and gates
// startup on dependency readiness.
type Service struct {
	cfg    *config.Config
	logg   *logger.Logger
	db     pinger
	redis  pinger
	pubsub pinger
	runner runner
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.Runner == nil {
		return nil, errors.New("notification runner is required")
	}

	return &Service{
		cfg:    params.Config,
		logg:   params.Logger,
		db:     params.DB,
		redis:  params.Redis,
		pubsub: params.PubSub,
		runner: params.Runner,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping); err != nil {
		return err
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.runner.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		s.logg.Info(ctx, "worker context canceled")
		return ctx.Err()
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(ctx, "notification runner stopped unexpectedly", err)
		}
		return err
	}
}
