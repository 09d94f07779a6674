package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DigestSender рассылает учителям сводку ожидающих заявок
type DigestSender interface {
	SendPendingDigest(ctx context.Context) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	cron    *cron.Cron
	digest  DigestSender
	timeout time.Duration
	logger  *zap.Logger
}

// NewScheduler создаёт планировщик; spec в стандартном формате cron из пяти полей
func NewScheduler(spec string, digest DigestSender, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger}))),
		digest:  digest,
		timeout: 5 * time.Minute,
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(spec, s.runDigest); err != nil {
		return nil, fmt.Errorf("schedule pending digest %q: %w", spec, err)
	}
	return s, nil
}

// Run запускает задачи и блокируется до отмены ctx
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting background scheduler")
	s.cron.Start()

	<-ctx.Done()

	s.logger.Info("Stopping background scheduler")
	// Дожидаемся выполняющихся задач
	<-s.cron.Stop().Done()
	return nil
}

// runDigest отправляет сводку ожидающих заявок
func (s *Scheduler) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Info("Sending pending digest")
	sent, err := s.digest.SendPendingDigest(ctx)
	if err != nil {
		s.logger.Error("Failed to send pending digest", zap.Error(err))
		return
	}
	s.logger.Info("Pending digest completed", zap.Int("teachers", sent))
}

// cronLogger адаптер zap для robfig/cron
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
