package processor

import (
	"context"

	"tgshop/catalog-service/internal/app/catalog/service"
	"tgshop/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CronScheduler периодически сверяет каталоги всех владельцев с активными ботами
type CronScheduler struct {
	cron       *cron.Cron
	reconciler service.Reconciler
}

// NewCronScheduler создает планировщик; расписание с секундами (6 полей)
func NewCronScheduler(reconciler service.Reconciler) *CronScheduler {
	log := cronLogger{}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)

	return &CronScheduler{
		cron:       c,
		reconciler: reconciler,
	}
}

// Start регистрирует задачу, запускает планировщик и сразу выполняет первый обход
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting catalog sweep scheduler")

	if _, err := s.cron.AddFunc(schedule, func() { s.sweep(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("Catalog sweep scheduler started")

	s.sweep(ctx)
	return nil
}

// Stop дожидается завершения текущего обхода
func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping catalog sweep scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Catalog sweep scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

func (s *CronScheduler) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	owners, err := s.reconciler.SweepAll(ctx, service.TriggerCron)
	if err != nil {
		logger.Error().Err(err).Int("reconciled", owners).Msg("Catalog sweep finished with errors")
		return
	}
	logger.Debug().Int("reconciled", owners).Msg("Catalog sweep completed")
}

// cronLogger направляет журнал robfig/cron в zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
