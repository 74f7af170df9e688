package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/admin/tg-bots/stars-bot/internal/ports/jobs"
	"github.com/admin/tg-bots/stars-bot/internal/ports/service"
)

// Scheduler управляет запуском периодических джоб
type Scheduler struct {
	jobs           []jobs.Job
	retries        []time.Duration
	alerterService service.IAlerterService
	log            *slog.Logger
	now            func() time.Time
}

// NewScheduler создаёт новый планировщик джоб; retries - задержки перед повторными попытками
func NewScheduler(log *slog.Logger, alerterService service.IAlerterService, retries []time.Duration) *Scheduler {
	return &Scheduler{
		jobs:           make([]jobs.Job, 0),
		retries:        retries,
		alerterService: alerterService,
		log:            log,
		now:            time.Now,
	}
}

// Register регистрирует джобу в планировщике
func (s *Scheduler) Register(job jobs.Job) {
	s.jobs = append(s.jobs, job)
	s.log.Debug("job registered", "job_name", job.Name(), "total_jobs", len(s.jobs))
}

// Start запускает все зарегистрированные джобы и блокируется до отмены контекста
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.jobs) == 0 {
		s.log.Warn("no jobs registered, scheduler not started")
		return nil
	}

	s.log.Info("starting job scheduler", "jobs_count", len(s.jobs))

	done := make(chan struct{}, len(s.jobs))
	for _, job := range s.jobs {
		go func(job jobs.Job) {
			defer func() { done <- struct{}{} }()
			s.runJob(ctx, job)
		}(job)
	}

	for range s.jobs {
		<-done
	}
	s.log.Info("job scheduler stopped")
	return nil
}

// runJob запускает отдельную джобу в цикле
func (s *Scheduler) runJob(ctx context.Context, job jobs.Job) {
	jobName := job.Name()
	for {
		now := s.now()
		timer := time.NewTimer(job.NextRun(now).Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("job stopped by context", "job_name", jobName)
			return
		case <-timer.C:
			attemptErrors := s.executeJobWithRetry(ctx, job, jobName)
			if len(attemptErrors) > len(s.retries) {
				s.log.Error("job failed after all retries",
					"job_name", jobName,
					"attempts", len(attemptErrors),
					"last_error", attemptErrors[len(attemptErrors)-1].error,
				)
				s.sendAlert(ctx, jobName, attemptErrors)
			} else if len(attemptErrors) == 0 {
				s.log.Debug("job executed successfully", "job_name", jobName)
			}
		}
	}
}

// jobAttemptError представляет ошибку конкретной попытки выполнения джобы
type jobAttemptError struct {
	attempt int
	error   error
}

// executeJobWithRetry выполняет джобу с повторами по s.retries.
// Пустой результат - успех; ошибок больше, чем повторов - все попытки провалены.
func (s *Scheduler) executeJobWithRetry(ctx context.Context, job jobs.Job, jobName string) []jobAttemptError {
	var attemptErrors []jobAttemptError

	err := job.Run(ctx)
	if err == nil {
		return nil
	}
	attemptErrors = append(attemptErrors, jobAttemptError{attempt: 1, error: err})
	s.log.Warn("job execution failed, will retry",
		"job_name", jobName,
		"attempt", 1,
		"retries_remaining", len(s.retries),
		"error", err,
	)

	for i, retryDelay := range s.retries {
		attemptNum := i + 2
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retryDelay):
			if err := job.Run(ctx); err != nil {
				attemptErrors = append(attemptErrors, jobAttemptError{attempt: attemptNum, error: err})
				s.log.Warn("job retry failed",
					"job_name", jobName,
					"attempt", attemptNum,
					"retries_remaining", len(s.retries)-i-1,
					"error", err,
				)
			} else {
				return nil
			}
		}
	}

	return attemptErrors
}

// sendAlert алертит на финальную ошибку после ретраев
func (s *Scheduler) sendAlert(ctx context.Context, jobName string, attemptErrors []jobAttemptError) {
	if s.alerterService == nil {
		return
	}

	var errorLines []string
	for _, attemptErr := range attemptErrors {
		errorLines = append(errorLines, fmt.Sprintf("Попытка %d: %s", attemptErr.attempt, attemptErr.error.Error()))
	}

	var message strings.Builder
	message.WriteString("⚠️ Финальная ошибка планировщика, ретраи исчерпаны\n\n")
	message.WriteString(fmt.Sprintf("Джоба: %s\n\n", jobName))
	message.WriteString("Ошибки попыток:\n")
	message.WriteString(strings.Join(errorLines, "\n"))

	if alertErr := s.alerterService.SendAlert(ctx, message.String()); alertErr != nil {
		s.log.Warn("failed to send job failure alert",
			"job_name", jobName,
			"error", alertErr,
		)
	}
}
