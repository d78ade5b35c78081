package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wizbi/wizbi/internal/api"
	"github.com/wizbi/wizbi/internal/constants"
)

// RunWorkers starts the saga worker pool and blocks until the context is
// cancelled. Each worker repeatedly claims the oldest runnable job; claims
// carry a lease, so a job orphaned by a crashed process becomes claimable
// again once its lease expires.
func (s *Service) RunWorkers(ctx context.Context, count int) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		workerID := fmt.Sprintf("worker-%d-%s", i, uuid.NewString()[:8])
		g.Go(func() error {
			s.workerLoop(gctx, workerID)
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) workerLoop(ctx context.Context, workerID string) {
	log := s.Logger.With("worker", workerID)
	log.Info("saga worker started")

	ticker := time.NewTicker(constants.JobPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("saga worker stopped")
			return
		case <-ticker.C:
		}

		job, err := s.jobRepo.ClaimNext(ctx, workerID)
		if err != nil {
			log.Error("failed to claim job", "error", err)
			continue
		}
		if job == nil {
			continue
		}

		s.runJob(ctx, log.With("jobID", job.ID, "kind", string(job.Kind), "target", job.TargetID), job)
	}
}

// runJob executes one claimed job and records its outcome. The job context is
// bounded by the lease so a wedged saga cannot outlive its claim.
func (s *Service) runJob(ctx context.Context, log *slog.Logger, job *api.Job) {
	jobCtx, cancel := context.WithTimeout(ctx, constants.JobLeaseDuration)
	defer cancel()

	log.Info("job claimed")

	var err error
	switch job.Kind {
	case api.JobProvisionProject:
		err = s.RunFullProvisioning(jobCtx, job.TargetID)
	case api.JobDeleteProject:
		err = s.RunProjectDeletion(jobCtx, job.TargetID)
	case api.JobDeleteOrganization:
		err = s.RunOrganizationDeletion(jobCtx, job.TargetID)
	default:
		err = fmt.Errorf("unknown job kind %q", job.Kind)
	}

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
		log.Error("job failed", "error", err)
	} else {
		log.Info("job completed")
	}

	if completeErr := s.jobRepo.Complete(ctx, job.ID, errMsg); completeErr != nil {
		log.Error("failed to record job outcome", "error", completeErr)
	}
}
