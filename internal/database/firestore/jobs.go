package firestore

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/wizbi/wizbi/internal/api"
	"github.com/wizbi/wizbi/internal/constants"
	apperrors "github.com/wizbi/wizbi/internal/errors"
)

// JobRepository implements the database.JobRepository interface using
// Firestore.
type JobRepository struct {
	client *firestore.Client
	logger *slog.Logger
}

// NewJobRepository creates a new Firestore-backed job repository.
func NewJobRepository(client *firestore.Client, logger *slog.Logger) *JobRepository {
	return &JobRepository{
		client: client,
		logger: logger,
	}
}

func (r *JobRepository) jobs() *firestore.CollectionRef {
	return r.client.Collection(jobsCollection)
}

// Enqueue stores a new pending job.
func (r *JobRepository) Enqueue(ctx context.Context, job *api.Job) error {
	_, err := r.jobs().Doc(job.ID).Create(ctx, job)
	if err != nil {
		if isAlreadyExists(err) {
			return apperrors.ErrConflict("job already exists", err)
		}
		return apperrors.ErrDatabaseError("failed to enqueue job", err)
	}
	return nil
}

// ClaimNext atomically claims the oldest pending job, or a claimed job whose
// lease expired before now. The query and the claiming write run in one
// transaction so two workers cannot claim the same job.
func (r *JobRepository) ClaimNext(ctx context.Context, workerID string) (*api.Job, error) {
	now := time.Now().UTC()
	var claimed *api.Job

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		claimed = nil

		snap, err := r.nextClaimable(tx, now)
		if err != nil {
			return err
		}
		if snap == nil {
			return nil
		}

		var job api.Job
		if err := snap.DataTo(&job); err != nil {
			return err
		}

		job.Status = api.JobClaimed
		job.ClaimedBy = workerID
		job.LeaseExpiresAt = now.Add(constants.JobLeaseDuration)

		if err := tx.Update(snap.Ref, []firestore.Update{
			{Path: "status", Value: job.Status},
			{Path: "claimedBy", Value: job.ClaimedBy},
			{Path: "leaseExpiresAt", Value: job.LeaseExpiresAt},
		}); err != nil {
			return err
		}

		claimed = &job
		return nil
	})
	if err != nil {
		return nil, apperrors.ErrDatabaseError("failed to claim job", err)
	}

	return claimed, nil
}

// nextClaimable finds the oldest pending job, falling back to orphaned claims
// with an expired lease. Returns nil when nothing is claimable.
func (r *JobRepository) nextClaimable(tx *firestore.Transaction, now time.Time) (*firestore.DocumentSnapshot, error) {
	pending := r.jobs().
		Where("status", "==", string(api.JobPending)).
		OrderBy("createdAt", firestore.Asc).
		Limit(1)

	snap, err := firstDocument(tx.Documents(pending))
	if err != nil || snap != nil {
		return snap, err
	}

	orphaned := r.jobs().
		Where("status", "==", string(api.JobClaimed)).
		Where("leaseExpiresAt", "<", now).
		OrderBy("leaseExpiresAt", firestore.Asc).
		Limit(1)

	return firstDocument(tx.Documents(orphaned))
}

func firstDocument(iter *firestore.DocumentIterator) (*firestore.DocumentSnapshot, error) {
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Complete marks a claimed job done, or failed when errMsg is non-empty.
func (r *JobRepository) Complete(ctx context.Context, jobID string, errMsg string) error {
	status := api.JobDone
	if errMsg != "" {
		status = api.JobFailed
	}

	_, err := r.jobs().Doc(jobID).Update(ctx, []firestore.Update{
		{Path: "status", Value: status},
		{Path: "error", Value: errMsg},
	})
	if err != nil {
		if isNotFound(err) {
			return apperrors.ErrNotFound("job not found", err)
		}
		return apperrors.ErrDatabaseError("failed to complete job", err)
	}

	return nil
}
