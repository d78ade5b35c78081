package firestore

import (
	"context"
	"errors"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/wizbi/wizbi/internal/api"
	"github.com/wizbi/wizbi/internal/constants"
	apperrors "github.com/wizbi/wizbi/internal/errors"
	"github.com/wizbi/wizbi/internal/logger"
)

// ProjectRepository implements the database.ProjectRepository interface using
// Firestore.
type ProjectRepository struct {
	client *firestore.Client
	logger *slog.Logger
}

// NewProjectRepository creates a new Firestore-backed project repository.
func NewProjectRepository(client *firestore.Client, logger *slog.Logger) *ProjectRepository {
	return &ProjectRepository{
		client: client,
		logger: logger,
	}
}

func (r *ProjectRepository) doc(projectID string) *firestore.DocumentRef {
	return r.client.Collection(projectsCollection).Doc(projectID)
}

// CreateProject stores a new project document. Create fails with
// AlreadyExists when the document ID is taken, which is mapped to a conflict
// without touching the existing document.
func (r *ProjectRepository) CreateProject(ctx context.Context, project *api.Project) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	_, err := r.doc(project.ID).Create(ctx, project)
	if err != nil {
		if isAlreadyExists(err) {
			return apperrors.ErrConflict("project already exists", err)
		}
		return apperrors.ErrDatabaseError("failed to create project", err)
	}

	reqLogger.Debug("project stored successfully", "projectID", project.ID)

	return nil
}

// GetProject retrieves a project by ID. Returns nil if it doesn't exist.
func (r *ProjectRepository) GetProject(ctx context.Context, projectID string) (*api.Project, error) {
	snap, err := r.doc(projectID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, apperrors.ErrDatabaseError("failed to get project", err)
	}

	var project api.Project
	if err := snap.DataTo(&project); err != nil {
		return nil, apperrors.ErrDatabaseError("failed to unmarshal project", err)
	}

	return &project, nil
}

// ListProjects returns all project documents, newest first.
func (r *ProjectRepository) ListProjects(ctx context.Context) ([]*api.Project, error) {
	iter := r.client.Collection(projectsCollection).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	projects := []*api.Project{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, apperrors.ErrDatabaseError("failed to list projects", err)
		}

		var project api.Project
		if err := snap.DataTo(&project); err != nil {
			return nil, apperrors.ErrDatabaseError("failed to unmarshal project", err)
		}
		projects = append(projects, &project)
	}

	return projects, nil
}

// SetState updates the lifecycle state and the error message. An empty
// message clears any previously persisted error.
func (r *ProjectRepository) SetState(ctx context.Context, projectID string, state constants.ProjectState, errMsg string) error {
	_, err := r.doc(projectID).Update(ctx, []firestore.Update{
		{Path: "state", Value: state},
		{Path: "error", Value: errMsg},
	})
	if err != nil {
		if isNotFound(err) {
			return apperrors.ErrNotFound("project not found", err)
		}
		return apperrors.ErrDatabaseError("failed to update project state", err)
	}

	return nil
}

// BeginProvisioning atomically moves the project into the given initial state.
// The read and the write run in one transaction so two concurrent triggers
// cannot both observe a claimable state.
func (r *ProjectRepository) BeginProvisioning(ctx context.Context, projectID string, initial constants.ProjectState) error {
	ref := r.doc(projectID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return apperrors.ErrNotFound("project not found", err)
			}
			return apperrors.ErrDatabaseError("failed to read project", err)
		}

		var project api.Project
		if err := snap.DataTo(&project); err != nil {
			return apperrors.ErrDatabaseError("failed to unmarshal project", err)
		}

		if constants.IsInFlight(project.State) {
			return apperrors.ErrConflict("provisioning already in progress", nil)
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "state", Value: initial},
			{Path: "error", Value: ""},
		})
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperrors.ErrDatabaseError("failed to begin provisioning", err)
	}

	return nil
}

// SetProvisioningResult merges the given fields into the project document.
func (r *ProjectRepository) SetProvisioningResult(ctx context.Context, projectID string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}

	_, err := r.doc(projectID).Update(ctx, updates)
	if err != nil {
		if isNotFound(err) {
			return apperrors.ErrNotFound("project not found", err)
		}
		return apperrors.ErrDatabaseError("failed to persist provisioning result", err)
	}

	return nil
}

// AddLink appends a link via ArrayUnion so re-running a saga never duplicates
// an existing entry.
func (r *ProjectRepository) AddLink(ctx context.Context, projectID string, link api.Link) error {
	_, err := r.doc(projectID).Update(ctx, []firestore.Update{
		{Path: "links", Value: firestore.ArrayUnion(link)},
	})
	if err != nil {
		if isNotFound(err) {
			return apperrors.ErrNotFound("project not found", err)
		}
		return apperrors.ErrDatabaseError("failed to add project link", err)
	}

	return nil
}

// DeleteProject removes the project document. Deleting a missing document is
// not an error.
func (r *ProjectRepository) DeleteProject(ctx context.Context, projectID string) error {
	if _, err := r.doc(projectID).Delete(ctx); err != nil {
		return apperrors.ErrDatabaseError("failed to delete project", err)
	}
	return nil
}

// AnyProjectInOrganization reports whether at least one project still
// references the organization.
func (r *ProjectRepository) AnyProjectInOrganization(ctx context.Context, orgID string) (bool, error) {
	iter := r.client.Collection(projectsCollection).
		Where("organizationId", "==", orgID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, apperrors.ErrDatabaseError("failed to query organization projects", err)
	}

	return true, nil
}
