package firestore

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/wizbi/wizbi/internal/api"
	"github.com/wizbi/wizbi/internal/constants"
	apperrors "github.com/wizbi/wizbi/internal/errors"
	"github.com/wizbi/wizbi/internal/logger"
)

// OrganizationRepository implements the database.OrganizationRepository
// interface using Firestore.
type OrganizationRepository struct {
	client *firestore.Client
	logger *slog.Logger
}

// NewOrganizationRepository creates a new Firestore-backed organization
// repository.
func NewOrganizationRepository(client *firestore.Client, logger *slog.Logger) *OrganizationRepository {
	return &OrganizationRepository{
		client: client,
		logger: logger,
	}
}

func (r *OrganizationRepository) doc(orgID string) *firestore.DocumentRef {
	return r.client.Collection(organizationsCollection).Doc(orgID)
}

// CreateOrganization stores a new organization document.
func (r *OrganizationRepository) CreateOrganization(ctx context.Context, org *api.Organization) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	_, err := r.doc(org.ID).Create(ctx, org)
	if err != nil {
		if isAlreadyExists(err) {
			return apperrors.ErrConflict("organization already exists", err)
		}
		return apperrors.ErrDatabaseError("failed to create organization", err)
	}

	reqLogger.Debug("organization stored successfully", "organizationID", org.ID)

	return nil
}

// GetOrganization retrieves an organization by ID. Returns nil if it doesn't
// exist.
func (r *OrganizationRepository) GetOrganization(ctx context.Context, orgID string) (*api.Organization, error) {
	snap, err := r.doc(orgID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, apperrors.ErrDatabaseError("failed to get organization", err)
	}

	var org api.Organization
	if err := snap.DataTo(&org); err != nil {
		return nil, apperrors.ErrDatabaseError("failed to unmarshal organization", err)
	}

	return &org, nil
}

// ListOrganizations returns all organizations, newest first.
func (r *OrganizationRepository) ListOrganizations(ctx context.Context) ([]*api.Organization, error) {
	iter := r.client.Collection(organizationsCollection).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	orgs := []*api.Organization{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, apperrors.ErrDatabaseError("failed to list organizations", err)
		}

		var org api.Organization
		if err := snap.DataTo(&org); err != nil {
			return nil, apperrors.ErrDatabaseError("failed to unmarshal organization", err)
		}
		orgs = append(orgs, &org)
	}

	return orgs, nil
}

// SetState updates the lifecycle state and the error message.
func (r *OrganizationRepository) SetState(ctx context.Context, orgID string, state constants.OrganizationState, errMsg string) error {
	_, err := r.doc(orgID).Update(ctx, []firestore.Update{
		{Path: "state", Value: state},
		{Path: "error", Value: errMsg},
	})
	if err != nil {
		if isNotFound(err) {
			return apperrors.ErrNotFound("organization not found", err)
		}
		return apperrors.ErrDatabaseError("failed to update organization state", err)
	}

	return nil
}

// DeleteOrganization removes the organization document.
func (r *OrganizationRepository) DeleteOrganization(ctx context.Context, orgID string) error {
	if _, err := r.doc(orgID).Delete(ctx); err != nil {
		return apperrors.ErrDatabaseError("failed to delete organization", err)
	}
	return nil
}
