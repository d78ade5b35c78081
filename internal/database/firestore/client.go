// Package firestore implements Firestore-based storage for wizbi.
// It provides persistence for project, organization, event log and job
// documents using Google Cloud Firestore.
package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/wizbi/wizbi/internal/errors"
)

// Collection names.
const (
	projectsCollection      = "projects"
	organizationsCollection = "organizations"
	eventsCollection        = "events"
	jobsCollection          = "jobs"
)

// NewClient creates a Firestore client bound to the given project and
// database.
func NewClient(ctx context.Context, projectID, database string) (*firestore.Client, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return nil, apperrors.ErrDatabaseError("failed to create Firestore client", err)
	}
	return client, nil
}

// isAlreadyExists reports whether err is a Firestore "document already exists"
// error.
func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

// isNotFound reports whether err is a Firestore "document not found" error.
func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
