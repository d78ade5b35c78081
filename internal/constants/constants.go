// Package constants defines shared constants for wizbi.
package constants

// Environment identifies the runtime environment.
type Environment string

const (
	// Production is the deployed environment (JSON logs).
	Production Environment = "production"
	// Development is the local environment (colored logs).
	Development Environment = "development"
)

// ProjectIDPrefix is prepended to every generated project identifier.
const ProjectIDPrefix = "wizbi"

// ContentTypeHeader is the standard content-type request header name.
const ContentTypeHeader = "Content-Type"

// RequestIDByteSize is the number of random bytes in a generated request ID.
const RequestIDByteSize = 16
