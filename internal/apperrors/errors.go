// Package apperrors provides common static errors used throughout the application.
package apperrors

import (
	"errors"
	"fmt"
)

// HTTPError represents an HTTP error with a status code.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// NewHTTPError creates a new HTTPError.
func NewHTTPError(statusCode int, body string) *HTTPError {
	return &HTTPError{StatusCode: statusCode, Body: body}
}

// Common static errors used throughout the application.
var (
	// ErrNotFound is returned when a remote page, attachment or property does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSpaceKeyRequired is returned when the target space key is missing.
	ErrSpaceKeyRequired = errors.New("space key required (--space-key or CONFLUENCE_SPACE_KEY env var)")

	// ErrAncestorIDRequired is returned when the ancestor page ID is missing.
	ErrAncestorIDRequired = errors.New("ancestor ID required (--ancestor-id or CONFLUENCE_ANCESTOR_ID env var)")

	// ErrBaseURLRequired is returned when the Confluence base URL is missing.
	ErrBaseURLRequired = errors.New("confluence URL required (--url or CONFLUENCE_URL env var)")

	// ErrMultipleRootPages is returned when the replace-ancestor strategy is used
	// with more than one top-level page in the manifest.
	ErrMultipleRootPages = errors.New("multiple root pages defined, replace-ancestor allows only a single root")

	// ErrUnknownStrategy is returned when the publish strategy name cannot be resolved.
	ErrUnknownStrategy = errors.New("unknown publish strategy")

	// ErrDuplicateRemoteTitle is returned when more than one remote sibling page
	// carries the same title, making the title lookup ambiguous.
	ErrDuplicateRemoteTitle = errors.New("duplicate page title among remote siblings")

	// ErrDuplicateManifestTitle is returned when the manifest defines two sibling
	// pages with the same title.
	ErrDuplicateManifestTitle = errors.New("duplicate page title among manifest siblings")

	// ErrPageTitleEmpty is returned when a manifest page has no title.
	ErrPageTitleEmpty = errors.New("page title cannot be empty")

	// ErrContentFileEmpty is returned when a manifest page has no content file.
	ErrContentFileEmpty = errors.New("page content file cannot be empty")

	// ErrManifestRequired is returned when no manifest path is provided.
	ErrManifestRequired = errors.New("manifest file required")

	// ErrMultipleResults is returned when a lookup expected at most one
	// result but the store returned several.
	ErrMultipleResults = errors.New("multiple results for single-result lookup")

	// ErrMaxRetriesExceeded is returned when the maximum number of retries is exceeded.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
