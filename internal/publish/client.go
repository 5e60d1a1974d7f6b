package publish

import (
	"context"
	"io"
)

// Client is the capability set the engine consumes from the content store.
// Every call is blocking; the engine issues exactly one outstanding remote
// operation at a time. Implementations own transport-level concerns such as
// auth, rate limiting and retries.
//
//nolint:interfacebloat // Client mirrors the full content-store capability set
type Client interface {
	// GetChildPages lists the direct child pages of a page, in store order.
	GetChildPages(ctx context.Context, pageID string) ([]RemotePage, error)
	// GetPageWithVersion fetches a page including its content and version.
	GetPageWithVersion(ctx context.Context, pageID string) (*RemotePage, error)
	// AddPage creates a page under an ancestor and returns its new ID.
	AddPage(ctx context.Context, spaceKey, ancestorID, title, content string) (string, error)
	// UpdatePage updates a page. The store rejects the call when version is
	// not exactly the current remote version plus one.
	UpdatePage(ctx context.Context, pageID, ancestorID, title, content string, version int) error
	// DeletePage deletes a page. The page must have no remaining children.
	DeletePage(ctx context.Context, pageID string) error

	// GetAttachments lists the attachments of a page, in store order.
	GetAttachments(ctx context.Context, pageID string) ([]RemoteAttachment, error)
	// GetAttachmentByFilename looks up an attachment of a page by filename.
	// Returns apperrors.ErrNotFound when no such attachment exists.
	GetAttachmentByFilename(ctx context.Context, pageID, filename string) (*RemoteAttachment, error)
	// GetAttachmentContent streams the bytes of an attachment.
	GetAttachmentContent(ctx context.Context, downloadLink string) (io.ReadCloser, error)
	// AddAttachment uploads a new attachment to a page.
	AddAttachment(ctx context.Context, pageID, filename string, content io.Reader) error
	// UpdateAttachmentContent uploads a new version of an existing attachment.
	// filename must be the attachment's current filename: the store adopts
	// the uploaded name as the attachment's title.
	UpdateAttachmentContent(ctx context.Context, pageID, attachmentID, filename string, content io.Reader) error
	// DeleteAttachment deletes an attachment.
	DeleteAttachment(ctx context.Context, attachmentID string) error

	// GetPropertyByKey reads an opaque content property of a page. An absent
	// property is reported as an empty string, not as an error.
	GetPropertyByKey(ctx context.Context, pageID, key string) (string, error)
	// SetPropertyByKey writes an opaque content property of a page.
	SetPropertyByKey(ctx context.Context, pageID, key, value string) error
	// DeletePropertyByKey removes a content property of a page. Removing an
	// absent property is not an error.
	DeletePropertyByKey(ctx context.Context, pageID, key string) error
}
