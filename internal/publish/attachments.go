package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/fclairamb/cfpub/internal/apperrors"
)

// syncAttachments converges the attachment set of one page onto the desired
// filename -> source path mapping. Stale attachments are deleted first, then
// each desired attachment is added or, when its content differs from the
// remote bytes, re-uploaded under the same identity.
func (p *Publisher) syncAttachments(ctx context.Context, pageID string, desired map[string]string) error {
	if err := p.deleteStaleAttachments(ctx, pageID, desired); err != nil {
		return err
	}

	// Map iteration order is random; process attachments in a stable order
	// so remote call sequences are reproducible.
	filenames := make([]string, 0, len(desired))
	for filename := range desired {
		filenames = append(filenames, filename)
	}
	sort.Strings(filenames)

	for _, filename := range filenames {
		if err := p.addOrUpdateAttachment(ctx, pageID, filename, desired[filename]); err != nil {
			return err
		}
	}

	return nil
}

// deleteStaleAttachments removes every remote attachment of pageID whose
// filename is not desired.
func (p *Publisher) deleteStaleAttachments(ctx context.Context, pageID string, desired map[string]string) error {
	remote, err := p.client.GetAttachments(ctx, pageID)
	if err != nil {
		return fmt.Errorf("list attachments of %s: %w", pageID, err)
	}

	for _, attachment := range remote {
		if _, ok := desired[attachment.Title]; ok {
			continue
		}
		if err := p.client.DeleteAttachment(ctx, attachment.ID); err != nil {
			return fmt.Errorf("delete attachment %s: %w", attachment.ID, err)
		}
		p.logger.InfoContext(ctx, "attachment deleted",
			"page_id", pageID,
			"attachment_id", attachment.ID,
			"filename", attachment.Title)
	}

	return nil
}

// addOrUpdateAttachment uploads one attachment, either as a new attachment
// when the filename is unknown to the page, or as a new version when the
// remote bytes differ from the local source file.
func (p *Publisher) addOrUpdateAttachment(ctx context.Context, pageID, filename, sourcePath string) error {
	existing, err := p.client.GetAttachmentByFilename(ctx, pageID, filename)
	if errors.Is(err, apperrors.ErrNotFound) {
		return p.addAttachment(ctx, pageID, filename, sourcePath)
	}
	if err != nil {
		return fmt.Errorf("look up attachment %q on %s: %w", filename, pageID, err)
	}

	same, err := p.sameAttachmentContent(ctx, existing, sourcePath)
	if err != nil {
		return err
	}
	if same {
		p.logger.DebugContext(ctx, "attachment unchanged", "page_id", pageID, "filename", filename)
		return nil
	}

	file, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open attachment %q: %w", sourcePath, err)
	}
	defer file.Close() //nolint:errcheck // read-only file

	if err := p.client.UpdateAttachmentContent(ctx, pageID, existing.ID, filename, file); err != nil {
		return fmt.Errorf("update attachment %q on %s: %w", filename, pageID, err)
	}

	p.logger.InfoContext(ctx, "attachment updated", "page_id", pageID, "filename", filename)

	return nil
}

// addAttachment uploads a brand-new attachment from its local source file.
func (p *Publisher) addAttachment(ctx context.Context, pageID, filename, sourcePath string) error {
	file, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open attachment %q: %w", sourcePath, err)
	}
	defer file.Close() //nolint:errcheck // read-only file

	if err := p.client.AddAttachment(ctx, pageID, filename, file); err != nil {
		return fmt.Errorf("add attachment %q to %s: %w", filename, pageID, err)
	}

	p.logger.InfoContext(ctx, "attachment added", "page_id", pageID, "filename", filename)

	return nil
}

// sameAttachmentContent digests the full remote byte stream and the full
// local file and reports whether they are identical.
func (p *Publisher) sameAttachmentContent(
	ctx context.Context, existing *RemoteAttachment, sourcePath string,
) (bool, error) {
	remote, err := p.client.GetAttachmentContent(ctx, existing.DownloadLink)
	if err != nil {
		return false, fmt.Errorf("get attachment content %s: %w", existing.ID, err)
	}
	remoteHash, err := hashStream(remote)
	if closeErr := remote.Close(); closeErr != nil {
		p.logger.WarnContext(ctx, "failed to close attachment stream", "error", closeErr)
	}
	if err != nil {
		return false, fmt.Errorf("hash remote attachment %s: %w", existing.ID, err)
	}

	file, err := os.Open(sourcePath)
	if err != nil {
		return false, fmt.Errorf("open attachment %q: %w", sourcePath, err)
	}
	localHash, err := hashStream(file)
	if closeErr := file.Close(); closeErr != nil {
		p.logger.WarnContext(ctx, "failed to close attachment file", "error", closeErr)
	}
	if err != nil {
		return false, fmt.Errorf("hash attachment %q: %w", sourcePath, err)
	}

	return remoteHash == localHash, nil
}
