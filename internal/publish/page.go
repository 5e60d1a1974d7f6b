package publish

import (
	"context"
	"fmt"
)

// syncPage brings one existing remote page in line with its desired state.
// When the stored content fingerprint matches the new content hash and the
// title is unchanged, the page is left untouched. A title-only change still
// triggers an update: the title is part of the change signal even though it
// is not part of the hash.
func (p *Publisher) syncPage(ctx context.Context, remote *RemotePage, desired *Page) error {
	content, err := desired.content()
	if err != nil {
		return err
	}

	storedHash, err := p.client.GetPropertyByKey(ctx, remote.ID, contentHashPropertyKey)
	if err != nil {
		return fmt.Errorf("get content hash of %s: %w", remote.ID, err)
	}

	newHash := fingerprint(content)

	// An absent stored hash reads as empty and never matches, forcing a
	// re-publish of the page.
	if storedHash == newHash && remote.Title == desired.Title {
		p.logger.DebugContext(ctx, "page unchanged", "page_id", remote.ID, "title", remote.Title)
		return nil
	}

	// Drop the stale hash first: if the update fails midway, a missing
	// property is safe while a wrong one is not.
	if err := p.client.DeletePropertyByKey(ctx, remote.ID, contentHashPropertyKey); err != nil {
		return fmt.Errorf("delete content hash of %s: %w", remote.ID, err)
	}

	newVersion := remote.Version + 1
	if err := p.client.UpdatePage(ctx, remote.ID, remote.ParentID, desired.Title, content, newVersion); err != nil {
		return fmt.Errorf("update page %s: %w", remote.ID, err)
	}

	if err := p.client.SetPropertyByKey(ctx, remote.ID, contentHashPropertyKey, newHash); err != nil {
		return fmt.Errorf("set content hash of %s: %w", remote.ID, err)
	}

	updated := RemotePage{
		ID:       remote.ID,
		ParentID: remote.ParentID,
		Title:    desired.Title,
		Content:  content,
		Version:  newVersion,
	}

	p.logger.InfoContext(ctx, "page updated",
		"page_id", remote.ID,
		"title", desired.Title,
		"version", newVersion)
	p.listener(PageUpdated{Before: *remote, After: updated})

	return nil
}
