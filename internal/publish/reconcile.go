package publish

import (
	"context"
	"fmt"

	"github.com/fclairamb/cfpub/internal/apperrors"
)

// reconcileLevel converges one level of the remote tree onto the desired
// sibling set, then recurses into the children of every desired page.
//
// The deletion pass must fully complete before any creation or update at the
// same level: a deleted page's title may be reused by a new desired page in
// the same run. A page's attachments are synchronized before recursing into
// its children, and a child level is only entered once the parent's remote
// ID is known.
func (p *Publisher) reconcileLevel(ctx context.Context, desired []*Page, parentID string) error {
	remaining, err := p.deleteStalePages(ctx, desired, parentID)
	if err != nil {
		return err
	}

	for _, page := range desired {
		pageID, err := p.upsertPage(ctx, page, parentID, remaining)
		if err != nil {
			return err
		}

		if err := p.syncAttachments(ctx, pageID, page.Attachments); err != nil {
			return err
		}

		if err := p.reconcileLevel(ctx, page.Children, pageID); err != nil {
			return err
		}
	}

	return nil
}

// deleteStalePages removes every remote child of parentID whose title has no
// match in the desired sibling set, and returns the remote children that
// were kept.
func (p *Publisher) deleteStalePages(ctx context.Context, desired []*Page, parentID string) ([]RemotePage, error) {
	remoteChildren, err := p.client.GetChildPages(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child pages of %s: %w", parentID, err)
	}

	desiredTitles := make(map[string]bool, len(desired))
	for _, page := range desired {
		desiredTitles[page.Title] = true
	}

	var kept []RemotePage
	for _, remote := range remoteChildren {
		if desiredTitles[remote.Title] {
			kept = append(kept, remote)
			continue
		}
		if err := p.deleteSubtree(ctx, remote); err != nil {
			return nil, err
		}
	}

	return kept, nil
}

// deleteSubtree deletes a remote page and its whole subtree, children before
// the page itself. Deletions are reported deepest-first.
func (p *Publisher) deleteSubtree(ctx context.Context, page RemotePage) error {
	children, err := p.client.GetChildPages(ctx, page.ID)
	if err != nil {
		return fmt.Errorf("list child pages of %s: %w", page.ID, err)
	}

	for _, child := range children {
		if err := p.deleteSubtree(ctx, child); err != nil {
			return err
		}
	}

	if err := p.client.DeletePage(ctx, page.ID); err != nil {
		return fmt.Errorf("delete page %s: %w", page.ID, err)
	}

	p.logger.InfoContext(ctx, "page deleted", "page_id", page.ID, "title", page.Title)
	p.listener(PageDeleted{Page: page})

	return nil
}

// upsertPage creates or updates one desired page at its level and returns
// the page's remote ID. More than one remote sibling carrying the desired
// title is an invariant violation and aborts the run: the engine must not
// guess which duplicate is authoritative.
func (p *Publisher) upsertPage(
	ctx context.Context, page *Page, parentID string, remoteSiblings []RemotePage,
) (string, error) {
	var match *RemotePage
	for i := range remoteSiblings {
		if remoteSiblings[i].Title != page.Title {
			continue
		}
		if match != nil {
			return "", fmt.Errorf("%w: %q", apperrors.ErrDuplicateRemoteTitle, page.Title)
		}
		match = &remoteSiblings[i]
	}

	if match != nil {
		if err := p.syncPage(ctx, match, page); err != nil {
			return "", err
		}
		return match.ID, nil
	}

	return p.addPage(ctx, page, parentID)
}

// addPage creates a page under parentID, stores its content fingerprint and
// emits a PageAdded event.
func (p *Publisher) addPage(ctx context.Context, page *Page, parentID string) (string, error) {
	content, err := page.content()
	if err != nil {
		return "", err
	}

	pageID, err := p.client.AddPage(ctx, p.spaceKey, parentID, page.Title, content)
	if err != nil {
		return "", fmt.Errorf("add page %q: %w", page.Title, err)
	}

	if err := p.client.SetPropertyByKey(ctx, pageID, contentHashPropertyKey, fingerprint(content)); err != nil {
		return "", fmt.Errorf("set content hash of %s: %w", pageID, err)
	}

	p.logger.InfoContext(ctx, "page added", "page_id", pageID, "title", page.Title, "parent_id", parentID)
	p.listener(PageAdded{Page: RemotePage{
		ID:       pageID,
		ParentID: parentID,
		Title:    page.Title,
		Content:  content,
		Version:  initialPageVersion,
	}})

	return pageID, nil
}
