package confluence

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fclairamb/cfpub/internal/publish"
)

const (
	// defaultPageSize is the number of results requested per listing page.
	defaultPageSize = 100

	contentTypePage = "page"
)

// GetChildPages lists the direct child pages of a page, including their
// versions, following pagination until the listing is exhausted.
func (c *Client) GetChildPages(ctx context.Context, pageID string) ([]publish.RemotePage, error) {
	var pages []publish.RemotePage

	start := 0
	for {
		path := "/content/" + pageID + "/child/page?expand=version" +
			"&limit=" + strconv.Itoa(defaultPageSize) +
			"&start=" + strconv.Itoa(start)

		var list contentList
		if err := c.do(ctx, "GET", path, nil, &list); err != nil {
			return nil, fmt.Errorf("get child pages of %s: %w", pageID, err)
		}

		for _, result := range list.Results {
			page := publish.RemotePage{
				ID:       result.ID,
				ParentID: pageID,
				Title:    result.Title,
			}
			if result.Version != nil {
				page.Version = result.Version.Number
			}
			pages = append(pages, page)
		}

		if len(list.Results) < defaultPageSize {
			return pages, nil
		}
		start += defaultPageSize
	}
}

// GetPageWithVersion fetches a single page with its storage-format content
// and current version.
func (c *Client) GetPageWithVersion(ctx context.Context, pageID string) (*publish.RemotePage, error) {
	path := "/content/" + pageID + "?expand=body.storage,version,ancestors"

	var result content
	if err := c.do(ctx, "GET", path, nil, &result); err != nil {
		return nil, fmt.Errorf("get page %s: %w", pageID, err)
	}

	page := &publish.RemotePage{
		ID:    result.ID,
		Title: result.Title,
	}
	if result.Body != nil {
		page.Content = result.Body.Storage.Value
	}
	if result.Version != nil {
		page.Version = result.Version.Number
	}
	if len(result.Ancestors) > 0 {
		// Ancestors are ordered root first; the direct parent is last.
		page.ParentID = result.Ancestors[len(result.Ancestors)-1].ID
	}

	return page, nil
}

// AddPage creates a page under an ancestor and returns the new page ID.
func (c *Client) AddPage(ctx context.Context, spaceKey, ancestorID, title, content string) (string, error) {
	request := newPageRequest("", spaceKey, ancestorID, title, content, 0)

	var result struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "POST", "/content", request, &result); err != nil {
		return "", fmt.Errorf("add page %q: %w", title, err)
	}

	return result.ID, nil
}

// UpdatePage updates the title and content of a page. The store rejects the
// call unless version is the current remote version plus one.
func (c *Client) UpdatePage(ctx context.Context, pageID, ancestorID, title, content string, version int) error {
	request := newPageRequest(pageID, "", ancestorID, title, content, version)

	if err := c.do(ctx, "PUT", "/content/"+pageID, request, nil); err != nil {
		return fmt.Errorf("update page %s: %w", pageID, err)
	}

	return nil
}

// DeletePage deletes a page. The page must have no remaining children.
func (c *Client) DeletePage(ctx context.Context, pageID string) error {
	if err := c.do(ctx, "DELETE", "/content/"+pageID, nil, nil); err != nil {
		return fmt.Errorf("delete page %s: %w", pageID, err)
	}

	return nil
}

// newPageRequest builds the content payload shared by page create and
// update calls.
func newPageRequest(pageID, spaceKey, ancestorID, title, pageContent string, version int) *content {
	request := &content{
		ID:    pageID,
		Type:  contentTypePage,
		Title: title,
		Body: &contentBody{
			Storage: storageBody{
				Value:          pageContent,
				Representation: "storage",
			},
		},
	}
	if spaceKey != "" {
		request.Space = &contentSpace{Key: spaceKey}
	}
	if ancestorID != "" {
		request.Ancestors = []contentAncestor{{ID: ancestorID}}
	}
	if version > 0 {
		request.Version = &contentVersion{Number: version}
	}

	return request
}

// escapeQuery escapes a value for use in a query string.
func escapeQuery(value string) string {
	return url.QueryEscape(value)
}
