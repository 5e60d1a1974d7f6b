// Package publish implements the reconciliation engine that converges a
// remote Confluence page tree onto a locally described desired tree.
package publish

import (
	"fmt"
	"os"
)

// Page describes one desired page in the tree to publish. The tree is built
// once before publishing starts and is never mutated during a run.
type Page struct {
	// Title identifies the page among its siblings.
	Title string
	// ContentFile is the path to the already-rendered storage-format content.
	ContentFile string
	// Attachments maps attachment filenames to local source paths.
	Attachments map[string]string
	// Children are the pages published under this page.
	Children []*Page
}

// content reads the rendered content of the page from disk. Content is read
// lazily per operation so a publish run never holds the whole tree in memory.
func (p *Page) content() (string, error) {
	data, err := os.ReadFile(p.ContentFile)
	if err != nil {
		return "", fmt.Errorf("read page content %q: %w", p.ContentFile, err)
	}
	return string(data), nil
}

// RemotePage is a transient snapshot of a page as currently held by the
// content store. Version is owned by the store and starts at 1.
type RemotePage struct {
	ID       string
	ParentID string
	Title    string
	Content  string
	Version  int
}

// RemoteAttachment is a transient snapshot of an attachment of a remote page.
// Its identity within a page is its Title (the filename).
type RemoteAttachment struct {
	ID           string
	Title        string
	DownloadLink string
}
