// Package metadata loads and validates the publish manifest describing the
// desired page tree.
package metadata

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/fclairamb/cfpub/internal/apperrors"
	"github.com/fclairamb/cfpub/internal/publish"
)

// Manifest is the top-level publish description. Space key, ancestor ID and
// strategy may be overridden by CLI flags.
type Manifest struct {
	SpaceKey   string      `yaml:"spaceKey"`
	AncestorID string      `yaml:"ancestorId"`
	Strategy   string      `yaml:"strategy"`
	Pages      []PageEntry `yaml:"pages"`
}

// PageEntry describes one page in the manifest. Attachment entries are local
// source paths; the attachment filename is derived from the path's last
// segment.
type PageEntry struct {
	Title       string      `yaml:"title"`
	ContentFile string      `yaml:"contentFile"`
	Attachments []string    `yaml:"attachments"`
	Children    []PageEntry `yaml:"children"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %q: %w", path, err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest %q: %w", path, err)
	}

	if err := validatePages(manifest.Pages); err != nil {
		return nil, fmt.Errorf("manifest %q: %w", path, err)
	}

	return &manifest, nil
}

// validatePages checks every level of the manifest tree for empty fields and
// duplicate sibling titles. Duplicates are rejected locally because the
// remote tree relies on sibling titles as the sole page identity.
func validatePages(pages []PageEntry) error {
	titles := make(map[string]bool, len(pages))

	for i := range pages {
		page := &pages[i]
		if page.Title == "" {
			return apperrors.ErrPageTitleEmpty
		}
		if page.ContentFile == "" {
			return fmt.Errorf("page %q: %w", page.Title, apperrors.ErrContentFileEmpty)
		}
		if titles[page.Title] {
			return fmt.Errorf("%w: %q", apperrors.ErrDuplicateManifestTitle, page.Title)
		}
		titles[page.Title] = true

		if err := validatePages(page.Children); err != nil {
			return err
		}
	}

	return nil
}

// PageTree converts the manifest into the desired page tree consumed by the
// publisher. Relative content and attachment paths are resolved against
// baseDir, typically the manifest's directory.
func (m *Manifest) PageTree(baseDir string) []*publish.Page {
	return buildPages(m.Pages, baseDir)
}

// buildPages converts one manifest level into desired pages.
func buildPages(entries []PageEntry, baseDir string) []*publish.Page {
	if len(entries) == 0 {
		return nil
	}

	pages := make([]*publish.Page, 0, len(entries))
	for i := range entries {
		entry := &entries[i]

		attachments := make(map[string]string, len(entry.Attachments))
		for _, sourcePath := range entry.Attachments {
			// Colliding derived filenames are a configuration hazard the
			// engine does not disambiguate: the last one wins.
			attachments[DeriveAttachmentName(sourcePath)] = resolvePath(baseDir, sourcePath)
		}

		pages = append(pages, &publish.Page{
			Title:       entry.Title,
			ContentFile: resolvePath(baseDir, entry.ContentFile),
			Attachments: attachments,
			Children:    buildPages(entry.Children, baseDir),
		})
	}

	return pages
}

// DeriveAttachmentName derives the attachment filename from its source
// path: the last path segment.
func DeriveAttachmentName(sourcePath string) string {
	return path.Base(filepath.ToSlash(sourcePath))
}

// resolvePath resolves a manifest path against baseDir, leaving absolute
// paths untouched.
func resolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
