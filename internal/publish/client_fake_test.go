package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/fclairamb/cfpub/internal/apperrors"
)

// fakeClient is an in-memory content store recording every call it
// receives, in order. It enforces the same invariants as the real store: a
// version mismatch rejects an update and a page with children cannot be
// deleted.
type fakeClient struct {
	pages  map[string]*fakePage
	nextID int
	calls  []string
}

type fakePage struct {
	id          string
	parentID    string
	title       string
	content     string
	version     int
	children    []string
	attachments []*fakeAttachment
	props       map[string]string
}

type fakeAttachment struct {
	id      string
	title   string
	content []byte
}

func newFakeClient() *fakeClient {
	// Generated IDs start at 5000 so they never collide with seeded pages,
	// which use the 1000-2999 range by convention.
	return &fakeClient{
		pages:  make(map[string]*fakePage),
		nextID: 5000,
	}
}

// seedPage creates a remote page directly, bypassing call recording. It is
// used to set up the remote tree a test starts from.
func (f *fakeClient) seedPage(parentID, id, title, content string) *fakePage {
	page := &fakePage{
		id:       id,
		parentID: parentID,
		title:    title,
		content:  content,
		version:  1,
		props:    make(map[string]string),
	}
	f.pages[id] = page
	if parent, ok := f.pages[parentID]; ok {
		parent.children = append(parent.children, id)
	}
	return page
}

// seedAttachment attaches content to a seeded page, bypassing call recording.
func (f *fakeClient) seedAttachment(pageID, attachmentID, filename string, content []byte) {
	page := f.pages[pageID]
	page.attachments = append(page.attachments, &fakeAttachment{
		id:      attachmentID,
		title:   filename,
		content: content,
	})
}

func (f *fakeClient) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// callsWithPrefix returns the recorded calls starting with any of the given
// prefixes, in order.
func (f *fakeClient) callsWithPrefix(prefixes ...string) []string {
	var matched []string
	for _, call := range f.calls {
		for _, prefix := range prefixes {
			if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
				matched = append(matched, call)
				break
			}
		}
	}
	return matched
}

// mutations returns all recorded calls that modify remote state.
func (f *fakeClient) mutations() []string {
	return f.callsWithPrefix(
		"AddPage", "UpdatePage", "DeletePage",
		"AddAttachment", "UpdateAttachmentContent", "DeleteAttachment",
		"SetProperty", "DeleteProperty")
}

func (f *fakeClient) page(id string) (*fakePage, error) {
	page, ok := f.pages[id]
	if !ok {
		return nil, fmt.Errorf("page %s does not exist", id)
	}
	return page, nil
}

func (f *fakeClient) GetChildPages(_ context.Context, pageID string) ([]RemotePage, error) {
	f.record("GetChildPages %s", pageID)
	page, err := f.page(pageID)
	if err != nil {
		return nil, err
	}

	children := make([]RemotePage, 0, len(page.children))
	for _, childID := range page.children {
		child := f.pages[childID]
		children = append(children, RemotePage{
			ID:       child.id,
			ParentID: pageID,
			Title:    child.title,
			Version:  child.version,
		})
	}
	return children, nil
}

func (f *fakeClient) GetPageWithVersion(_ context.Context, pageID string) (*RemotePage, error) {
	f.record("GetPage %s", pageID)
	page, err := f.page(pageID)
	if err != nil {
		return nil, err
	}

	return &RemotePage{
		ID:       page.id,
		ParentID: page.parentID,
		Title:    page.title,
		Content:  page.content,
		Version:  page.version,
	}, nil
}

func (f *fakeClient) AddPage(_ context.Context, _, ancestorID, title, content string) (string, error) {
	f.record("AddPage %s", title)
	parent, err := f.page(ancestorID)
	if err != nil {
		return "", err
	}

	f.nextID++
	id := strconv.Itoa(f.nextID)
	f.pages[id] = &fakePage{
		id:       id,
		parentID: ancestorID,
		title:    title,
		content:  content,
		version:  1,
		props:    make(map[string]string),
	}
	parent.children = append(parent.children, id)

	return id, nil
}

func (f *fakeClient) UpdatePage(_ context.Context, pageID, _, title, content string, version int) error {
	f.record("UpdatePage %s", pageID)
	page, err := f.page(pageID)
	if err != nil {
		return err
	}
	if version != page.version+1 {
		return fmt.Errorf("version conflict on %s: got %d, current %d", pageID, version, page.version)
	}

	page.title = title
	page.content = content
	page.version = version

	return nil
}

func (f *fakeClient) DeletePage(_ context.Context, pageID string) error {
	f.record("DeletePage %s", pageID)
	page, err := f.page(pageID)
	if err != nil {
		return err
	}
	if len(page.children) > 0 {
		return fmt.Errorf("page %s still has children", pageID)
	}

	if parent, ok := f.pages[page.parentID]; ok {
		for i, childID := range parent.children {
			if childID == pageID {
				parent.children = append(parent.children[:i], parent.children[i+1:]...)
				break
			}
		}
	}
	delete(f.pages, pageID)

	return nil
}

func (f *fakeClient) GetAttachments(_ context.Context, pageID string) ([]RemoteAttachment, error) {
	f.record("GetAttachments %s", pageID)
	page, err := f.page(pageID)
	if err != nil {
		return nil, err
	}

	attachments := make([]RemoteAttachment, 0, len(page.attachments))
	for _, attachment := range page.attachments {
		attachments = append(attachments, RemoteAttachment{
			ID:           attachment.id,
			Title:        attachment.title,
			DownloadLink: "/download/" + pageID + "/" + attachment.id,
		})
	}
	return attachments, nil
}

func (f *fakeClient) GetAttachmentByFilename(_ context.Context, pageID, filename string) (*RemoteAttachment, error) {
	f.record("GetAttachmentByFilename %s %s", pageID, filename)
	page, err := f.page(pageID)
	if err != nil {
		return nil, err
	}

	for _, attachment := range page.attachments {
		if attachment.title == filename {
			return &RemoteAttachment{
				ID:           attachment.id,
				Title:        attachment.title,
				DownloadLink: "/download/" + pageID + "/" + attachment.id,
			}, nil
		}
	}
	return nil, fmt.Errorf("attachment %q of %s: %w", filename, pageID, apperrors.ErrNotFound)
}

func (f *fakeClient) GetAttachmentContent(_ context.Context, downloadLink string) (io.ReadCloser, error) {
	f.record("GetAttachmentContent %s", downloadLink)
	for pageID, page := range f.pages {
		for _, attachment := range page.attachments {
			if downloadLink == "/download/"+pageID+"/"+attachment.id {
				return io.NopCloser(bytes.NewReader(attachment.content)), nil
			}
		}
	}
	return nil, fmt.Errorf("no attachment at %s", downloadLink)
}

func (f *fakeClient) AddAttachment(_ context.Context, pageID, filename string, content io.Reader) error {
	f.record("AddAttachment %s %s", pageID, filename)
	page, err := f.page(pageID)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}

	f.nextID++
	page.attachments = append(page.attachments, &fakeAttachment{
		id:      "att" + strconv.Itoa(f.nextID),
		title:   filename,
		content: data,
	})

	return nil
}

func (f *fakeClient) UpdateAttachmentContent(_ context.Context, pageID, attachmentID, filename string, content io.Reader) error {
	f.record("UpdateAttachmentContent %s %s", pageID, attachmentID)
	page, err := f.page(pageID)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}

	for _, attachment := range page.attachments {
		if attachment.id == attachmentID {
			attachment.content = data
			// The store adopts the uploaded filename as the new title
			attachment.title = filename
			return nil
		}
	}
	return fmt.Errorf("attachment %s does not exist on %s", attachmentID, pageID)
}

func (f *fakeClient) DeleteAttachment(_ context.Context, attachmentID string) error {
	f.record("DeleteAttachment %s", attachmentID)
	for _, page := range f.pages {
		for i, attachment := range page.attachments {
			if attachment.id == attachmentID {
				page.attachments = append(page.attachments[:i], page.attachments[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("attachment %s does not exist", attachmentID)
}

func (f *fakeClient) GetPropertyByKey(_ context.Context, pageID, key string) (string, error) {
	f.record("GetProperty %s %s", pageID, key)
	page, err := f.page(pageID)
	if err != nil {
		return "", err
	}
	return page.props[key], nil
}

func (f *fakeClient) SetPropertyByKey(_ context.Context, pageID, key, value string) error {
	f.record("SetProperty %s %s", pageID, key)
	page, err := f.page(pageID)
	if err != nil {
		return err
	}
	page.props[key] = value
	return nil
}

func (f *fakeClient) DeletePropertyByKey(_ context.Context, pageID, key string) error {
	f.record("DeleteProperty %s %s", pageID, key)
	page, err := f.page(pageID)
	if err != nil {
		return err
	}
	delete(page.props, key)
	return nil
}

// writeContentFile writes rendered page content into the test directory and
// returns its path.
func writeContentFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write content file: %v", err)
	}
	return path
}

// recordEvents returns a listener appending every event to the given slice.
func recordEvents(events *[]Event) Listener {
	return func(event Event) {
		*events = append(*events, event)
	}
}
