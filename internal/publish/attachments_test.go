package publish

import (
	"context"
	"testing"
)

// TestSyncAttachments_AddsNewAttachment verifies that a desired attachment
// unknown to the page is uploaded as a new attachment.
func TestSyncAttachments_AddsNewAttachment(t *testing.T) {
	t.Parallel()
	fc := newFakeClient()
	page := seedMatchedPage(t, fc, "c1", "c1")
	page.Attachments = map[string]string{
		"diagram.png": writeContentFile(t, t.TempDir(), "diagram.png", "png-bytes"),
	}

	p := newTestPublisher(fc, []*Page{page})
	if err := p.Publish(context.Background()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	adds := fc.callsWithPrefix("AddAttachment")
	if len(adds) != 1 || adds[0] != "AddAttachment 2001 diagram.png" {
		t.Fatalf("expected one AddAttachment call, got %v", adds)
	}

	attachments := fc.pages["2001"].attachments
	if len(attachments) != 1 || attachments[0].title != "diagram.png" {
		t.Fatalf("expected one remote attachment, got %v", attachments)
	}
	if string(attachments[0].content) != "png-bytes" {
		t.Errorf("expected uploaded bytes %q, got %q", "png-bytes", attachments[0].content)
	}
}

// TestSyncAttachments_DeletesStaleAttachment verifies that a remote
// attachment whose filename is not desired is deleted.
func TestSyncAttachments_DeletesStaleAttachment(t *testing.T) {
	t.Parallel()
	fc := newFakeClient()
	page := seedMatchedPage(t, fc, "c1", "c1")
	fc.seedAttachment("2001", "att1", "stale.png", []byte("old"))

	p := newTestPublisher(fc, []*Page{page})
	if err := p.Publish(context.Background()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	deletes := fc.callsWithPrefix("DeleteAttachment")
	if len(deletes) != 1 || deletes[0] != "DeleteAttachment att1" {
		t.Fatalf("expected one DeleteAttachment call, got %v", deletes)
	}
	if len(fc.pages["2001"].attachments) != 0 {
		t.Errorf("expected no remote attachments left, got %v", fc.pages["2001"].attachments)
	}
}

// TestSyncAttachments_ByteChangeUploadsNewVersion verifies that changing
// only an attachment's bytes triggers exactly one attachment content update
// and zero page updates.
func TestSyncAttachments_ByteChangeUploadsNewVersion(t *testing.T) {
	t.Parallel()
	fc := newFakeClient()
	page := seedMatchedPage(t, fc, "c1", "c1")
	fc.seedAttachment("2001", "att1", "diagram.png", []byte("old-bytes"))
	page.Attachments = map[string]string{
		"diagram.png": writeContentFile(t, t.TempDir(), "diagram.png", "new-bytes"),
	}

	p := newTestPublisher(fc, []*Page{page})
	if err := p.Publish(context.Background()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	updates := fc.callsWithPrefix("UpdateAttachmentContent")
	if len(updates) != 1 || updates[0] != "UpdateAttachmentContent 2001 att1" {
		t.Fatalf("expected one UpdateAttachmentContent call, got %v", updates)
	}
	if pageUpdates := fc.callsWithPrefix("UpdatePage"); len(pageUpdates) != 0 {
		t.Errorf("expected no page updates, got %v", pageUpdates)
	}
	if got := string(fc.pages["2001"].attachments[0].content); got != "new-bytes" {
		t.Errorf("expected remote bytes replaced, got %q", got)
	}
}

// TestSyncAttachments_UpdateKeepsFilenameIdentity verifies that uploading a
// new attachment version preserves the filename identity. The store adopts
// the uploaded part's name as the attachment's title, so the update must
// carry the real filename and a follow-up run must still find the attachment
// by filename instead of duplicating it.
func TestSyncAttachments_UpdateKeepsFilenameIdentity(t *testing.T) {
	t.Parallel()
	fc := newFakeClient()
	page := seedMatchedPage(t, fc, "c1", "c1")
	fc.seedAttachment("2001", "att1", "diagram.png", []byte("old-bytes"))
	page.Attachments = map[string]string{
		"diagram.png": writeContentFile(t, t.TempDir(), "diagram.png", "new-bytes"),
	}

	p := newTestPublisher(fc, []*Page{page})
	if err := p.Publish(context.Background()); err != nil {
		t.Fatalf("first Publish failed: %v", err)
	}

	attachments := fc.pages["2001"].attachments
	if len(attachments) != 1 || attachments[0].title != "diagram.png" {
		t.Fatalf("expected diagram.png to keep its filename, got %v", attachments)
	}

	fc.calls = nil
	if err := p.Publish(context.Background()); err != nil {
		t.Fatalf("second Publish failed: %v", err)
	}
	if mutations := fc.mutations(); len(mutations) != 0 {
		t.Errorf("expected no mutations on second run, got %v", mutations)
	}
	if got := len(fc.pages["2001"].attachments); got != 1 {
		t.Errorf("expected a single attachment after second run, got %d", got)
	}
}

// TestSyncAttachments_IdenticalBytesAreSkipped verifies that matching full
// byte digests produce no upload at all.
func TestSyncAttachments_IdenticalBytesAreSkipped(t *testing.T) {
	t.Parallel()
	fc := newFakeClient()
	page := seedMatchedPage(t, fc, "c1", "c1")
	fc.seedAttachment("2001", "att1", "diagram.png", []byte("same-bytes"))
	page.Attachments = map[string]string{
		"diagram.png": writeContentFile(t, t.TempDir(), "diagram.png", "same-bytes"),
	}

	p := newTestPublisher(fc, []*Page{page})
	if err := p.Publish(context.Background()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if mutations := fc.mutations(); len(mutations) != 0 {
		t.Errorf("expected no mutations for identical attachment, got %v", mutations)
	}

	// The comparison must digest the remote stream, not trust metadata
	downloads := fc.callsWithPrefix("GetAttachmentContent")
	if len(downloads) != 1 {
		t.Errorf("expected the remote content to be downloaded once, got %v", downloads)
	}
}

// TestSyncAttachments_StableUploadOrder verifies that desired attachments
// are processed in filename order so call sequences are reproducible.
func TestSyncAttachments_StableUploadOrder(t *testing.T) {
	t.Parallel()
	fc := newFakeClient()
	page := seedMatchedPage(t, fc, "c1", "c1")
	dir := t.TempDir()
	page.Attachments = map[string]string{
		"z.png": writeContentFile(t, dir, "z.png", "z"),
		"a.png": writeContentFile(t, dir, "a.png", "a"),
		"m.png": writeContentFile(t, dir, "m.png", "m"),
	}

	p := newTestPublisher(fc, []*Page{page})
	if err := p.Publish(context.Background()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	adds := fc.callsWithPrefix("AddAttachment")
	expected := []string{
		"AddAttachment 2001 a.png",
		"AddAttachment 2001 m.png",
		"AddAttachment 2001 z.png",
	}
	if len(adds) != len(expected) {
		t.Fatalf("expected %d uploads, got %v", len(expected), adds)
	}
	for i, want := range expected {
		if adds[i] != want {
			t.Errorf("upload %d: expected %q, got %q", i, want, adds[i])
		}
	}
}
