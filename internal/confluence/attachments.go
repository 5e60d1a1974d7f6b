package confluence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/fclairamb/cfpub/internal/apperrors"
	"github.com/fclairamb/cfpub/internal/publish"
)

// GetAttachments lists the attachments of a page, following pagination
// until the listing is exhausted.
func (c *Client) GetAttachments(ctx context.Context, pageID string) ([]publish.RemoteAttachment, error) {
	var attachments []publish.RemoteAttachment

	start := 0
	for {
		path := "/content/" + pageID + "/child/attachment" +
			"?limit=" + strconv.Itoa(defaultPageSize) +
			"&start=" + strconv.Itoa(start)

		var list contentList
		if err := c.do(ctx, "GET", path, nil, &list); err != nil {
			return nil, fmt.Errorf("get attachments of %s: %w", pageID, err)
		}

		for _, result := range list.Results {
			attachments = append(attachments, publish.RemoteAttachment{
				ID:           result.ID,
				Title:        result.Title,
				DownloadLink: result.Links["download"],
			})
		}

		if len(list.Results) < defaultPageSize {
			return attachments, nil
		}
		start += defaultPageSize
	}
}

// GetAttachmentByFilename looks up one attachment of a page by filename.
// Returns apperrors.ErrNotFound when the page has no such attachment.
func (c *Client) GetAttachmentByFilename(
	ctx context.Context, pageID, filename string,
) (*publish.RemoteAttachment, error) {
	path := "/content/" + pageID + "/child/attachment?filename=" + escapeQuery(filename)

	var list contentList
	if err := c.do(ctx, "GET", path, nil, &list); err != nil {
		return nil, fmt.Errorf("get attachment %q of %s: %w", filename, pageID, err)
	}

	switch len(list.Results) {
	case 0:
		return nil, fmt.Errorf("attachment %q of %s: %w", filename, pageID, apperrors.ErrNotFound)
	case 1:
		result := list.Results[0]
		return &publish.RemoteAttachment{
			ID:           result.ID,
			Title:        result.Title,
			DownloadLink: result.Links["download"],
		}, nil
	default:
		return nil, fmt.Errorf("attachment %q of %s: %w", filename, pageID, apperrors.ErrMultipleResults)
	}
}

// GetAttachmentContent streams the bytes of an attachment. downloadLink is
// the site-relative download path reported with the attachment.
func (c *Client) GetAttachmentContent(ctx context.Context, downloadLink string) (io.ReadCloser, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+downloadLink, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download attachment: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("attachment content %s: %w", downloadLink, apperrors.ErrNotFound)
	}
	if resp.StatusCode >= httpStatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, apperrors.NewHTTPError(resp.StatusCode, string(body))
	}

	return resp.Body, nil
}

// AddAttachment uploads a new attachment to a page.
func (c *Client) AddAttachment(ctx context.Context, pageID, filename string, content io.Reader) error {
	path := apiPath + "/content/" + pageID + "/child/attachment"
	if err := c.upload(ctx, path, filename, content); err != nil {
		return fmt.Errorf("add attachment %q to %s: %w", filename, pageID, err)
	}

	return nil
}

// UpdateAttachmentContent uploads a new version of an existing attachment.
// The multipart part must carry the attachment's real filename: the store
// adopts the uploaded name as the attachment's new title.
func (c *Client) UpdateAttachmentContent(ctx context.Context, pageID, attachmentID, filename string, content io.Reader) error {
	path := apiPath + "/content/" + pageID + "/child/attachment/" + attachmentID + "/data"
	if err := c.upload(ctx, path, filename, content); err != nil {
		return fmt.Errorf("update attachment %s on %s: %w", attachmentID, pageID, err)
	}

	return nil
}

// DeleteAttachment deletes an attachment.
func (c *Client) DeleteAttachment(ctx context.Context, attachmentID string) error {
	if err := c.do(ctx, "DELETE", "/content/"+attachmentID, nil, nil); err != nil {
		return fmt.Errorf("delete attachment %s: %w", attachmentID, err)
	}

	return nil
}

// upload posts a multipart form with a single file part. The content stream
// is buffered so the request can be replayed on a rate-limit retry.
func (c *Client) upload(ctx context.Context, path, filename string, content io.Reader) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("copy attachment content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	formData := buf.Bytes()
	contentType := writer.FormDataContentType()

	_, _, err = c.send(ctx, "POST", path, func() (io.Reader, string) {
		return bytes.NewReader(formData), contentType
	})

	return err
}
