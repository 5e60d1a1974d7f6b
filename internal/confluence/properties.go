package confluence

import (
	"context"
	"errors"
	"fmt"

	"github.com/fclairamb/cfpub/internal/apperrors"
)

// GetPropertyByKey reads an opaque content property of a page. An absent
// property is reported as an empty string, not as an error.
func (c *Client) GetPropertyByKey(ctx context.Context, pageID, key string) (string, error) {
	var property contentProperty
	err := c.do(ctx, "GET", "/content/"+pageID+"/property/"+key, nil, &property)
	if errors.Is(err, apperrors.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get property %q of %s: %w", key, pageID, err)
	}

	return property.Value, nil
}

// SetPropertyByKey writes an opaque content property of a page.
func (c *Client) SetPropertyByKey(ctx context.Context, pageID, key, value string) error {
	property := contentProperty{Key: key, Value: value}
	if err := c.do(ctx, "POST", "/content/"+pageID+"/property", property, nil); err != nil {
		return fmt.Errorf("set property %q of %s: %w", key, pageID, err)
	}

	return nil
}

// DeletePropertyByKey removes a content property of a page. Removing an
// absent property is not an error.
func (c *Client) DeletePropertyByKey(ctx context.Context, pageID, key string) error {
	err := c.do(ctx, "DELETE", "/content/"+pageID+"/property/"+key, nil, nil)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete property %q of %s: %w", key, pageID, err)
	}

	return nil
}
