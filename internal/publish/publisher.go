package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fclairamb/cfpub/internal/apperrors"
)

// Strategy selects how the desired tree is anchored to the remote ancestor.
type Strategy string

const (
	// StrategyAppendToAncestor publishes the desired forest under the
	// ancestor page. The ancestor itself is never touched.
	StrategyAppendToAncestor Strategy = "append-to-ancestor"
	// StrategyReplaceAncestor repurposes the ancestor page as the single
	// root of the desired tree. The ancestor is updated in place, never
	// deleted; the manifest must define exactly one root page.
	StrategyReplaceAncestor Strategy = "replace-ancestor"
)

// ParseStrategy resolves a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategyAppendToAncestor:
		return StrategyAppendToAncestor, nil
	case StrategyReplaceAncestor:
		return StrategyReplaceAncestor, nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownStrategy, name)
	}
}

// Publisher drives one publish run: it validates the configuration, applies
// the selected strategy and walks the desired tree depth-first, issuing the
// minimal set of create/update/delete calls to converge the remote tree.
type Publisher struct {
	client   Client
	listener Listener
	logger   *slog.Logger

	spaceKey   string
	ancestorID string
	strategy   Strategy
	pages      []*Page
}

// Option configures the publisher.
type Option func(*Publisher)

// WithListener sets the event listener. The default discards all events.
func WithListener(l Listener) Option {
	return func(p *Publisher) {
		p.listener = l
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = l
	}
}

// NewPublisher creates a publisher for one desired tree.
func NewPublisher(
	client Client, spaceKey, ancestorID string, strategy Strategy, pages []*Page, opts ...Option,
) *Publisher {
	p := &Publisher{
		client:     client,
		listener:   NoopListener,
		logger:     slog.Default(),
		spaceKey:   spaceKey,
		ancestorID: ancestorID,
		strategy:   strategy,
		pages:      pages,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Publish runs the reconciliation. Configuration errors are raised before
// any remote call; any remote failure aborts the run. Re-running after a
// failure converges correctly since the engine is idempotent.
func (p *Publisher) Publish(ctx context.Context) error {
	if p.spaceKey == "" {
		return apperrors.ErrSpaceKeyRequired
	}
	if p.ancestorID == "" {
		return apperrors.ErrAncestorIDRequired
	}

	p.logger.InfoContext(ctx, "publishing",
		"space_key", p.spaceKey,
		"ancestor_id", p.ancestorID,
		"strategy", string(p.strategy),
		"root_pages", len(p.pages))

	switch p.strategy {
	case StrategyAppendToAncestor:
		if err := p.reconcileLevel(ctx, p.pages, p.ancestorID); err != nil {
			return err
		}
	case StrategyReplaceAncestor:
		if err := p.replaceAncestor(ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", apperrors.ErrUnknownStrategy, string(p.strategy))
	}

	p.listener(Completed{})
	p.logger.InfoContext(ctx, "publish completed")

	return nil
}

// replaceAncestor publishes the single root's children under the ancestor,
// then updates the ancestor in place to adopt the root's title, content and
// attachments.
func (p *Publisher) replaceAncestor(ctx context.Context) error {
	if len(p.pages) > 1 {
		titles := make([]string, 0, len(p.pages))
		for _, page := range p.pages {
			titles = append(titles, "'"+page.Title+"'")
		}
		return fmt.Errorf("%w: %s", apperrors.ErrMultipleRootPages, strings.Join(titles, ", "))
	}

	if len(p.pages) == 0 {
		return nil
	}

	root := p.pages[0]

	if err := p.reconcileLevel(ctx, root.Children, p.ancestorID); err != nil {
		return err
	}

	ancestor, err := p.client.GetPageWithVersion(ctx, p.ancestorID)
	if err != nil {
		return fmt.Errorf("get ancestor page: %w", err)
	}

	if err := p.syncPage(ctx, ancestor, root); err != nil {
		return err
	}

	return p.syncAttachments(ctx, p.ancestorID, root.Attachments)
}
