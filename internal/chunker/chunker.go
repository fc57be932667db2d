// Package chunker splits Synapse-style integration configuration into a
// forest of container, flow and mediator fragments.
package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.Chunker = (*Chunker)(nil)

// Chunker walks a parsed document depth first and emits one fragment per
// classified element.
type Chunker struct {
	tokenBudget    int
	minTokenLength int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithTokenBudget caps the content tokens in each fragment's text.
func WithTokenBudget(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.tokenBudget = n
		}
	}
}

// WithMinTokenLength drops content tokens shorter than n runes.
func WithMinTokenLength(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.minTokenLength = n
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		tokenBudget:    domain.DefaultTokenBudget,
		minTokenLength: domain.DefaultMinTokenLength,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the chunker name.
func (c *Chunker) Name() string {
	return "synapse"
}

// Chunk parses content and returns its fragments in document order.
func (c *Chunker) Chunk(ctx context.Context, path string, content []byte) ([]domain.TransientFragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	roots, err := parse(content)
	if err != nil {
		return []domain.TransientFragment{}, fmt.Errorf("%w: %s: %v", domain.ErrUnparsable, path, err)
	}
	if len(roots) == 0 {
		return []domain.TransientFragment{}, fmt.Errorf("%w: %s: no elements", domain.ErrUnparsable, path)
	}

	w := &walker{
		chunker: c,
		lines:   newLineIndex(content),
		seen:    make(map[domain.Span]bool),
		out:     []domain.TransientFragment{},
	}
	for _, root := range roots {
		w.visit(root, nil, scope{kind: domain.ContainerUnknown})
	}
	return w.out, nil
}

// scope is the nearest emitted container around the walk position.
type scope struct {
	inside bool
	name   string
	kind   domain.ContainerKind
}

// cursor hands out local indices for one Chunk call.
type cursor struct {
	next int
}

func (c *cursor) take() int {
	i := c.next
	c.next++
	return i
}

type walker struct {
	chunker *Chunker
	lines   lineIndex
	cursor  cursor
	seen    map[domain.Span]bool
	out     []domain.TransientFragment
}

func (w *walker) visit(el *element, parent *int, sc scope) {
	level, ok := classify(el.name, sc.inside)
	if !ok {
		w.visitChildren(el, parent, sc)
		return
	}

	span := domain.Span{
		Start: w.lines.line(el.start),
		End:   w.lines.line(el.end - 1),
	}
	// Two elements on the same lines cannot both be keyed by span.
	// The later one is dropped, and a dropped block is walked through.
	if w.seen[span] {
		if level != domain.LevelLeaf {
			w.visitChildren(el, parent, sc)
		}
		return
	}
	w.seen[span] = true

	name := resolveName(el.attrs)
	if level == domain.LevelContainer {
		sc = scope{inside: true, name: name, kind: domain.ParseContainerKind(el.name)}
	}

	idx := w.cursor.take()
	w.out = append(w.out, domain.TransientFragment{
		LocalIndex:       idx,
		ContainerName:    sc.name,
		ContainerKind:    sc.kind,
		Level:            level,
		Kind:             el.name,
		Name:             name,
		Span:             span,
		EmbeddingText:    w.chunker.embeddingText(level, el, name),
		ParentLocalIndex: copyIndex(parent),
	})

	if level == domain.LevelLeaf {
		return
	}
	w.visitChildren(el, &idx, sc)
}

func (w *walker) visitChildren(el *element, parent *int, sc scope) {
	for _, child := range el.children {
		switch n := child.(type) {
		case *element:
			w.visit(n, parent, sc)
		case *text:
			// text only feeds embedding tokens
		}
	}
}

func copyIndex(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// embeddingText joins level, kind, name, attributes and a bounded bag of
// content tokens from the element's subtree.
func (c *Chunker) embeddingText(level domain.FragmentLevel, el *element, name string) string {
	parts := []string{string(level), el.name}
	if name != "" {
		parts = append(parts, name)
	}
	for _, a := range el.attrs {
		parts = append(parts, a.key+"="+a.value)
	}
	parts = append(parts, c.contentTokens(el)...)
	return strings.Join(parts, " ")
}

// contentTokens gathers words from the character data under el. Markup
// and comments never reach the tree, so only text content is seen.
func (c *Chunker) contentTokens(el *element) []string {
	tokens := make([]string, 0, c.tokenBudget)
	c.collect(el, &tokens)
	return tokens
}

func (c *Chunker) collect(el *element, tokens *[]string) {
	for _, child := range el.children {
		if len(*tokens) >= c.tokenBudget {
			return
		}
		switch n := child.(type) {
		case *text:
			for _, tok := range strings.FieldsFunc(n.data, isSeparator) {
				if utf8.RuneCountInString(tok) < c.minTokenLength {
					continue
				}
				*tokens = append(*tokens, tok)
				if len(*tokens) >= c.tokenBudget {
					return
				}
			}
		case *element:
			c.collect(n, tokens)
		}
	}
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
