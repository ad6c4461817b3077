package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// FAQEntry is one static answer, matched by any of its keywords.
type FAQEntry struct {
	ID       string              `json:"id" yaml:"id"`
	Keywords []string            `json:"keywords" yaml:"keywords"`
	Answers  map[Language]string `json:"answers" yaml:"answers"`
}

// Answer returns the answer in lang, falling back to the fallback language
// and then to any answer in supported-language order.
func (e FAQEntry) Answer(lang, fallback Language) string {
	if a := strings.TrimSpace(e.Answers[lang]); a != "" {
		return a
	}
	if a := strings.TrimSpace(e.Answers[fallback]); a != "" {
		return a
	}
	for _, l := range SupportedLanguages {
		if a := strings.TrimSpace(e.Answers[l]); a != "" {
			return a
		}
	}
	return ""
}

// FAQIndex is an immutable ordered FAQ table. The first entry with a keyword
// present as whole words in the message wins.
type FAQIndex struct {
	entries  []FAQEntry
	patterns [][]keywordPattern
}

// NewFAQIndex validates and compiles entries, preserving their order.
func NewFAQIndex(entries []FAQEntry) (*FAQIndex, error) {
	idx := &FAQIndex{
		entries:  make([]FAQEntry, 0, len(entries)),
		patterns: make([][]keywordPattern, 0, len(entries)),
	}
	var errs []error
	for i, entry := range entries {
		if entry.ID == "" {
			entry.ID = fmt.Sprintf("faq-%d", i+1)
		}
		var compiled []keywordPattern
		for _, kw := range entry.Keywords {
			if p, ok := compileKeyword(kw); ok {
				compiled = append(compiled, p)
			}
		}
		if len(compiled) == 0 {
			errs = append(errs, fmt.Errorf("faq %s: no usable keywords", entry.ID))
			continue
		}
		if entry.Answer(LanguageUzbek, LanguageUzbek) == "" {
			errs = append(errs, fmt.Errorf("faq %s: no answers", entry.ID))
			continue
		}
		idx.entries = append(idx.entries, entry)
		idx.patterns = append(idx.patterns, compiled)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return idx, nil
}

// Match returns the first entry matching the message tokens.
func (i *FAQIndex) Match(tokens []string) (FAQEntry, bool) {
	if i == nil {
		return FAQEntry{}, false
	}
	for n, patterns := range i.patterns {
		for _, p := range patterns {
			if p.matches(tokens) {
				return i.entries[n], true
			}
		}
	}
	return FAQEntry{}, false
}

// Entries returns a copy of the indexed entries in match order.
func (i *FAQIndex) Entries() []FAQEntry {
	if i == nil {
		return nil
	}
	out := make([]FAQEntry, len(i.entries))
	copy(out, i.entries)
	return out
}

// Len returns the number of entries.
func (i *FAQIndex) Len() int {
	if i == nil {
		return 0
	}
	return len(i.entries)
}

// FAQSource loads FAQ entries from a file, object store or database.
type FAQSource interface {
	LoadFAQ(ctx context.Context) ([]FAQEntry, error)
}

// FAQStore serves the current index and swaps in a new one on reload, so
// requests never observe a partially loaded table.
type FAQStore struct {
	source  FAQSource
	current atomic.Pointer[FAQIndex]
	mu      sync.Mutex
}

// NewFAQStore creates a store and performs the initial load.
func NewFAQStore(ctx context.Context, source FAQSource) (*FAQStore, error) {
	s := &FAQStore{source: source}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStaticFAQStore serves a fixed index with no reload source.
func NewStaticFAQStore(index *FAQIndex) *FAQStore {
	s := &FAQStore{}
	s.current.Store(index)
	return s
}

// Reload fetches entries from the source and swaps the index.
func (s *FAQStore) Reload(ctx context.Context) error {
	if s.source == nil {
		return errors.New("conversation: faq store has no source")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.source.LoadFAQ(ctx)
	if err != nil {
		return fmt.Errorf("conversation: load faq: %w", err)
	}
	index, err := NewFAQIndex(entries)
	if err != nil {
		return fmt.Errorf("conversation: build faq index: %w", err)
	}
	s.current.Store(index)
	return nil
}

// Index returns the current index.
func (s *FAQStore) Index() *FAQIndex {
	if s == nil {
		return nil
	}
	return s.current.Load()
}
