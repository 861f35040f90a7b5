// Package catalog holds the fixed set of affirmations shown and spoken by the application.
package catalog

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"
)

type LanguageCode string

const (
	LanguageEnglish LanguageCode = "en-US"
	LanguageArabic  LanguageCode = "ar-SA"
	LanguageFrench  LanguageCode = "fr-FR"
)

// SupportedLanguages lists every language the catalog must carry messages for.
var SupportedLanguages = []LanguageCode{LanguageEnglish, LanguageArabic, LanguageFrench}

func (l LanguageCode) String() string {
	return string(l)
}

// Supported reports whether l is one of SupportedLanguages.
func (l LanguageCode) Supported() bool {
	return slices.Contains(SupportedLanguages, l)
}

var (
	ErrNoMessages          = errors.New("no messages for language")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// Message is a single affirmation.
type Message struct {
	ID       string       `toml:"id"`
	Text     string       `toml:"text"`
	Language LanguageCode `toml:"language"`
}

type Catalog struct {
	messages   []Message
	byID       map[string]Message
	byLanguage map[LanguageCode][]Message
	intN       func(n int) int
}

type Option func(c *Catalog)

// WithIntN replaces the uniform random source used by SelectRandom.
// intN must return a value in [0, n).
func WithIntN(intN func(n int) int) Option {
	return func(c *Catalog) {
		c.intN = intN
	}
}

// New validates messages and builds a catalog from them.
// Every language in SupportedLanguages must have at least one message.
func New(messages []Message, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		messages:   make([]Message, 0, len(messages)),
		byID:       make(map[string]Message, len(messages)),
		byLanguage: make(map[LanguageCode][]Message, len(SupportedLanguages)),
		intN:       rand.IntN,
	}
	for _, opt := range opts {
		opt(c)
	}

	for i, m := range messages {
		if m.ID == "" {
			return nil, fmt.Errorf("message #%d has an empty id", i)
		}
		if m.Text == "" {
			return nil, fmt.Errorf("message %s has an empty text", m.ID)
		}
		if !m.Language.Supported() {
			return nil, fmt.Errorf("message %s: %w: %q", m.ID, ErrUnsupportedLanguage, m.Language)
		}
		if _, ok := c.byID[m.ID]; ok {
			return nil, fmt.Errorf("duplicate message id %s", m.ID)
		}
		c.byID[m.ID] = m
		c.messages = append(c.messages, m)
		c.byLanguage[m.Language] = append(c.byLanguage[m.Language], m)
	}

	for _, language := range SupportedLanguages {
		if len(c.byLanguage[language]) == 0 {
			return nil, fmt.Errorf("%w %s", ErrNoMessages, language)
		}
	}

	return c, nil
}

// SelectRandom returns a uniformly chosen message written in language.
func (c *Catalog) SelectRandom(language LanguageCode) (Message, error) {
	candidates := c.byLanguage[language]
	if len(candidates) == 0 {
		return Message{}, fmt.Errorf("%w %s", ErrNoMessages, language)
	}
	return candidates[c.intN(len(candidates))], nil
}

func (c *Catalog) Get(id string) (Message, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// Messages returns the messages for language, or every message when language is empty.
func (c *Catalog) Messages(language LanguageCode) []Message {
	if language == "" {
		return slices.Clone(c.messages)
	}
	return slices.Clone(c.byLanguage[language])
}

// Languages returns the languages present in the catalog, in SupportedLanguages order.
func (c *Catalog) Languages() []LanguageCode {
	return lo.Filter(SupportedLanguages, func(l LanguageCode, _ int) bool {
		return len(c.byLanguage[l]) > 0
	})
}

func (c *Catalog) Len() int {
	return len(c.messages)
}
