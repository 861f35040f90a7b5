package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMessages() []Message {
	return []Message{
		{ID: "en-1", Text: "one", Language: LanguageEnglish},
		{ID: "en-2", Text: "two", Language: LanguageEnglish},
		{ID: "ar-1", Text: "واحد", Language: LanguageArabic},
		{ID: "fr-1", Text: "un", Language: LanguageFrench},
	}
}

func TestNew(t *testing.T) {
	testcases := []struct {
		name     string
		messages []Message
		wantErr  bool
		errIs    error
	}{
		{
			name:     "valid catalog",
			messages: validMessages(),
		},
		{
			name: "missing language",
			messages: []Message{
				{ID: "en-1", Text: "one", Language: LanguageEnglish},
				{ID: "fr-1", Text: "un", Language: LanguageFrench},
			},
			wantErr: true,
			errIs:   ErrNoMessages,
		},
		{
			name:     "unsupported language",
			messages: append(validMessages(), Message{ID: "de-1", Text: "eins", Language: "de-DE"}),
			wantErr:  true,
			errIs:    ErrUnsupportedLanguage,
		},
		{
			name:     "duplicate id",
			messages: append(validMessages(), Message{ID: "en-1", Text: "again", Language: LanguageEnglish}),
			wantErr:  true,
		},
		{
			name:     "empty id",
			messages: append(validMessages(), Message{Text: "nameless", Language: LanguageEnglish}),
			wantErr:  true,
		},
		{
			name:     "empty text",
			messages: append(validMessages(), Message{ID: "en-3", Language: LanguageEnglish}),
			wantErr:  true,
		},
		{
			name:    "empty catalog",
			wantErr: true,
			errIs:   ErrNoMessages,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.messages)
			if (err != nil) != tc.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.errIs != nil && !errors.Is(err, tc.errIs) {
				t.Errorf("New() error = %v, want %v", err, tc.errIs)
			}
		})
	}
}

func TestSelectRandomMatchesLanguage(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	for _, language := range SupportedLanguages {
		t.Run(language.String(), func(t *testing.T) {
			for range 200 {
				m, err := c.SelectRandom(language)
				require.NoError(t, err)
				assert.Equal(t, language, m.Language)
			}
		})
	}
}

func TestSelectRandomUnknownLanguage(t *testing.T) {
	c, err := New(validMessages())
	require.NoError(t, err)

	_, err = c.SelectRandom("de-DE")
	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestSelectRandomUsesIntN(t *testing.T) {
	var gotN []int
	c, err := New(validMessages(), WithIntN(func(n int) int {
		gotN = append(gotN, n)
		return n - 1
	}))
	require.NoError(t, err)

	m, err := c.SelectRandom(LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, "en-2", m.ID)
	assert.Equal(t, []int{2}, gotN)
}

func TestSelectRandomCoversAllEntries(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	seen := make(map[string]bool)
	for range 2000 {
		m, err := c.SelectRandom(LanguageFrench)
		require.NoError(t, err)
		seen[m.ID] = true
	}
	assert.Len(t, seen, len(c.Messages(LanguageFrench)))
}

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 30, c.Len())
	assert.Equal(t, SupportedLanguages, c.Languages())
	for _, language := range SupportedLanguages {
		assert.Len(t, c.Messages(language), 10, "language %s", language)
	}

	m, ok := c.Get("fr-7")
	require.True(t, ok)
	assert.Equal(t, "Tout l'argent dont j'ai besoin me parvient au bon moment.", m.Text)
}

func TestMessagesReturnsCopy(t *testing.T) {
	c, err := New(validMessages())
	require.NoError(t, err)

	messages := c.Messages(LanguageEnglish)
	messages[0].Text = "mutated"

	m, _ := c.Get("en-1")
	assert.Equal(t, "one", m.Text)
	assert.Len(t, c.Messages(""), 4)
}

func TestLoadFile(t *testing.T) {
	testcases := []struct {
		file    string
		wantErr bool
	}{
		{file: "small.toml"},
		{file: "missing_language.toml", wantErr: true},
		{file: "undecoded.toml", wantErr: true},
		{file: "future_version.toml", wantErr: true},
		{file: "does_not_exist.toml", wantErr: true},
	}

	for _, tc := range testcases {
		t.Run(tc.file, func(t *testing.T) {
			_, err := LoadFile(filepath.Join("testdata", tc.file))
			if (err != nil) != tc.wantErr {
				t.Errorf("LoadFile(%s) error = %v, wantErr %v", tc.file, err, tc.wantErr)
			}
		})
	}
}

func TestLoadFileContents(t *testing.T) {
	c, err := LoadFile(filepath.Join("testdata", "small.toml"))
	require.NoError(t, err)

	want := []Message{
		{ID: "en-1", Text: "I am calm.", Language: LanguageEnglish},
		{ID: "ar-1", Text: "أنا هادئ.", Language: LanguageArabic},
		{ID: "fr-1", Text: "Je suis calme.", Language: LanguageFrench},
	}
	if diff := cmp.Diff(want, c.Messages("")); diff != "" {
		t.Errorf("Messages() mismatch (-want +got):\n%s", diff)
	}
}

func ExampleCatalog_SelectRandom() {
	c, _ := New(validMessages(), WithIntN(func(int) int { return 0 }))
	m, _ := c.SelectRandom(LanguageFrench)
	fmt.Println(m.ID, m.Text)
	// Output: fr-1 un
}
