package lexicon

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"remind-lab/domain"
	"remind-lab/errors"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml
var tablesFolder embed.FS

// Set is the collection of compiled tables, one per language.
type Set struct {
	tables   map[domain.Language]*Table
	fallback domain.Language
}

// Loader reads language tables from a filesystem, one "<lang>.yaml" file per language.
type Loader struct {
	fs fs.FS
}

func NewLoader(f fs.FS) *Loader {
	return &Loader{fs: f}
}

// Default loads the tables shipped with the binary.
func Default(fallback domain.Language) (*Set, error) {
	return NewLoader(tablesFolder).LoadAll("tables", fallback)
}

// LoadAll decodes and compiles every .yaml file of dir. The file name must
// match the language declared inside the table.
func (l *Loader) LoadAll(dir string, fallback domain.Language) (*Set, error) {
	entries, err := fs.ReadDir(l.fs, dir)
	if err != nil {
		return nil, err
	}

	tables := make(map[domain.Language]*Table)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		lang := domain.Language(strings.TrimSuffix(entry.Name(), ".yaml"))

		data, err := fs.ReadFile(l.fs, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		var lex Lexicon
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&lex); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", entry.Name(), err)
		}
		if lex.Language != lang {
			return nil, fmt.Errorf("%w: file %s declares %q", errors.ErrLanguageMismatch, entry.Name(), lex.Language)
		}

		table, err := Compile(lex)
		if err != nil {
			return nil, fmt.Errorf("compiling %s: %w", entry.Name(), err)
		}
		tables[lang] = table
	}

	if len(tables) == 0 {
		return nil, errors.ErrEmptyLexicon
	}
	if _, ok := tables[fallback]; !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnsupportedLanguage, fallback)
	}
	return &Set{tables: tables, fallback: fallback}, nil
}

// Get returns the table of a language, the fallback one when unknown.
func (s *Set) Get(lang domain.Language) *Table {
	if t, ok := s.tables[lang]; ok {
		return t
	}
	return s.tables[s.fallback]
}

func (s *Set) Has(lang domain.Language) bool {
	_, ok := s.tables[lang]
	return ok
}

func (s *Set) Fallback() domain.Language {
	return s.fallback
}

// Languages lists the loaded languages in a stable order.
func (s *Set) Languages() []domain.Language {
	out := make([]domain.Language, 0, len(s.tables))
	for lang := range s.tables {
		out = append(out, lang)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
