// Package corpus loads per-language reference documents from disk.
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
)

// Extension is the only file type picked up from a corpus directory.
const Extension = ".md"

const sourcePrefix = "# Source:"

// namespace seeds deterministic document IDs.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("mbti-rag/corpus"))

// Dir returns the directory holding documents for lang.
func Dir(root string, lang domain.Language) string {
	return filepath.Join(root, string(lang))
}

// Load reads every .md file below <root>/<lang>, in lexical path order.
// A missing or unreadable directory is reported as *domain.IngestionError.
func Load(root string, lang domain.Language) ([]domain.Document, error) {
	dir := Dir(root, lang)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &domain.IngestionError{Language: lang, Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &domain.IngestionError{Language: lang, Path: dir, Err: errors.New("not a directory")}
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), Extension) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, &domain.IngestionError{Language: lang, Path: dir, Err: err}
	}
	sort.Strings(paths)

	docs := make([]domain.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &domain.IngestionError{Language: lang, Path: path, Err: err}
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		text := string(data)
		label := SourceLabel(text)
		if label == "" {
			label = rel
		}
		docs = append(docs, domain.Document{
			ID:          DocumentID(rel),
			Language:    lang,
			SourceLabel: label,
			RawText:     text,
		})
	}
	return docs, nil
}

// DocumentID derives a stable identifier from a corpus-relative path.
func DocumentID(relPath string) string {
	return uuid.NewSHA1(namespace, []byte(relPath)).String()
}

// SourceLabel returns the origin named by a leading "# Source: <origin>" line,
// or "" when the text has none.
func SourceLabel(text string) string {
	sc := bufio.NewScanner(strings.NewReader(strings.TrimPrefix(text, "\ufeff")))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, sourcePrefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, sourcePrefix))
		}
		return ""
	}
	return ""
}

// Stats summarizes a loaded corpus.
type Stats struct {
	Documents int
	Runes     int
}

// Describe returns document and rune counts.
func Describe(docs []domain.Document) Stats {
	s := Stats{Documents: len(docs)}
	for _, d := range docs {
		s.Runes += len([]rune(d.RawText))
	}
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("%d documents, %d characters", s.Documents, s.Runes)
}
