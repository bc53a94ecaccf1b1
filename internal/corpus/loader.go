// ABOUTME: Loaders for corpus source files: plain text, markdown and HTML
// ABOUTME: Directory names map to source types; document ids are content-path hashes
package corpus

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"clauselens/internal/models"
)

// Loader reads corpus source files into CorpusDocument records.
type Loader struct{}

// NewLoader creates a corpus loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDir walks a corpus root whose subdirectories name source types
// (statutes/, guides/, precedents/, templates/) and loads every supported
// file inside them. Unknown directories and unsupported extensions are
// skipped. Results are in lexical walk order, so repeated loads of the same
// tree produce the same documents with the same ids.
func (l *Loader) LoadDir(root string) ([]models.CorpusDocument, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus root: %w", err)
	}

	var docs []models.CorpusDocument
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sourceType, ok := dirSourceType(entry.Name())
		if !ok {
			continue
		}

		dir := filepath.Join(root, entry.Name())
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !supportedExt(path) {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			doc, err := l.loadFile(path, filepath.ToSlash(rel), sourceType)
			if err != nil {
				return fmt.Errorf("%s: %w", rel, err)
			}
			docs = append(docs, *doc)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// LoadFile loads a single corpus file with an explicit source type.
func (l *Loader) LoadFile(path string, sourceType models.SourceType) (*models.CorpusDocument, error) {
	rel := string(sourceType) + "/" + filepath.Base(path)
	return l.loadFile(path, rel, sourceType)
}

func (l *Loader) loadFile(path, rel string, sourceType models.SourceType) (*models.CorpusDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var title, text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		title, text, err = parseHTML(strings.NewReader(string(data)))
		if err != nil {
			return nil, err
		}
	default:
		text = string(data)
		title = firstHeading(text)
	}
	if title == "" {
		title = baseTitle(path)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("file contains no text")
	}

	return &models.CorpusDocument{
		ID:         documentID(rel),
		SourceType: sourceType,
		Title:      title,
		Text:       text,
	}, nil
}

// dirSourceType maps a directory name to a source type, accepting both
// singular and plural forms.
func dirSourceType(name string) (models.SourceType, bool) {
	n := strings.TrimSuffix(strings.ToLower(name), "s")
	return models.ParseSourceType(n)
}

func supportedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".html", ".htm":
		return true
	}
	return false
}

// parseHTML extracts a title and readable text from an HTML page. Headings,
// paragraphs and list items are joined with blank lines so downstream
// chunking sees paragraph boundaries.
func parseHTML(r io.Reader) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse html: %w", err)
	}
	doc.Find("script, style, nav, header, footer").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	var sb strings.Builder
	doc.Find("h1, h2, h3, h4, p, li").Each(func(_ int, s *goquery.Selection) {
		// A list item with block children is covered by those children.
		if s.Is("li") && s.ChildrenFiltered("p, ul, ol").Length() > 0 {
			return
		}
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	})

	text := strings.TrimSpace(sb.String())
	if text == "" {
		text = strings.TrimSpace(doc.Find("body").Text())
	}
	return title, text, nil
}

// firstHeading returns the first non-empty line, stripped of markdown
// heading markers, capped for use as a title.
func firstHeading(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > 80 {
			line = string(runes[:80])
		}
		return line
	}
	return ""
}

func baseTitle(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(base, "_", " ")
}

func documentID(rel string) string {
	sum := sha1.Sum([]byte(rel))
	return "corpus_" + hex.EncodeToString(sum[:])[:16]
}
