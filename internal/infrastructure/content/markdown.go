package content

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ainative-textbook/chatbot-service/internal/core/domain"
)

// Loader reads chapters from a local content tree.
type Loader struct{}

func NewLoader() *Loader { return &Loader{} }

func (*Loader) LoadChapters(contentDir string) ([]domain.Chapter, error) {
	return LoadChapters(contentDir)
}

var headerPattern = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// ExtractSections splits markdown content at its headers. Text before the
// first header lands in an implicit "Introduction" section.
func ExtractSections(markdown string) []domain.Section {
	lines := strings.Split(markdown, "\n")

	var sections []domain.Section
	current := domain.Section{Title: "Introduction", HeaderID: "intro"}
	var body []string

	flush := func() {
		current.Body = strings.TrimSpace(strings.Join(body, "\n"))
		if current.Body != "" {
			sections = append(sections, current)
		}
		body = body[:0]
	}

	for _, line := range lines {
		match := headerPattern.FindStringSubmatch(line)
		if match == nil {
			body = append(body, line)
			continue
		}
		flush()
		title := strings.TrimSpace(match[2])
		current = domain.Section{
			Title:    title,
			HeaderID: HeaderID(title),
			Level:    len(match[1]),
		}
	}
	flush()

	return sections
}

// HeaderID derives the anchor id Docusaurus generates for a header, which is
// what citation URLs link to.
func HeaderID(title string) string {
	id := strings.ToLower(strings.TrimSpace(title))
	id = strings.ReplaceAll(id, " ", "-")
	id = strings.ReplaceAll(id, "/", "-")
	id = strings.ReplaceAll(id, "(", "")
	id = strings.ReplaceAll(id, ")", "")
	id = strings.ReplaceAll(id, "?", "")
	return id
}

// LoadChapters walks a content tree and extracts sections from every
// markdown file.
func LoadChapters(contentDir string) ([]domain.Chapter, error) {
	var chapters []domain.Chapter
	err := filepath.WalkDir(contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		chapters = append(chapters, domain.Chapter{
			ID:       strings.TrimSuffix(d.Name(), ".md"),
			Path:     path,
			Sections: ExtractSections(string(raw)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content dir: %w", err)
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("no markdown files under %s", contentDir)
	}
	return chapters, nil
}
