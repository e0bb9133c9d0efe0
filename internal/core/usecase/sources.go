package usecase

import (
	"fmt"

	"github.com/ainative-textbook/chatbot-service/internal/core/domain"
)

const maxExcerptChars = 200

// buildSources formats citations for exactly the passages included in the
// grounding prompt. Selected-text mode cites the excerpt itself and links
// nowhere.
func buildSources(included []domain.RetrievedPassage, language domain.Language, selectedText bool) []domain.SourceReference {
	sources := make([]domain.SourceReference, 0, len(included))
	for _, passage := range included {
		ref := domain.SourceReference{
			ChapterID:    passage.ChapterID,
			ChapterTitle: domain.ChapterTitle(passage.ChapterID),
			SectionID:    passage.SectionID,
			SectionTitle: passage.SectionTitle,
			Excerpt:      excerpt(passage.Content),
		}
		if selectedText {
			ref.ChapterTitle = "Selected Text"
		} else {
			ref.URL = fmt.Sprintf("/%s/docs/%s#%s", language, passage.ChapterID, passage.SectionID)
		}
		sources = append(sources, ref)
	}
	return sources
}

func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= maxExcerptChars {
		return content
	}
	return string(runes[:maxExcerptChars]) + "…"
}
