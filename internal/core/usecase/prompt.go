package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ainative-textbook/chatbot-service/internal/core/domain"
)

// Keep at least this much room for a passage before dropping it outright
// instead of truncating.
const minPassageChars = 200

// assembleGroundingPrompt builds the generator prompt from the question and
// the ranked passages, bounded by maxChars of context. Lowest-ranked
// passages are truncated or dropped first; the returned slice holds exactly
// the passages whose text made it into the prompt, which is the set the
// citations must mirror.
func assembleGroundingPrompt(
	question string,
	language domain.Language,
	passages []domain.RetrievedPassage,
	maxChars int,
	maxTokens int,
) (domain.Prompt, []domain.RetrievedPassage) {
	var blocks []string
	var included []domain.RetrievedPassage
	remaining := maxChars

	for i, passage := range passages {
		header := fmt.Sprintf("[Section %d: %s]\n", i+1, passage.SectionTitle)
		budget := remaining - len(header)
		if len(included) > 0 && budget < minPassageChars {
			break
		}

		body := passage.Content
		if len(body) > budget {
			body = truncateAtBoundary(body, budget)
			if body == "" {
				break
			}
			passage.Content = body
		}

		block := header + body
		blocks = append(blocks, block)
		included = append(included, passage)
		remaining -= len(block) + len(contextSeparator)
	}

	contextText := strings.Join(blocks, contextSeparator)
	return domain.Prompt{
		System:    systemPrompt(language),
		User:      userPrompt(question, contextText, language),
		MaxTokens: maxTokens,
	}, included
}

const contextSeparator = "\n\n---\n\n"

func truncateAtBoundary(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(text) <= limit {
		return text
	}
	// Never cut inside a multi-byte sequence.
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	cut := text[:limit]
	if idx := strings.LastIndexAny(cut, " \n\t"); idx > limit/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

func systemPrompt(language domain.Language) string {
	if language == domain.LanguageUrdu {
		return `آپ ایک AI معلم ہیں جو فزیکل AI اور انسان نما روبوٹکس کے بارے میں ایک نصابی کتاب کی بنیاد پر سوالات کے جواب دیتے ہیں۔

ہدایات:
1. صرف دیے گئے متن سے جواب دیں
2. اگر متن میں جواب نہیں ہے، تو کہیں کہ یہ کتاب میں شامل نہیں ہے
3. جواب واضح اور مختصر رکھیں
4. مناسب کوڈ مثالیں شامل کریں اگر ممکن ہو
5. زبان: اردو`
	}
	return `You are an AI tutor helping students learn Physical AI and Humanoid Robotics from a textbook.

Instructions:
1. Answer ONLY using the provided textbook content
2. If the answer is not in the context, state that the topic is not covered in this textbook
3. Provide clear, concise answers
4. Include relevant code examples if appropriate
5. Cite the specific sections you're referencing
6. Language: English`
}

func userPrompt(question, contextText string, language domain.Language) string {
	if language == domain.LanguageUrdu {
		return fmt.Sprintf(`درج ذیل متن کا استعمال کرتے ہوئے اس سوال کا جواب دیں:

**متن:**
%s

**سوال:**
%s

جواب:`, contextText, question)
	}
	return fmt.Sprintf(`Using the following textbook content, answer the question:

**Textbook Content:**
%s

**Question:**
%s

Answer:`, contextText, question)
}
