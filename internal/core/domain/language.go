package domain

// Language identifies one of the textbook's content languages.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageUrdu    Language = "ur"
)

// DetectLanguage resolves the target language for a question. An explicit
// hint wins; otherwise any Urdu-script rune selects Urdu and everything else
// falls back to English.
func DetectLanguage(question string, hint Language) Language {
	if hint == LanguageEnglish || hint == LanguageUrdu {
		return hint
	}
	for _, r := range question {
		if isUrduScript(r) {
			return LanguageUrdu
		}
	}
	return LanguageEnglish
}

// Urdu is written in the Arabic script; these are the Unicode blocks the
// textbook content actually uses (Arabic, Arabic Supplement, and the
// presentation forms).
func isUrduScript(r rune) bool {
	switch {
	case r >= 0x0600 && r <= 0x06FF:
		return true
	case r >= 0x0750 && r <= 0x077F:
		return true
	case r >= 0xFB50 && r <= 0xFDFF:
		return true
	case r >= 0xFE70 && r <= 0xFEFF:
		return true
	default:
		return false
	}
}
