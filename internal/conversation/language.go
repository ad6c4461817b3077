package conversation

import "unicode"

// LanguageDetector guesses the language of a message. Implementations must
// return a supported language and never fail.
type LanguageDetector interface {
	Detect(text string) Language
}

// LanguageDetectorFunc adapts a function to LanguageDetector.
type LanguageDetectorFunc func(text string) Language

func (f LanguageDetectorFunc) Detect(text string) Language { return f(text) }

// FixedLanguageDetector always answers in one language.
type FixedLanguageDetector Language

func (d FixedLanguageDetector) Detect(string) Language { return Language(d) }

// KeywordDetector scores a message against per-language marker words and the
// script it is written in. Ties go to the fallback language.
type KeywordDetector struct {
	markers  map[Language][]keywordPattern
	fallback Language
}

// DefaultLanguageMarkers are common function words and domain terms per language.
func DefaultLanguageMarkers() map[Language][]string {
	return map[Language][]string{
		LanguageUzbek: {
			"va", "uchun", "haqida", "bilan", "kerak", "bormi", "qanday", "nima", "ayting", "aytib*",
			"iltimos", "qayerda", "qachon", "mumkinmi", "bo'ladimi", "qilish*", "men", "siz*",
			"salom", "assalom*", "assalam*", "rahmat", "raxmat", "narx*", "hijoma", "xijoma", "yozil*",
			"салом", "рахмат", "ҳижома", "хижома", "қанча",
		},
		LanguageRussian: {
			"и", "в", "на", "что", "как", "где", "когда", "сколько", "можно", "есть", "это",
			"здравствуйте", "привет", "спасибо", "пожалуйста", "подскажите", "скажите",
			"хиджама", "хиджаму", "цен*", "запис*",
		},
	}
}

// NewKeywordDetector builds a detector from marker sets.
func NewKeywordDetector(markers map[Language][]string, fallback Language) *KeywordDetector {
	if fallback == "" {
		fallback = LanguageUzbek
	}
	d := &KeywordDetector{markers: make(map[Language][]keywordPattern), fallback: fallback}
	for lang, words := range markers {
		for _, w := range words {
			if p, ok := compileKeyword(w); ok {
				d.markers[lang] = append(d.markers[lang], p)
			}
		}
	}
	return d
}

// Detect implements LanguageDetector.
func (d *KeywordDetector) Detect(text string) Language {
	scores := make(map[Language]int)
	tokens := Tokenize(text)
	for lang, patterns := range d.markers {
		for _, p := range patterns {
			if p.matches(tokens) {
				scores[lang]++
			}
		}
	}

	cyrillic, uzCyrillic := scriptHints(text)
	if uzCyrillic {
		scores[LanguageUzbek] += 2
	} else if cyrillic {
		scores[LanguageRussian]++
	}

	best, bestScore, tie := d.fallback, 0, false
	for _, lang := range SupportedLanguages {
		switch s := scores[lang]; {
		case s > bestScore:
			best, bestScore, tie = lang, s, false
		case s == bestScore && s > 0:
			tie = true
		}
	}
	if bestScore == 0 || tie {
		return d.fallback
	}
	return best
}

// scriptHints reports whether text has Cyrillic letters and whether any of
// them are specific to Uzbek Cyrillic (ў қ ғ ҳ).
func scriptHints(text string) (cyrillic, uzbek bool) {
	for _, r := range text {
		if !unicode.Is(unicode.Cyrillic, r) {
			continue
		}
		cyrillic = true
		switch unicode.ToLower(r) {
		case 'ў', 'қ', 'ғ', 'ҳ':
			uzbek = true
		}
	}
	return cyrillic, uzbek
}
