package conversation

// Category is an intent tag attached to keywords in the index.
type Category string

const (
	CategoryGreeting    Category = "greeting"
	CategoryThanks      Category = "thanks"
	CategoryAppointment Category = "appointment"
	CategoryPrice       Category = "price"
)

// KeywordSets maps each category to its keywords per language.
type KeywordSets map[Category]map[Language][]string

// DefaultKeywordSets returns the built-in Uzbek and Russian intent keywords.
func DefaultKeywordSets() KeywordSets {
	return KeywordSets{
		CategoryGreeting: {
			LanguageUzbek: {
				"assalomu alaykum", "assalamu alaykum", "assalom*", "assalam*", "salom", "salam",
				"xayrli kun", "hayrli kun", "xayrli tong", "hayrli tong", "xayrli kech",
				"ассалому алайкум", "ассалом*", "салом",
			},
			LanguageRussian: {
				"здравствуйте", "здравствуй", "привет", "добрый день", "добрый вечер", "доброе утро",
			},
		},
		CategoryThanks: {
			LanguageUzbek:   {"rahmat", "raxmat", "tashakkur", "рахмат", "ташаккур"},
			LanguageRussian: {"спасибо", "благодарю", "спс"},
		},
		CategoryAppointment: {
			LanguageUzbek: {
				"yozil*", "navbat*", "qabulga", "qabulingiz*", "uchrashuv*", "band qil*",
				"ёзил*", "навбат*",
			},
			LanguageRussian: {"запис*", "прием", "приём", "окошк*", "свободное время"},
		},
		CategoryPrice: {
			LanguageUzbek: {
				"narx*", "necha pul", "qancha pul", "qancha turadi", "to'lov*", "нарх*",
			},
			LanguageRussian: {"цен*", "стоимост*", "сколько стоит", "прайс*"},
		},
	}
}

type keywordTag struct {
	category Category
	language Language
}

type taggedPattern struct {
	keywordTag
	pattern keywordPattern
}

// KeywordIndex is a tagged keyword index built once and queried per message.
// Single whole-word keywords are resolved by set intersection with the
// message tokens; phrases and prefix stems are scanned.
type KeywordIndex struct {
	exact    map[string][]keywordTag
	patterns []taggedPattern
}

// KeywordMatch is the result of a lookup.
type KeywordMatch struct {
	Categories   map[Category]bool
	LanguageHits map[Language]int
}

// Has reports whether a category matched.
func (m KeywordMatch) Has(c Category) bool {
	return m.Categories[c]
}

// NewKeywordIndex compiles keyword sets into an index. Empty keywords are skipped.
func NewKeywordIndex(sets KeywordSets) *KeywordIndex {
	idx := &KeywordIndex{exact: make(map[string][]keywordTag)}
	for category, byLang := range sets {
		for lang, keywords := range byLang {
			tag := keywordTag{category: category, language: lang}
			for _, kw := range keywords {
				p, ok := compileKeyword(kw)
				if !ok {
					continue
				}
				if p.exact() {
					idx.exact[p.tokens[0]] = append(idx.exact[p.tokens[0]], tag)
					continue
				}
				idx.patterns = append(idx.patterns, taggedPattern{keywordTag: tag, pattern: p})
			}
		}
	}
	return idx
}

// Lookup returns the categories and per-language hit counts for tokens.
func (i *KeywordIndex) Lookup(tokens []string) KeywordMatch {
	match := KeywordMatch{
		Categories:   make(map[Category]bool),
		LanguageHits: make(map[Language]int),
	}
	if i == nil || len(tokens) == 0 {
		return match
	}
	for tok := range tokenSet(tokens) {
		for _, tag := range i.exact[tok] {
			match.Categories[tag.category] = true
			match.LanguageHits[tag.language]++
		}
	}
	for _, tp := range i.patterns {
		if tp.pattern.matches(tokens) {
			match.Categories[tp.category] = true
			match.LanguageHits[tp.language]++
		}
	}
	return match
}
