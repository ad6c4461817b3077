package conversation

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

var apostropheReplacer = strings.NewReplacer(
	"\u2018", "'",
	"\u2019", "'",
	"\u02bb", "'",
	"\u02bc", "'",
	"`", "'",
	"\u00b4", "'",
)

// Tokenize lowercases text and splits it into words. Apostrophe variants are
// folded to ASCII so o‘z, o'z and oʻz produce the same token.
func Tokenize(text string) []string {
	text = apostropheReplacer.Replace(strings.ToLower(text))
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'')
	})
	tokens := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// NormalizeText returns the canonical form of a question used for matching and hashing.
func NormalizeText(text string) string {
	return strings.Join(Tokenize(text), " ")
}

// QuestionHash is the content address of a normalized question.
func QuestionHash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// keywordPattern is one keyword compiled to tokens. A trailing '*' on the
// keyword makes its last token a prefix, so "narx*" matches narxi and narxlar.
type keywordPattern struct {
	raw    string
	tokens []string
	prefix bool
}

func compileKeyword(raw string) (keywordPattern, bool) {
	trimmed := strings.TrimSpace(raw)
	prefix := strings.HasSuffix(trimmed, "*")
	tokens := Tokenize(strings.TrimSuffix(trimmed, "*"))
	if len(tokens) == 0 {
		return keywordPattern{}, false
	}
	return keywordPattern{raw: trimmed, tokens: tokens, prefix: prefix}, true
}

// exact reports whether the pattern is a single whole word.
func (p keywordPattern) exact() bool {
	return len(p.tokens) == 1 && !p.prefix
}

// matches reports whether the pattern occurs as whole words in tokens.
func (p keywordPattern) matches(tokens []string) bool {
	n := len(p.tokens)
	for start := 0; start+n <= len(tokens); start++ {
		ok := true
		for i, want := range p.tokens {
			got := tokens[start+i]
			if i == n-1 && p.prefix {
				if !strings.HasPrefix(got, want) {
					ok = false
				}
			} else if got != want {
				ok = false
			}
			if !ok {
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
