package conversation

import (
	"regexp"
	"strings"
)

// Signals are the structured facts pulled out of a message. Several intent
// flags may be set at once; the router decides precedence.
type Signals struct {
	Phone               string   `json:"phone,omitempty"`
	IsGreeting          bool     `json:"is_greeting"`
	IsThanks            bool     `json:"is_thanks"`
	IsAppointmentIntent bool     `json:"is_appointment_intent"`
	IsPriceIntent       bool     `json:"is_price_intent"`
	Language            Language `json:"language"`
}

// Phone shapes. Boundaries are checked by hand since RE2 has no lookbehind.
var phonePatterns = []*regexp.Regexp{
	// A bare digit run.
	regexp.MustCompile(`\+?\d{9,15}`),
	// International grouping such as "+998 90 111 22 33".
	regexp.MustCompile(`\+\d{1,3}(?:[ \-]?\(?\d{1,4}\)?){2,6}`),
	// Local mobile layout 2-3-2-2, optionally behind 998: "90-111-22-33", "(90) 111 22 33".
	regexp.MustCompile(`(?:998[ \-]?)?\(?\d{2}\)?[ \-]\d{3}[ \-]?\d{2}[ \-]?\d{2}`),
}

const (
	minPhoneDigits = 9
	maxPhoneDigits = 15
)

// ExtractPhone returns the first phone number in text, or "". The result keeps
// a leading '+' when present and drops any separators. Space-grouped amounts
// such as "150 000" do not count.
func ExtractPhone(text string) string {
	best := -1
	phone := ""
	for _, re := range phonePatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if !phoneBoundary(text, loc[0], loc[1]) {
				continue
			}
			normalized := normalizePhone(text[loc[0]:loc[1]])
			if normalized == "" {
				continue
			}
			if best == -1 || loc[0] < best {
				best = loc[0]
				phone = normalized
			}
			break
		}
	}
	return phone
}

// phoneBoundary rejects matches that start or end inside a longer number.
func phoneBoundary(text string, start, end int) bool {
	if start > 0 {
		if c := text[start-1]; isASCIIDigit(c) || c == '+' {
			return false
		}
	}
	return end == len(text) || !isASCIIDigit(text[end])
}

func isASCIIDigit(c byte) bool { return c >= '0' && c <= '9' }

func normalizePhone(raw string) string {
	var b strings.Builder
	digits := 0
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	if digits < minPhoneDigits || digits > maxPhoneDigits {
		return ""
	}
	return b.String()
}

// SignalExtractor classifies free text against a keyword index.
type SignalExtractor struct {
	index    *KeywordIndex
	detector LanguageDetector
}

// NewSignalExtractor creates an extractor. A nil index uses the default keyword
// sets and a nil detector uses the keyword detector with Uzbek as fallback.
func NewSignalExtractor(index *KeywordIndex, detector LanguageDetector) *SignalExtractor {
	if index == nil {
		index = NewKeywordIndex(DefaultKeywordSets())
	}
	if detector == nil {
		detector = NewKeywordDetector(DefaultLanguageMarkers(), LanguageUzbek)
	}
	return &SignalExtractor{index: index, detector: detector}
}

// Extract pulls signals from text.
func (e *SignalExtractor) Extract(text string) Signals {
	match := e.index.Lookup(Tokenize(text))
	return Signals{
		Phone:               ExtractPhone(text),
		IsGreeting:          match.Has(CategoryGreeting),
		IsThanks:            match.Has(CategoryThanks),
		IsAppointmentIntent: match.Has(CategoryAppointment),
		IsPriceIntent:       match.Has(CategoryPrice),
		Language:            e.detector.Detect(text),
	}
}
