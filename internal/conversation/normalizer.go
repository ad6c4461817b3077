package conversation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

var (
	blankLinesPattern  = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
	inlineSpacePattern = regexp.MustCompile(`[ \t]{2,}`)
	markdownEmphasis   = regexp.MustCompile(`\*\*|__|~~|` + "`")
	markdownHeading    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	markdownBullet     = regexp.MustCompile(`(?m)^[ \t]*\*[ \t]+`)
)

// Normalizer enforces output constraints on generated answers.
type Normalizer struct {
	maxChars int
	detector LanguageDetector
	logger   *logging.Logger
}

// NewNormalizer creates a normalizer. maxChars <= 0 disables trimming.
func NewNormalizer(maxChars int, detector LanguageDetector, logger *logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Normalizer{maxChars: maxChars, detector: detector, logger: logger}
}

// Normalize cleans text for a chat reply in lang. It fails when nothing
// sendable remains or the output guard blocks the answer. The language check
// is best-effort and only logged.
func (n *Normalizer) Normalize(text string, lang Language) (string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = markdownHeading.ReplaceAllString(text, "")
	text = markdownBullet.ReplaceAllString(text, "- ")
	text = markdownEmphasis.ReplaceAllString(text, "")
	text = blankLinesPattern.ReplaceAllString(text, "\n\n")
	text = inlineSpacePattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	guard := ScanOutputForLeaks(text)
	if guard.Leaked {
		n.logger.Warn("generated answer flagged by output guard", "reasons", guard.Reasons)
		if guard.Sanitized == "" {
			return "", ErrUnsafeAnswer
		}
		text = guard.Sanitized
	}
	if text == "" {
		return "", ErrEmptyCompletion
	}

	if n.maxChars > 0 {
		text = truncateOnWord(text, n.maxChars)
	}
	if n.detector != nil {
		if got := n.detector.Detect(text); got != lang {
			n.logger.Warn("generated answer language mismatch", "expected", lang, "detected", got)
		}
	}
	return text, nil
}

// truncateOnWord cuts text to at most max runes, backing up to the last word
// boundary and appending an ellipsis.
func truncateOnWord(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	cut := runes[:max-1]
	if i := lastSpace(cut); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(string(cut), " \n\t,.;:-") + "…"
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' || runes[i] == '\n' {
			return i
		}
	}
	return -1
}
