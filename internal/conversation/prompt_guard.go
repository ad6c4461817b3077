package conversation

import (
	"regexp"
	"strings"
)

// PromptGuardResult is the outcome of scanning an inbound message before it
// is sent to the generative fallback.
type PromptGuardResult struct {
	Blocked   bool
	Score     float64
	Reasons   []string
	Sanitized string
}

type promptGuardPattern struct {
	re     *regexp.Regexp
	reason string
	weight float64
}

const promptBlockThreshold = 0.7

var promptGuardPatterns = []promptGuardPattern{
	{regexp.MustCompile(`(?i)(ignore|disregard|forget)\s+(all\s+)?(previous|prior|above|earlier|your)\s+(instructions?|rules?|prompts?)`), "injection:ignore_instructions", 0.9},
	{regexp.MustCompile(`(?i)(игнорируй|забудь)\s+(все\s+)?(предыдущие\s+)?(инструкции|правила)`), "injection:ignore_instructions_ru", 0.9},
	{regexp.MustCompile(`(?i)(oldingi\s+)?(ko'rsatma|qoida)larni\s+(unut|e'tiborsiz)`), "injection:ignore_instructions_uz", 0.9},
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|my)\s+`), "injection:role_reassignment", 0.7},
	{regexp.MustCompile(`(?i)new\s+instructions?\s*:|system\s*prompt\s*:|<<\s*sys(tem)?\s*>>`), "injection:new_role", 0.9},
	{regexp.MustCompile(`(?i)jailbreak|DAN\s*mode|developer\s*mode`), "injection:jailbreak_keyword", 0.9},
	{regexp.MustCompile(`(?i)(reveal|show|print|repeat|tell\s+me)\s+(your\s+)?(system\s+prompt|instructions?|hidden\s+prompt)`), "exfiltration:system_prompt", 0.8},
	{regexp.MustCompile(`(?i)(покажи|выведи|повтори)\s+(свой\s+|свои\s+)?(системный\s+промпт|инструкции)`), "exfiltration:system_prompt_ru", 0.8},
	{regexp.MustCompile(`(?i)\[/?INST\]|<\|im_start\|>|<\|im_end\|>|<\|system\|>`), "context:special_tokens", 0.9},
	{regexp.MustCompile(`(?i)###\s*(system|instruction|assistant)\s*:`), "context:role_markers", 0.7},
	{regexp.MustCompile(`<\s*(script|iframe|object|embed)\b`), "obfuscation:html_injection", 0.6},
}

var (
	specialTokenPattern = regexp.MustCompile(`(?i)\[/?INST\]|<\|im_start\|>|<\|im_end\|>|<\|system\|>`)
	roleMarkerPattern   = regexp.MustCompile(`(?i)###\s*(system|instruction|assistant)\s*:`)
)

// ScanForPromptInjection scores a message for prompt-injection attempts. The
// score is the strongest signal plus 0.1 per extra signal, capped at 1.
func ScanForPromptInjection(message string) PromptGuardResult {
	if strings.TrimSpace(message) == "" {
		return PromptGuardResult{Sanitized: message}
	}

	var reasons []string
	maxWeight := 0.0
	for _, p := range promptGuardPatterns {
		if p.re.MatchString(message) {
			reasons = append(reasons, p.reason)
			if p.weight > maxWeight {
				maxWeight = p.weight
			}
		}
	}

	score := maxWeight
	if len(reasons) > 1 {
		score += float64(len(reasons)-1) * 0.1
	}
	if score > 1 {
		score = 1
	}

	return PromptGuardResult{
		Blocked:   score >= promptBlockThreshold,
		Score:     score,
		Reasons:   reasons,
		Sanitized: sanitizeForLLM(message),
	}
}

func sanitizeForLLM(message string) string {
	cleaned := specialTokenPattern.ReplaceAllString(message, "")
	cleaned = roleMarkerPattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}
