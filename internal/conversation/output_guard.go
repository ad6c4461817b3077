package conversation

import (
	"regexp"
	"strings"
)

// OutputGuardResult is the outcome of scanning a generated answer.
type OutputGuardResult struct {
	Leaked    bool
	Reasons   []string
	Sanitized string
}

type outputLeakPattern struct {
	re     *regexp.Regexp
	reason string
	block  bool
}

var outputLeakPatterns = []outputLeakPattern{
	{regexp.MustCompile(`(?i)my (system\s+)?(prompt|instructions?)\s+(is|are|says|tells)`), "leak:system_prompt_disclosure", true},
	{regexp.MustCompile(`(?i)(мой|мои)\s+(системный\s+промпт|инструкции)`), "leak:system_prompt_disclosure_ru", true},
	{regexp.MustCompile(`(?i)(powered by|built on|running on)\s+(Gemini|GPT|OpenAI|Claude|Bedrock|Google)`), "leak:tech_stack", true},
	{regexp.MustCompile(`(?i)(api[_\s]?key|access[_\s]?token|bearer\s+token)\s*[:=]\s*\S+`), "leak:credential", true},
	{regexp.MustCompile(`AKIA[A-Z0-9]{16}`), "leak:aws_key", true},
	{regexp.MustCompile(`(?i)(postgres|redis)://\S+`), "leak:database_url", true},
	{regexp.MustCompile(`(?i)/admin/|/webhooks/`), "leak:internal_path", true},
	{regexp.MustCompile(`(?i)\bi('m| am) (a|an) (AI|language model|chatbot|bot)\b`), "leak:ai_identity", false},
	{regexp.MustCompile(`(?i)я\s+(—\s+)?(искусственный интеллект|языковая модель|бот)`), "leak:ai_identity_ru", false},
}

var aiIdentitySentence = regexp.MustCompile(`(?i)[^.!?]*(\bi('m| am) (a|an) (AI|language model|chatbot|bot)\b|я\s+(—\s+)?(искусственный интеллект|языковая модель|бот))[^.!?]*[.!?]?\s*`)

// ScanOutputForLeaks checks a generated answer for prompt or credential
// leaks. Blocking leaks empty Sanitized; identity disclosures are cut out.
func ScanOutputForLeaks(reply string) OutputGuardResult {
	if strings.TrimSpace(reply) == "" {
		return OutputGuardResult{Sanitized: reply}
	}

	var reasons []string
	block := false
	for _, p := range outputLeakPatterns {
		if p.re.MatchString(reply) {
			reasons = append(reasons, p.reason)
			block = block || p.block
		}
	}
	if len(reasons) == 0 {
		return OutputGuardResult{Sanitized: reply}
	}

	result := OutputGuardResult{Leaked: true, Reasons: reasons}
	if !block {
		result.Sanitized = strings.TrimSpace(aiIdentitySentence.ReplaceAllString(reply, ""))
	}
	return result
}
