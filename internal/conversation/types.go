package conversation

import (
	"strings"
	"time"
)

// Language is a supported reply language.
type Language string

const (
	LanguageUzbek   Language = "uz"
	LanguageRussian Language = "ru"
)

// SupportedLanguages lists reply languages in preference order.
var SupportedLanguages = []Language{LanguageUzbek, LanguageRussian}

// ParseLanguage maps a language code to a supported Language, or fallback.
func ParseLanguage(code string, fallback Language) Language {
	switch Language(strings.ToLower(strings.TrimSpace(code))) {
	case LanguageUzbek:
		return LanguageUzbek
	case LanguageRussian:
		return LanguageRussian
	default:
		return fallback
	}
}

// Platform identifies the channel an event arrived on.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformWebchat   Platform = "webchat"
)

// Source tags which stage of the router produced a reply.
type Source string

const (
	SourcePhoneCapture      Source = "phone-capture"
	SourceGreeting          Source = "greeting"
	SourceIntentKeyword     Source = "intent-keyword"
	SourceFAQ               Source = "faq"
	SourceCache             Source = "cache"
	SourceGenerative        Source = "generative"
	SourceGenerativeFailure Source = "generative-failure"
)

// InboundEvent is one messaging event from a webhook delivery.
type InboundEvent struct {
	Platform       Platform
	SenderID       string
	RecipientID    string
	MessageID      string
	Text           string
	IsEcho         bool
	IsPostback     bool
	HasAttachments bool
	ReceivedAt     time.Time
}

// IsText reports whether the event carries user text worth answering.
func (e InboundEvent) IsText() bool {
	return !e.IsPostback && strings.TrimSpace(e.Text) != ""
}

// ResolvedReply is the single outbound text chosen for an event.
type ResolvedReply struct {
	Text     string   `json:"reply"`
	Source   Source   `json:"source"`
	Language Language `json:"language"`
	Phone    string   `json:"phone,omitempty"`
	FAQID    string   `json:"faq_id,omitempty"`
}
