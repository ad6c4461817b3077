package conversation

import (
	"context"
	"time"

	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

// Router resolves exactly one reply per message through a fixed priority
// chain: phone, thanks, greeting, appointment, price, FAQ, cache, generative.
// Each stage short-circuits.
type Router struct {
	extractor  *SignalExtractor
	throttle   GreetingThrottle
	faqs       *FAQStore
	cache      AnswerCache
	generator  Generator
	normalizer *Normalizer
	templates  ReplyTemplates
	window     time.Duration
	maxChars   int
	fallback   Language
	now        func() time.Time
	logger     *logging.Logger
}

// RouterConfig wires the router's collaborators. Nil collaborators get
// in-memory or always-failing defaults.
type RouterConfig struct {
	Extractor       *SignalExtractor
	Throttle        GreetingThrottle
	FAQs            *FAQStore
	Cache           AnswerCache
	Generator       Generator
	Normalizer      *Normalizer
	Templates       ReplyTemplates
	GreetingWindow  time.Duration
	MaxReplyChars   int
	DefaultLanguage Language
	Now             func() time.Time
	Logger          *logging.Logger
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = LanguageUzbek
	}
	if cfg.GreetingWindow <= 0 {
		cfg.GreetingWindow = 24 * time.Hour
	}
	if cfg.Extractor == nil {
		cfg.Extractor = NewSignalExtractor(nil, NewKeywordDetector(DefaultLanguageMarkers(), cfg.DefaultLanguage))
	}
	if cfg.Throttle == nil {
		cfg.Throttle = NewMemoryGreetingThrottle(cfg.GreetingWindow)
	}
	if cfg.FAQs == nil {
		cfg.FAQs = NewStaticFAQStore(nil)
	}
	if cfg.Cache == nil {
		cfg.Cache = NewMemoryAnswerCache()
	}
	if cfg.Generator == nil {
		cfg.Generator = DisabledGenerator{}
	}
	if cfg.Normalizer == nil {
		cfg.Normalizer = NewNormalizer(cfg.MaxReplyChars, cfg.Extractor.detector, cfg.Logger)
	}
	if cfg.Templates == nil {
		cfg.Templates = DefaultReplyTemplates("")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Router{
		extractor:  cfg.Extractor,
		throttle:   cfg.Throttle,
		faqs:       cfg.FAQs,
		cache:      cfg.Cache,
		generator:  cfg.Generator,
		normalizer: cfg.Normalizer,
		templates:  cfg.Templates,
		window:     cfg.GreetingWindow,
		maxChars:   cfg.MaxReplyChars,
		fallback:   cfg.DefaultLanguage,
		now:        cfg.Now,
		logger:     cfg.Logger,
	}
}

// ResolveOptions changes how much state a resolution may touch.
type ResolveOptions struct {
	// DryRun leaves the greeting throttle and answer cache untouched.
	DryRun bool
}

// Resolution is a reply with the signals that produced it.
type Resolution struct {
	Reply   ResolvedReply `json:"reply"`
	Signals Signals       `json:"signals"`
}

// Resolve picks the reply for an event.
func (r *Router) Resolve(ctx context.Context, event InboundEvent) ResolvedReply {
	return r.ResolveWithOptions(ctx, event, ResolveOptions{}).Reply
}

// ResolveWithOptions picks the reply for an event and reports the signals.
func (r *Router) ResolveWithOptions(ctx context.Context, event InboundEvent, opts ResolveOptions) Resolution {
	signals := r.extractor.Extract(event.Text)
	lang := signals.Language
	if lang == "" {
		lang = r.fallback
	}
	fixed := func(kind ReplyKind, source Source) Resolution {
		return Resolution{
			Reply:   ResolvedReply{Text: r.templates.Text(kind, lang, r.fallback), Source: source, Language: lang},
			Signals: signals,
		}
	}

	switch {
	case signals.Phone != "":
		res := fixed(ReplyPhoneAck, SourcePhoneCapture)
		res.Reply.Phone = signals.Phone
		return res
	case signals.IsThanks:
		return fixed(ReplyThanks, SourceIntentKeyword)
	case signals.IsGreeting:
		if r.greetedRecently(ctx, event.SenderID, opts) {
			return fixed(ReplyGreetingShort, SourceGreeting)
		}
		return fixed(ReplyGreetingFull, SourceGreeting)
	case signals.IsAppointmentIntent:
		return fixed(ReplyAppointment, SourceIntentKeyword)
	case signals.IsPriceIntent:
		return fixed(ReplyPrice, SourceIntentKeyword)
	}

	tokens := Tokenize(event.Text)
	if entry, ok := r.faqs.Index().Match(tokens); ok {
		return Resolution{
			Reply:   ResolvedReply{Text: entry.Answer(lang, r.fallback), Source: SourceFAQ, Language: lang, FAQID: entry.ID},
			Signals: signals,
		}
	}

	normalized := NormalizeText(event.Text)
	hash := ""
	if normalized != "" {
		hash = QuestionHash(normalized)
		entry, found, err := r.cache.Get(ctx, hash)
		if err != nil {
			r.logger.Warn("answer cache lookup failed", "error", err)
		}
		if found {
			return Resolution{
				Reply:   ResolvedReply{Text: entry.Answer, Source: SourceCache, Language: lang},
				Signals: signals,
			}
		}
	}

	result := r.generator.Generate(ctx, GenerateRequest{Message: event.Text, Language: lang, MaxChars: r.maxChars})
	if !result.OK() {
		r.logger.Warn("generative fallback failed", "sender_id", event.SenderID, "error", result.Err)
		return fixed(ReplyApology, SourceGenerativeFailure)
	}
	answer, err := r.normalizer.Normalize(result.Text, lang)
	if err != nil {
		r.logger.Warn("generated answer rejected", "sender_id", event.SenderID, "error", err)
		return fixed(ReplyApology, SourceGenerativeFailure)
	}

	if hash != "" && !opts.DryRun {
		err := r.cache.Put(ctx, CacheEntry{Hash: hash, Question: normalized, Answer: answer, CreatedAt: r.now().UTC()})
		if err != nil {
			r.logger.Warn("answer cache write failed", "error", err)
		}
	}
	return Resolution{
		Reply:   ResolvedReply{Text: answer, Source: SourceGenerative, Language: lang},
		Signals: signals,
	}
}

// greetedRecently touches the sender's greeting state and reports whether
// the previous greeting falls inside the window. Throttle errors count as
// "not greeted" so the customer still gets the full welcome.
func (r *Router) greetedRecently(ctx context.Context, senderID string, opts ResolveOptions) bool {
	if opts.DryRun {
		return false
	}
	now := r.now()
	last, found, err := r.throttle.Touch(ctx, senderID, now)
	if err != nil {
		r.logger.Warn("greeting throttle unavailable", "sender_id", senderID, "error", err)
		return false
	}
	return found && now.Sub(last) < r.window
}
