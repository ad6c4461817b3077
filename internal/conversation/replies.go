package conversation

import (
	"fmt"
	"strings"
)

// ReplyKind names a fixed reply.
type ReplyKind string

const (
	ReplyPhoneAck      ReplyKind = "phone_ack"
	ReplyThanks        ReplyKind = "thanks"
	ReplyGreetingFull  ReplyKind = "greeting_full"
	ReplyGreetingShort ReplyKind = "greeting_short"
	ReplyAppointment   ReplyKind = "appointment"
	ReplyPrice         ReplyKind = "price"
	ReplyApology       ReplyKind = "apology"
)

// ReplyTemplates holds the fixed replies per kind and language.
type ReplyTemplates map[ReplyKind]map[Language]string

// DefaultReplyTemplates returns the built-in replies. contactPhone is the
// clinic number customers are redirected to for bookings and prices.
func DefaultReplyTemplates(contactPhone string) ReplyTemplates {
	contactPhone = strings.TrimSpace(contactPhone)
	if contactPhone == "" {
		contactPhone = "+998 71 200 00 00"
	}
	return ReplyTemplates{
		ReplyPhoneAck: {
			LanguageUzbek:   "Rahmat! Raqamingizni qabul qildik, administratorimiz tez orada siz bilan bog'lanadi.",
			LanguageRussian: "Спасибо! Мы получили ваш номер, администратор скоро с вами свяжется.",
		},
		ReplyThanks: {
			LanguageUzbek:   "Arzimaydi! Yana savollaringiz bo'lsa, bemalol yozing.",
			LanguageRussian: "Пожалуйста! Если появятся вопросы, пишите.",
		},
		ReplyGreetingFull: {
			LanguageUzbek:   "Va alaykum assalom! Hijoma markazimizga xush kelibsiz. Hijoma, unga tayyorgarlik va qabul haqidagi savollaringizga javob beraman. Sizga qanday yordam bera olaman?",
			LanguageRussian: "Здравствуйте! Добро пожаловать в наш центр хиджамы. Отвечу на вопросы о хиджаме, подготовке и приёме. Чем могу помочь?",
		},
		ReplyGreetingShort: {
			LanguageUzbek:   "Va alaykum assalom! Sizga qanday yordam bera olaman?",
			LanguageRussian: "Здравствуйте! Чем могу помочь?",
		},
		ReplyAppointment: {
			LanguageUzbek:   fmt.Sprintf("Qabulga yozilish uchun telefon raqamingizni qoldiring yoki %s raqamiga qo'ng'iroq qiling.", contactPhone),
			LanguageRussian: fmt.Sprintf("Чтобы записаться, оставьте свой номер телефона или позвоните по номеру %s.", contactPhone),
		},
		ReplyPrice: {
			LanguageUzbek:   fmt.Sprintf("Narx muolaja turiga bog'liq. Aniq ma'lumot uchun telefon raqamingizni qoldiring yoki %s raqamiga qo'ng'iroq qiling.", contactPhone),
			LanguageRussian: fmt.Sprintf("Стоимость зависит от вида процедуры. Оставьте номер телефона или позвоните по номеру %s, и мы всё подскажем.", contactPhone),
		},
		ReplyApology: {
			LanguageUzbek:   "Kechirasiz, hozir javob bera olmadim. Telefon raqamingizni qoldiring, administratorimiz siz bilan bog'lanadi.",
			LanguageRussian: "Извините, сейчас не получилось ответить. Оставьте номер телефона, и администратор свяжется с вами.",
		},
	}
}

// Text returns the reply for kind in lang, or in fallback when lang has none.
func (t ReplyTemplates) Text(kind ReplyKind, lang, fallback Language) string {
	byLang := t[kind]
	if text := byLang[lang]; text != "" {
		return text
	}
	return byLang[fallback]
}
