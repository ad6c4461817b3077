package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordIndex_Lookup(t *testing.T) {
	idx := NewKeywordIndex(DefaultKeywordSets())

	tests := []struct {
		name string
		text string
		want []Category
	}{
		{"exact word", "salom", []Category{CategoryGreeting}},
		{"phrase", "Assalomu alaykum", []Category{CategoryGreeting}},
		{"prefix stem", "narxlari qanaqa", []Category{CategoryPrice}},
		{"multi word price", "bu necha pul", []Category{CategoryPrice}},
		{"whole word only", "salomatlik uchun foydali", nil},
		{"stem alone", "alaykum assalomu", []Category{CategoryGreeting}},
		{"several categories", "salom, narxi qancha va qachon yozilsa bo'ladi", []Category{CategoryGreeting, CategoryPrice, CategoryAppointment}},
		{"nothing", "hijoma haqida", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := idx.Lookup(Tokenize(tt.text))
			assert.Len(t, match.Categories, len(tt.want))
			for _, c := range tt.want {
				assert.True(t, match.Has(c), "expected %s", c)
			}
		})
	}
}

func TestKeywordIndex_LanguageHits(t *testing.T) {
	idx := NewKeywordIndex(DefaultKeywordSets())
	match := idx.Lookup(Tokenize("Здравствуйте, спасибо"))
	assert.Equal(t, 2, match.LanguageHits[LanguageRussian])
	assert.Zero(t, match.LanguageHits[LanguageUzbek])
}

func TestKeywordIndex_SkipsEmptyKeywords(t *testing.T) {
	idx := NewKeywordIndex(KeywordSets{
		CategoryPrice: {LanguageUzbek: {"", "  ", "*"}},
	})
	assert.Empty(t, idx.exact)
	assert.Empty(t, idx.patterns)
}

func TestKeywordIndex_NilSafe(t *testing.T) {
	var idx *KeywordIndex
	assert.False(t, idx.Lookup([]string{"salom"}).Has(CategoryGreeting))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"o'z", "narxi", "qancha"}, Tokenize("O‘z narxi, qancha?!"))
	assert.Equal(t, []string{"hijoma"}, Tokenize("  'hijoma'  "))
	assert.Empty(t, Tokenize("?!"))
}

func TestNormalizeTextAndHash(t *testing.T) {
	a := NormalizeText("Hijoma   qanday  qilinadi?")
	b := NormalizeText("hijoma qanday qilinadi")
	assert.Equal(t, "hijoma qanday qilinadi", a)
	assert.Equal(t, QuestionHash(a), QuestionHash(b))
	assert.Len(t, QuestionHash(a), 64)
	assert.NotEqual(t, QuestionHash(a), QuestionHash("hijoma qancha"))
}
