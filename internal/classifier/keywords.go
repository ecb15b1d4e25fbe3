package classifier

import "strings"

// SpanishMarkers switch the detected language to Spanish.
var SpanishMarkers = []string{"hola", "como", "que", "amor", "papi", "bb", "hermosa"}

// ExplicitWords mark an explicit message. Checked before FlirtyWords.
// Matching is by substring, so short fragments that occur inside everyday
// words (cum, wet, culo, coger) are left out.
var ExplicitWords = []string{
	"horny", "naked", "nude", "nudes", "fuck", "cumming", "dick", "pussy", "tits", "boobs",
	"so wet", "hard for you", "caliente", "cachondo", "cachonda", "desnuda", "verga", "tetas",
	"tu culo", "mojada", "follar",
}

// FlirtyWords mark a flirty message.
var FlirtyWords = []string{
	"sexy", "so cute", "cutie", "beautiful", "gorgeous", "babe", "baby", "kiss", "miss you", "crush",
	"handsome", "linda", "guapa", "preciosa", "hermosa", "bebé", "beso", "mi amor", "mami",
}

// RequestWords mark a request for content.
var RequestWords = []string{
	"show", "send", "pic", "photo", "video", "ppv", "twerk",
	"ver", "envia", "envía", "manda", "mandame", "foto", "muestra", "ensena", "enseña",
}

// SeriousWords mark a serious topic that needs empathy and no selling.
var SeriousWords = []string{
	"died", "death", "is dead", "passed away", "funeral", "cancer", "hospital", "sick", "illness",
	"depressed", "depression", "sad", "suicide", "grief",
	"murio", "murió", "muerte", "fallecio", "falleció", "enfermo", "enferma",
	"enfermedad", "triste", "depresion", "depresión", "cáncer",
}

// OfferMarkers in a model message mean an offer is already on the table.
var OfferMarkers = []string{"$", "video", "foto"}

// Keywords groups the tables used by a Classifier.
type Keywords struct {
	Spanish  []string `yaml:"spanish"`
	Explicit []string `yaml:"explicit"`
	Flirty   []string `yaml:"flirty"`
	Request  []string `yaml:"request"`
	Serious  []string `yaml:"serious"`
	Offer    []string `yaml:"offer_markers"`
}

// DefaultKeywords returns copies of the built-in tables.
func DefaultKeywords() Keywords {
	return Keywords{
		Spanish:  clone(SpanishMarkers),
		Explicit: clone(ExplicitWords),
		Flirty:   clone(FlirtyWords),
		Request:  clone(RequestWords),
		Serious:  clone(SeriousWords),
		Offer:    clone(OfferMarkers),
	}
}

// containsAny reports whether text contains any of words, ignoring case.
// Blank words never match.
func containsAny(text string, words []string) bool {
	text = strings.ToLower(text)
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

func clone(words []string) []string {
	out := make([]string, len(words))
	copy(out, words)
	return out
}
