// Package classifier decides how a reply to a fan message should be shaped:
// language, energy, conversational mode and the catalog item to offer, if any.
// It is a pure function of the message and an in-memory snapshot of the
// conversation; nothing is stored between calls.
package classifier

import (
	"github.com/xaenox/chatter-assist/internal/models"
)

type Language string

const (
	Spanish Language = "es"
	English Language = "en"
)

type Energy string

const (
	EnergyExplicit Energy = "explicit"
	EnergyFlirty   Energy = "flirty"
	EnergyCasual   Energy = "casual"
)

type Mode string

const (
	ModeEmpathy         Mode = "EMPATHY"
	ModeConnection      Mode = "CONNECTION"
	ModeWaitingResponse Mode = "WAITING_RESPONSE"
	ModeOffer           Mode = "OFFER"
	ModeNormal          Mode = "NORMAL"
)

// Thresholds tune the mode rules. Zero fields fall back to the defaults.
type Thresholds struct {
	// ConnectionMessages is the history size below which rapport comes first.
	ConnectionMessages int
	// OfferLookback is how many recent messages are scanned for an open offer.
	OfferLookback int
}

const (
	DefaultConnectionMessages = 5
	DefaultOfferLookback      = 5
)

// Input is the snapshot a message is classified against.
type Input struct {
	Message string
	// History is ordered oldest first.
	History      []models.ChatMessage
	Transactions []models.Transaction
	// Catalog is expected sorted by ascending nivel; order decides ties.
	Catalog []models.CatalogItem
}

// Result is the outcome of classifying one message.
type Result struct {
	Language         Language            `json:"language"`
	Energy           Energy              `json:"energy"`
	IsContentRequest bool                `json:"is_content_request"`
	IsSeriousTopic   bool                `json:"is_serious_topic"`
	Mode             Mode                `json:"mode"`
	OfferedItem      *models.CatalogItem `json:"offered_item"`
	MessageCount     int                 `json:"message_count"`
	AvailableCount   int                 `json:"available_count"`
}

// CanOffer reports whether any catalog item is still available to the fan.
func (r Result) CanOffer() bool {
	return r.AvailableCount > 0
}

type Classifier struct {
	keywords   Keywords
	thresholds Thresholds
}

func NewClassifier(keywords Keywords, thresholds Thresholds) *Classifier {
	if thresholds.ConnectionMessages <= 0 {
		thresholds.ConnectionMessages = DefaultConnectionMessages
	}
	if thresholds.OfferLookback <= 0 {
		thresholds.OfferLookback = DefaultOfferLookback
	}
	return &Classifier{
		keywords:   keywords,
		thresholds: thresholds,
	}
}

// Default returns a classifier using the built-in keyword tables.
func Default() *Classifier {
	return NewClassifier(DefaultKeywords(), Thresholds{})
}

func (c *Classifier) Keywords() Keywords {
	return c.keywords
}

func (c *Classifier) DetectLanguage(message string) Language {
	if containsAny(message, c.keywords.Spanish) {
		return Spanish
	}
	return English
}

func (c *Classifier) DetectEnergy(message string) Energy {
	switch {
	case containsAny(message, c.keywords.Explicit):
		return EnergyExplicit
	case containsAny(message, c.keywords.Flirty):
		return EnergyFlirty
	default:
		return EnergyCasual
	}
}

func (c *Classifier) IsContentRequest(message string) bool {
	return containsAny(message, c.keywords.Request)
}

func (c *Classifier) IsSeriousTopic(message string) bool {
	return containsAny(message, c.keywords.Serious)
}

// signals are the facts the mode rules are evaluated over.
type signals struct {
	request      bool
	serious      bool
	outstanding  bool
	messageCount int
	available    int
}

type modeRule struct {
	mode  Mode
	match func(s signals, t Thresholds) bool
}

// modeRules are evaluated in order, the first match wins.
var modeRules = []modeRule{
	{ModeEmpathy, func(s signals, _ Thresholds) bool {
		return s.serious
	}},
	{ModeConnection, func(s signals, t Thresholds) bool {
		return s.messageCount < t.ConnectionMessages && !s.request
	}},
	{ModeWaitingResponse, func(s signals, _ Thresholds) bool {
		return s.outstanding && !s.request
	}},
	{ModeOffer, func(s signals, _ Thresholds) bool {
		return s.request && s.available > 0
	}},
}

func decideMode(s signals, t Thresholds) Mode {
	for _, rule := range modeRules {
		if rule.match(s, t) {
			return rule.mode
		}
	}
	return ModeNormal
}

// Classify computes the Result for in. Identical inputs always give
// identical results.
func (c *Classifier) Classify(in Input) Result {
	available := AvailableItems(in.Catalog, PurchasedOfferIDs(in.Transactions))

	res := Result{
		Language:         c.DetectLanguage(in.Message),
		Energy:           c.DetectEnergy(in.Message),
		IsContentRequest: c.IsContentRequest(in.Message),
		IsSeriousTopic:   c.IsSeriousTopic(in.Message),
		MessageCount:     len(in.History),
		AvailableCount:   len(available),
	}

	res.Mode = decideMode(signals{
		request:      res.IsContentRequest,
		serious:      res.IsSeriousTopic,
		outstanding:  OutstandingOffer(in.History, c.thresholds.OfferLookback, c.keywords.Offer),
		messageCount: res.MessageCount,
		available:    res.AvailableCount,
	}, c.thresholds)

	if res.Mode == ModeOffer {
		res.OfferedItem = SelectOffer(in.Message, res.Energy, available)
	}

	return res
}
