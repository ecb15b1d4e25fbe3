package drafter

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xaenox/chatter-assist/internal/classifier"
	"github.com/xaenox/chatter-assist/internal/models"
)

// PromptInput is what the instruction block is built from.
type PromptInput struct {
	Model      models.Model
	Fan        models.Fan
	Result     classifier.Result
	OfferPrice decimal.Decimal
}

var modeStrategies = map[classifier.Mode]string{
	classifier.ModeEmpathy: `The fan is going through something serious.
Be warm, supportive and genuine. Do not flirt, do not sell, do not mention any content.`,
	classifier.ModeConnection: `The conversation is just starting.
Build rapport: ask about the fan, show curiosity, keep it light. Do not offer content yet.`,
	classifier.ModeWaitingResponse: `You already offered content and the fan has not answered the offer.
Do not repeat the offer or send a new one. Keep the chat going naturally.`,
	classifier.ModeOffer: `The fan asked for content. Offer the item below naturally, tease it,
and state the price exactly as given. Never invent other content or prices.`,
	classifier.ModeNormal: `Keep the conversation flowing, match the fan's energy and keep them engaged.
Do not offer content unless the fan asks for it.`,
}

var tierNames = map[int]string{
	models.TierNew:   "new fan",
	models.TierMid:   "regular spender",
	models.TierWhale: "top spender",
}

// BuildInstructions renders the system instructions for one draft.
func BuildInstructions(in PromptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s", in.Model.Name)
	if in.Model.Niche != "" {
		fmt.Fprintf(&b, ", a content creator (%s)", in.Model.Niche)
	}
	b.WriteString(", chatting privately with a fan. Write the next message as her: short, natural, in first person.\n\n")

	tier, ok := tierNames[in.Fan.Tier]
	if !ok {
		tier = "fan"
	}
	fmt.Fprintf(&b, "FAN: %s, %s, spent %s so far.\n", fanName(in.Fan), tier, in.Fan.SpentTotal.StringFixed(2))
	fmt.Fprintf(&b, "FAN ENERGY: %s. Match it without going beyond it.\n", in.Result.Energy)
	fmt.Fprintf(&b, "MODE: %s\n%s\n", in.Result.Mode, modeStrategies[in.Result.Mode])

	if item := in.Result.OfferedItem; item != nil {
		fmt.Fprintf(&b, "\nCONTENT TO OFFER:\n- title: %s\n- description: %s\n- level: %d\n- price: $%s\n",
			item.Title, item.Description, item.Nivel, in.OfferPrice.StringFixed(2))
	}

	if in.Result.Language == classifier.Spanish {
		b.WriteString("\nResponde en español.\n")
	} else {
		b.WriteString("\nReply in English.\n")
	}

	b.WriteString(`
Answer ONLY with valid JSON, no text outside it:
{"texto":"your message"}
`)

	return b.String()
}

func fanName(f models.Fan) string {
	if f.Name != "" {
		return f.Name
	}
	return "fan " + f.FanID
}
