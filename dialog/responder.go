package dialog

import (
	"math/rand/v2"
	"remind-lab/domain"
	"remind-lab/lexicon"
	"strings"
)

// Selector picks an index in [0, n). n is always positive.
type Selector func(n int) int

// RandomSelector picks uniformly.
func RandomSelector() Selector {
	return rand.IntN
}

// FixedSelector always returns i, clamped to the range.
func FixedSelector(i int) Selector {
	return func(n int) int {
		if i >= n {
			return n - 1
		}
		return i
	}
}

type Input struct {
	Intent    domain.Intent
	Sentiment domain.Sentiment
	Entities  domain.Entities
	Context   string
	Language  domain.Language
}

// Responder renders replies from the language tables. It holds no mutable state.
type Responder struct {
	set    *lexicon.Set
	choose Selector
}

func NewResponder(set *lexicon.Set, choose Selector) *Responder {
	if choose == nil {
		choose = RandomSelector()
	}
	return &Responder{set: set, choose: choose}
}

// Respond builds the reply to an analysed message. Dates in Entities are
// expected in the user's timezone already.
func (r *Responder) Respond(in Input) string {
	table := r.set.Get(in.Language)
	lex := table.Lexicon

	var b strings.Builder
	set, known := lex.Responses.Intents[in.Intent]
	switch {
	case !known:
		b.WriteString(lex.Responses.DefaultBase)
	case len(set.Variants) > 0:
		b.WriteString(set.Variants[r.choose(len(set.Variants))])
	default:
		b.WriteString(set.Base)
	}
	b.WriteString(set.Modifier(in.Sentiment))

	if in.Intent == domain.Conversation && in.Context != "" {
		b.WriteString(lexicon.Render(lex.Fragments.Continuity, "context", in.Context))
	}

	if dt := in.Entities.DateTime; dt != nil {
		task := in.Entities.Task
		if task == "" {
			task = lex.Fragments.TaskFallback
		}
		b.WriteString(lexicon.Render(lex.Fragments.DateTime, "task", task, "date", lex.LongDate(*dt)))
	}

	if rec := in.Entities.Recurrence; rec != nil {
		b.WriteString(lexicon.Render(lex.Fragments.Recurrence, "frequency", lex.FrequencyName(rec.Frequency)))
		if rec.EndDate != nil {
			b.WriteString(lexicon.Render(lex.Fragments.Until, "date", lex.ShortDate(*rec.EndDate)))
		}
		b.WriteString(lex.Fragments.RecurrenceEnd)
	}

	suggestion, ok := lex.Suggestions.Intents[in.Intent]
	if !ok {
		suggestion = lex.Suggestions.Default
	}
	reply := strings.TrimSpace(b.String())
	if reply == "" {
		return suggestion
	}
	return reply + "\n\n" + suggestion
}

// MorningGreeting picks one of the language's morning greetings.
func (r *Responder) MorningGreeting(lang domain.Language) string {
	greetings := r.set.Get(lang).MorningGreetings
	if len(greetings) == 0 {
		return ""
	}
	return greetings[r.choose(len(greetings))]
}
