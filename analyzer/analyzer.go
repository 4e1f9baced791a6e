// Package analyzer turns a raw message into a Command: it routes the text to
// the right language table, then runs classification, sentiment and extraction.
package analyzer

import (
	"log/slog"
	"remind-lab/domain"
	"remind-lab/extraction"
	"remind-lab/intent"
	"remind-lab/lexicon"
	"time"

	"github.com/abadojack/whatlanggo"
)

var supported = map[whatlanggo.Lang]domain.Language{
	whatlanggo.Spa: domain.Spanish,
	whatlanggo.Eng: domain.English,
}

type pipeline struct {
	classifier *intent.Classifier
	scorer     *intent.SentimentScorer
	extractor  *extraction.Extractor
}

// Analyzer is stateless after construction and safe for concurrent use.
type Analyzer struct {
	set       *lexicon.Set
	pipelines map[domain.Language]pipeline
	options   whatlanggo.Options
	log       *slog.Logger
}

func New(set *lexicon.Set, log *slog.Logger) *Analyzer {
	whitelist := make(map[whatlanggo.Lang]bool)
	pipelines := make(map[domain.Language]pipeline)
	for lang, code := range supported {
		if !set.Has(code) {
			continue
		}
		whitelist[lang] = true
		table := set.Get(code)
		pipelines[code] = pipeline{
			classifier: intent.NewClassifier(table),
			scorer:     intent.NewSentimentScorer(table),
			extractor:  extraction.NewExtractor(table),
		}
	}
	return &Analyzer{
		set:       set,
		pipelines: pipelines,
		options:   whatlanggo.Options{Whitelist: whitelist},
		log:       log,
	}
}

// DetectLanguage trusts the detector only when it is reliable. Otherwise the
// user's preferred language is used, then the configured fallback.
func (a *Analyzer) DetectLanguage(text string, preferred domain.Language) domain.Language {
	info := whatlanggo.DetectWithOptions(text, a.options)
	if info.IsReliable() {
		if lang, ok := supported[info.Lang]; ok {
			if _, loaded := a.pipelines[lang]; loaded {
				return lang
			}
		}
	}
	if _, ok := a.pipelines[preferred]; ok {
		return preferred
	}
	return a.set.Fallback()
}

// Analyze classifies text and, for intents that carry entities, extracts them
// relative to now (expected in the user's timezone). It never fails.
// When the detected language finds no intent but the preferred one does,
// the keyword evidence wins over the detector.
func (a *Analyzer) Analyze(text string, preferred domain.Language, now time.Time) domain.Command {
	lang := a.DetectLanguage(text, preferred)
	cmd := a.analyzeWith(lang, text, now)
	if cmd.Intent == domain.Conversation && lang != preferred {
		if _, ok := a.pipelines[preferred]; ok {
			if alt := a.analyzeWith(preferred, text, now); alt.Intent != domain.Conversation {
				cmd = alt
			}
		}
	}
	a.log.Debug("Message analyzed", "intent", cmd.Intent, "sentiment", cmd.Sentiment, "language", cmd.Language)
	return cmd
}

func (a *Analyzer) analyzeWith(lang domain.Language, text string, now time.Time) domain.Command {
	p := a.pipelines[lang]
	cmd := domain.Command{
		Intent:    p.classifier.Classify(text),
		Sentiment: p.scorer.Score(text),
		Language:  lang,
	}
	if cmd.Intent.WantsEntities() {
		cmd.Entities = p.extractor.Extract(text, cmd.Intent, now)
	}
	return cmd
}

// Table exposes the language table used for replies and notifications.
func (a *Analyzer) Table(lang domain.Language) *lexicon.Table {
	return a.set.Get(lang)
}
