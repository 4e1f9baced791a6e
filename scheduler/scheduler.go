// Package scheduler evaluates reminders and per-user daily messages on every
// tick and hands the resulting notifications to a Notifier.
//
// Firing is at-most-once: a fired flag is persisted before the notification
// is dispatched. This only holds for a single running scheduler; two
// instances sharing the same storage will both fire.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"remind-lab/dialog"
	"remind-lab/domain"
	"remind-lab/lexicon"
	"remind-lab/observability"
	"remind-lab/repositories"
	"remind-lab/weather"
	"sort"
	"sync"
	"time"
)

const DefaultWeatherDigestTime = "08:00"

type Config struct {
	// WeatherDigestTime is the local "HH:MM" at which the weather digest goes out.
	WeatherDigestTime string
	ForecastDays      int
}

type Scheduler struct {
	reminders   repositories.IReminderRepository
	preferences repositories.IPreferenceRepository
	weather     weather.Provider
	notifier    Notifier
	responder   *dialog.Responder
	lexicons    *lexicon.Set
	source      TickSource
	cfg         Config
	metrics     *observability.Metrics
	log         *slog.Logger

	tickMu   sync.Mutex
	stop     chan struct{}
	stopOnce sync.Once
}

func NewScheduler(
	reminders repositories.IReminderRepository,
	preferences repositories.IPreferenceRepository,
	weather weather.Provider,
	notifier Notifier,
	responder *dialog.Responder,
	lexicons *lexicon.Set,
	source TickSource,
	cfg Config,
	metrics *observability.Metrics,
	log *slog.Logger) *Scheduler {
	if cfg.WeatherDigestTime == "" {
		cfg.WeatherDigestTime = DefaultWeatherDigestTime
	}
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = 3
	}
	return &Scheduler{
		reminders:   reminders,
		preferences: preferences,
		weather:     weather,
		notifier:    notifier,
		responder:   responder,
		lexicons:    lexicons,
		source:      source,
		cfg:         cfg,
		metrics:     metrics,
		log:         log,
		stop:        make(chan struct{}),
	}
}

// Run evaluates one tick per instant delivered by the tick source until ctx
// is done or Stop is called.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.source.Stop()
			return nil
		case <-s.stop:
			s.source.Stop()
			return nil
		case at, ok := <-s.source.C():
			if !ok {
				return nil
			}
			if err := s.Tick(ctx, at); err != nil {
				s.log.Error("Scheduler tick failed", "at", at, "error", err)
			}
		}
	}
}

// Stop halts the ticks. In-flight dispatches are left to the Notifier.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Tick runs one evaluation pass at now. Only a storage failure while listing
// is returned; failures of a single user or reminder are logged and skipped.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	start := time.Now()
	defer func() { s.metrics.ObserveTick(time.Since(start).Seconds()) }()

	prefs, err := s.preferences.List()
	if err != nil {
		return fmt.Errorf("list preferences: %w", err)
	}
	active, err := s.reminders.ListActive()
	if err != nil {
		return fmt.Errorf("list active reminders: %w", err)
	}

	users := make(map[string]domain.UserPreference, len(prefs))
	for _, p := range prefs {
		users[p.Phone] = p
	}
	owned := make(map[string][]domain.Reminder)
	for _, r := range active {
		owned[r.Phone] = append(owned[r.Phone], r)
		if _, ok := users[r.Phone]; !ok {
			users[r.Phone] = domain.DefaultPreference(r.Phone)
		}
	}
	phones := make([]string, 0, len(users))
	for phone := range users {
		phones = append(phones, phone)
	}
	sort.Strings(phones)

	for _, phone := range phones {
		s.evaluateUser(ctx, users[phone], owned[phone], now)
	}
	return nil
}

func (s *Scheduler) evaluateUser(ctx context.Context, pref domain.UserPreference, reminders []domain.Reminder, now time.Time) {
	local := now.In(pref.Location())
	clock := local.Format("15:04")
	lex := s.lexicons.Get(pref.Language).Lexicon

	if pref.WantsGreeting() && clock == pref.GreetingTime {
		s.isolate("greeting", []any{"phone", pref.Phone}, func() error {
			return s.daily(ctx, pref, domain.GreetingDigest, local, func() (string, error) {
				return s.composeGreeting(ctx, lex, pref, reminders, local), nil
			})
		})
	}
	if pref.WantsWeather() && clock == s.cfg.WeatherDigestTime {
		s.isolate("weather", []any{"phone", pref.Phone}, func() error {
			return s.daily(ctx, pref, domain.WeatherDigest, local, func() (string, error) {
				report, err := s.weather.Report(ctx, pref.WeatherLocation, s.cfg.ForecastDays)
				if err != nil {
					return "", err
				}
				return weather.Digest(lex, report), nil
			})
		})
	}
	for _, r := range reminders {
		s.isolate("reminder", []any{"phone", pref.Phone, "id", r.ID}, func() error {
			return s.evaluateReminder(ctx, r, pref, lex, now)
		})
	}
}

// evaluateReminder walks one reminder through its occurrence state machine.
func (s *Scheduler) evaluateReminder(ctx context.Context, r domain.Reminder, pref domain.UserPreference, lex lexicon.Lexicon, now time.Time) error {
	loc := pref.Location()
	if r.Timezone != "" {
		loc = domain.LoadLocation(r.Timezone)
	}
	current := minute(now.In(loc))

	if r.IsRecurring() && minute(r.Occurrence).Before(current) {
		rolled, alive, err := s.rollForward(r, loc, current)
		if err != nil || !alive {
			return err
		}
		r = rolled
	}

	occurrence := minute(r.Occurrence)
	if !r.FiredPreNotice && !r.FiredDue && occurrence.Sub(current) == domain.PreNoticeLead {
		if err := s.reminders.MarkFired(r.ID, domain.PreNotice); err != nil {
			return err
		}
		if pref.InQuietHours(now.In(pref.Location())) {
			s.log.Debug("Pre-notice held back by quiet hours", "id", r.ID, "phone", r.Phone)
		} else {
			s.notify(ctx, r, domain.PreNotice, reminderText(lex, r, domain.PreNotice, loc))
		}
	}

	if r.FiredDue || !occurrence.Equal(current) {
		return nil
	}
	if err := s.reminders.MarkFired(r.ID, domain.DueNotice); err != nil {
		return err
	}
	s.notify(ctx, r, domain.DueNotice, reminderText(lex, r, domain.DueNotice, loc))

	if !r.IsRecurring() {
		return nil
	}
	next, index := r.Next(loc)
	return s.advance(r, next, index)
}

// rollForward moves a recurring reminder whose occurrence went by unfired,
// typically after downtime, to its first occurrence not in the past.
// Nothing is sent for the skipped occurrences.
func (s *Scheduler) rollForward(r domain.Reminder, loc *time.Location, current time.Time) (domain.Reminder, bool, error) {
	next, index := r.Occurrence, r.OccurrenceIndex
	for minute(next).Before(current) {
		index++
		next = r.OccurrenceAt(index, loc)
	}
	s.log.Info("Rolling reminder forward", "id", r.ID, "from", r.Occurrence, "to", next)
	if err := s.advance(r, next, index); err != nil {
		return r, false, err
	}
	if !r.Recurrence.Allows(next) {
		return r, false, nil
	}
	r.Occurrence, r.OccurrenceIndex = next, index
	r.FiredPreNotice, r.FiredDue = false, false
	return r, true, nil
}

// advance reschedules to next, or retires the reminder once next is past the end date.
func (s *Scheduler) advance(r domain.Reminder, next time.Time, index int) error {
	if !r.Recurrence.Allows(next) {
		s.log.Info("Recurring reminder reached its end date", "id", r.ID, "next", next)
		return s.reminders.MarkInactive(r.ID)
	}
	return s.reminders.Reschedule(r.ID, next, index)
}

func (s *Scheduler) notify(ctx context.Context, r domain.Reminder, kind domain.NotificationKind, text string) {
	for _, recipient := range r.Recipients() {
		n := Notification{Recipient: recipient, Kind: string(kind), Text: text}
		if err := s.notifier.Dispatch(ctx, n); err != nil {
			s.log.Warn("Notification not dispatched", "id", r.ID, "to", recipient, "kind", kind, "error", err)
		}
	}
}

// daily sends a once-a-day message. The ledger entry is taken before the
// message is composed, so a failure loses that day's message instead of
// risking a second one.
func (s *Scheduler) daily(ctx context.Context, pref domain.UserPreference, kind domain.DigestKind, local time.Time, compose func() (string, error)) error {
	first, err := s.preferences.MarkDailySent(pref.Phone, kind, local.Format(time.DateOnly))
	if err != nil {
		return err
	}
	if !first {
		return nil
	}
	text, err := compose()
	if err != nil {
		return err
	}
	return s.notifier.Dispatch(ctx, Notification{Recipient: pref.Phone, Kind: string(kind), Text: text})
}

// composeGreeting builds the morning message. A weather failure only drops
// the weather section.
func (s *Scheduler) composeGreeting(ctx context.Context, lex lexicon.Lexicon, pref domain.UserPreference, reminders []domain.Reminder, local time.Time) string {
	conditions := ""
	if pref.WeatherLocation != "" {
		report, err := s.weather.Report(ctx, pref.WeatherLocation, 1)
		if err != nil {
			s.log.Warn("Greeting sent without weather", "phone", pref.Phone, "error", err)
		} else {
			conditions = weather.FormatCurrent(lex, report.Current)
		}
	}
	return joinSections(
		s.responder.MorningGreeting(pref.Language),
		conditions,
		agenda(lex, reminders, local),
		lex.Notifications.Closing,
	)
}

func (s *Scheduler) isolate(unit string, attrs []any, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Scheduler unit panicked", append(attrs, "unit", unit, "panic", r)...)
		}
	}()
	if err := fn(); err != nil {
		s.log.Error("Scheduler unit failed", append(attrs, "unit", unit, "error", err)...)
	}
}

func minute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}
