package scheduler

import (
	"remind-lab/domain"
	"remind-lab/lexicon"
	"sort"
	"strings"
	"time"
)

// reminderText renders the pre-notice or due message of a reminder, with the
// occurrence shown in loc.
func reminderText(lex lexicon.Lexicon, r domain.Reminder, kind domain.NotificationKind, loc *time.Location) string {
	recurrence := ""
	if r.IsRecurring() {
		recurrence = lexicon.Render(lex.Notifications.Recurrence, "frequency", lex.FrequencyName(r.Recurrence.Frequency))
	}
	shared := ""
	if r.IsShared() {
		shared = lex.Notifications.Shared
	}
	template := lex.Notifications.Due
	if kind == domain.PreNotice {
		template = lex.Notifications.PreNotice
	}
	return lexicon.Render(template,
		"title", r.Title,
		"time", r.Occurrence.In(loc).Format("15:04"),
		"recurrence", recurrence,
		"shared", shared,
	)
}

// agenda lists the reminders whose current occurrence falls on the local day
// of now, earliest first.
func agenda(lex lexicon.Lexicon, reminders []domain.Reminder, now time.Time) string {
	loc := now.Location()
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	today := make([]domain.Reminder, 0, len(reminders))
	for _, r := range reminders {
		occ := r.Occurrence.In(loc)
		if !occ.Before(start) && occ.Before(end) {
			today = append(today, r)
		}
	}
	if len(today) == 0 {
		return lex.Notifications.AgendaEmpty
	}
	sort.SliceStable(today, func(i, j int) bool { return today[i].Occurrence.Before(today[j].Occurrence) })

	lines := make([]string, 0, len(today))
	for _, r := range today {
		shared, recurrence := "", ""
		if r.IsShared() {
			shared = lex.Notifications.AgendaShared
		}
		if r.IsRecurring() {
			recurrence = lexicon.Render(lex.Notifications.AgendaRecurrence, "frequency", lex.FrequencyName(r.Recurrence.Frequency))
		}
		lines = append(lines, lexicon.Render(lex.Notifications.AgendaLine,
			"time", r.Occurrence.In(loc).Format("15:04"),
			"title", r.Title,
			"shared", shared,
			"recurrence", recurrence,
		))
	}
	return lex.Notifications.AgendaHeader + strings.Join(lines, "\n")
}

// joinSections glues the non-empty sections of a composed message.
func joinSections(sections ...string) string {
	kept := sections[:0]
	for _, s := range sections {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n\n")
}
