package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"remind-lab/analytics"
	"remind-lab/domain"
	"remind-lab/errors"
	"remind-lab/observability"
	"remind-lab/repositories"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Recorder counts usage per phone.
type Recorder interface {
	Incr(ctx context.Context, phone string, c analytics.Counter) error
}

type IReminderService interface {
	Create(ctx context.Context, request ReminderRequest) (domain.Reminder, error)
	CreateFromCommand(ctx context.Context, msg domain.RawMessage, cmd domain.Command, timezone string) (domain.Reminder, error)
	List(phone string) ([]domain.Reminder, error)
	Complete(ctx context.Context, id uuid.UUID) (domain.Reminder, error)
	Share(ctx context.Context, id uuid.UUID, phones []string) (domain.Reminder, error)
}

// ReminderRequest mirrors the fields of a reminder command.
// An empty Timezone falls back to the owner's preference.
type ReminderRequest struct {
	Phone         string
	Title         string
	Description   string
	DateTime      *time.Time
	Timezone      string
	Frequency     domain.Frequency
	EndDate       *time.Time
	Priority      domain.Priority
	Category      string
	AttachmentURL string
	SharedWith    []string
}

type ReminderService struct {
	reminders   repositories.IReminderRepository
	preferences repositories.IPreferenceRepository
	recorder    Recorder
	metrics     *observability.Metrics
	log         *slog.Logger
	now         func() time.Time
}

func NewReminderService(
	reminders repositories.IReminderRepository,
	preferences repositories.IPreferenceRepository,
	recorder Recorder,
	metrics *observability.Metrics,
	log *slog.Logger,
) *ReminderService {
	return &ReminderService{
		reminders:   reminders,
		preferences: preferences,
		recorder:    recorder,
		metrics:     metrics,
		log:         log,
		now:         time.Now,
	}
}

func (s *ReminderService) Create(ctx context.Context, request ReminderRequest) (domain.Reminder, error) {
	phone, err := NormalizePhone(request.Phone)
	if err != nil {
		return domain.Reminder{}, err
	}
	title := strings.TrimSpace(request.Title)
	if title == "" {
		return domain.Reminder{}, errors.ErrMissingTitle
	}
	if request.DateTime == nil {
		return domain.Reminder{}, errors.ErrMissingDateTime
	}
	if request.Frequency != "" && !request.Frequency.Valid() {
		return domain.Reminder{}, fmt.Errorf("%w: %q", errors.ErrUnknownFrequency, request.Frequency)
	}
	timezone, loc, err := s.resolveZone(phone, request.Timezone)
	if err != nil {
		return domain.Reminder{}, err
	}
	shared, err := normalizeRecipients(phone, request.SharedWith)
	if err != nil {
		return domain.Reminder{}, err
	}

	at := request.DateTime.In(loc).Truncate(time.Minute)
	reminder := domain.Reminder{
		ID:              uuid.New(),
		Phone:           phone,
		Title:           title,
		Description:     strings.TrimSpace(request.Description),
		FirstOccurrence: at,
		Occurrence:      at,
		Priority:        lo.CoalesceOrEmpty(request.Priority, domain.Medium),
		Category:        request.Category,
		SharedWith:      shared,
		Timezone:        timezone,
		AttachmentURL:   request.AttachmentURL,
		CreatedAt:       s.now().UTC(),
	}
	if request.Frequency != "" {
		reminder.Recurrence = &domain.Recurrence{Frequency: request.Frequency}
		if request.EndDate != nil {
			reminder.Recurrence.EndDate = lo.ToPtr(request.EndDate.In(loc))
		}
	}

	if err := s.reminders.Create(reminder); err != nil {
		return domain.Reminder{}, err
	}
	s.metrics.ReminderCreated()
	s.count(ctx, phone, analytics.Reminders)
	s.log.Debug("Reminder created", "id", reminder.ID, "phone", phone, "at", at)
	return reminder, nil
}

// CreateFromCommand persists the reminder a message asked for. The extracted
// task becomes the title, the whole message text when nothing was extracted.
func (s *ReminderService) CreateFromCommand(ctx context.Context, msg domain.RawMessage, cmd domain.Command, timezone string) (domain.Reminder, error) {
	if !cmd.Intent.IsReminder() {
		return domain.Reminder{}, fmt.Errorf("%w: %s", errors.ErrNotAReminder, cmd.Intent)
	}
	if cmd.Entities.DateTime == nil {
		return domain.Reminder{}, errors.ErrMissingDateTime
	}
	request := ReminderRequest{
		Phone:    msg.Phone,
		Title:    cmd.TaskOr(msg.Text),
		DateTime: cmd.Entities.DateTime,
		Timezone: timezone,
		Priority: cmd.Entities.Priority,
		Category: cmd.Entities.Category,
	}
	if r := cmd.Entities.Recurrence; r != nil {
		request.Frequency = r.Frequency
		request.EndDate = r.EndDate
	}
	if msg.Attachment != nil {
		request.AttachmentURL = msg.Attachment.URL
	}
	return s.Create(ctx, request)
}

// List returns the reminders of phone, or every reminder when phone is empty.
func (s *ReminderService) List(phone string) ([]domain.Reminder, error) {
	if phone == "" {
		return s.reminders.ListAll()
	}
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	return s.reminders.ListByPhone(normalized)
}

func (s *ReminderService) Complete(ctx context.Context, id uuid.UUID) (domain.Reminder, error) {
	reminder, err := s.reminders.Get(id)
	if err != nil {
		return domain.Reminder{}, err
	}
	if reminder.Completed {
		return reminder, nil
	}
	if err := s.reminders.Complete(id); err != nil {
		return domain.Reminder{}, err
	}
	reminder.Completed = true
	s.count(ctx, reminder.Phone, analytics.Completed)
	return reminder, nil
}

// Share adds recipients who will receive the due notices of the reminder.
func (s *ReminderService) Share(_ context.Context, id uuid.UUID, phones []string) (domain.Reminder, error) {
	reminder, err := s.reminders.Get(id)
	if err != nil {
		return domain.Reminder{}, err
	}
	if !reminder.Active() {
		return domain.Reminder{}, fmt.Errorf("%w: %s", errors.ErrReminderInactive, id)
	}
	recipients, err := normalizeRecipients(reminder.Phone, phones)
	if err != nil {
		return domain.Reminder{}, err
	}
	if len(recipients) == 0 {
		return domain.Reminder{}, errors.ErrNoRecipients
	}
	return s.reminders.Share(id, recipients)
}

// resolveZone picks the requested zone, else the owner's preferred one.
func (s *ReminderService) resolveZone(phone, requested string) (string, *time.Location, error) {
	timezone := requested
	if timezone == "" {
		pref, err := s.preferences.Get(phone)
		switch {
		case err == nil:
			timezone = pref.Timezone
		case stderrors.Is(err, errors.ErrPreferenceNotFound):
			timezone = domain.DefaultTimezone
		default:
			return "", nil, err
		}
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %q", errors.ErrInvalidTimezone, timezone)
	}
	return timezone, loc, nil
}

func (s *ReminderService) count(ctx context.Context, phone string, c analytics.Counter) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Incr(ctx, phone, c); err != nil {
		s.log.Warn("Unable to record analytics", "phone", phone, "counter", c, "error", err)
	}
}

// normalizeRecipients validates every phone and drops the owner and duplicates.
func normalizeRecipients(owner string, phones []string) ([]string, error) {
	var out []string
	for _, p := range phones {
		normalized, err := NormalizePhone(p)
		if err != nil {
			return nil, err
		}
		if normalized == owner {
			continue
		}
		out = append(out, normalized)
	}
	return lo.Uniq(out), nil
}
