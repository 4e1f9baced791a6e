package services

import (
	"context"
	"fmt"
	"log/slog"
	"remind-lab/calendar"
	"remind-lab/domain"
	"remind-lab/repositories"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenLifetime is how long freshly issued provider tokens are trusted.
const TokenLifetime = time.Hour

type ICalendarService interface {
	Connect(ctx context.Context, request ConnectRequest) (domain.Calendar, error)
	List(phone string) ([]domain.Calendar, error)
	Providers() []domain.CalendarProvider
	Events(id uuid.UUID) ([]domain.CalendarEvent, error)
}

type ConnectRequest struct {
	Phone string
	Type  domain.CalendarType
	Name  string
}

type CalendarService struct {
	registry  *calendar.Registry
	sealer    *calendar.Sealer
	calendars repositories.ICalendarRepository
	log       *slog.Logger
	now       func() time.Time
}

func NewCalendarService(registry *calendar.Registry, sealer *calendar.Sealer, calendars repositories.ICalendarRepository, log *slog.Logger) *CalendarService {
	return &CalendarService{registry: registry, sealer: sealer, calendars: calendars, log: log, now: time.Now}
}

// Connect authenticates against the provider and stores the calendar with
// its tokens sealed. Providers without a wired flow fail with
// ErrProviderUnavailable and nothing is stored.
func (s *CalendarService) Connect(ctx context.Context, request ConnectRequest) (domain.Calendar, error) {
	phone, err := NormalizePhone(request.Phone)
	if err != nil {
		return domain.Calendar{}, err
	}
	provider, err := s.registry.Provider(request.Type)
	if err != nil {
		return domain.Calendar{}, err
	}
	credentials, err := provider.Authenticate(ctx)
	if err != nil {
		return domain.Calendar{}, err
	}
	access, err := s.sealer.Seal(credentials.AccessToken)
	if err != nil {
		return domain.Calendar{}, fmt.Errorf("sealing access token: %w", err)
	}
	refresh, err := s.sealer.Seal(credentials.RefreshToken)
	if err != nil {
		return domain.Calendar{}, fmt.Errorf("sealing refresh token: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(TokenLifetime)
	name := strings.TrimSpace(request.Name)
	if name == "" {
		name = provider.Info().Name
	}
	cal := domain.Calendar{
		ID:                 uuid.New(),
		Phone:              phone,
		Type:               request.Type,
		Name:               name,
		SealedAccessToken:  access,
		SealedRefreshToken: refresh,
		ExpiresAt:          &expiresAt,
		CreatedAt:          now,
	}
	if err := s.calendars.CreateCalendar(cal); err != nil {
		return domain.Calendar{}, err
	}
	s.log.Info("Calendar connected", "id", cal.ID, "phone", phone, "type", cal.Type)
	return cal, nil
}

func (s *CalendarService) List(phone string) ([]domain.Calendar, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	return s.calendars.ListCalendars(normalized)
}

func (s *CalendarService) Providers() []domain.CalendarProvider {
	return s.registry.Providers()
}

// Events lists the stored events of a calendar by start time.
func (s *CalendarService) Events(id uuid.UUID) ([]domain.CalendarEvent, error) {
	if _, err := s.calendars.GetCalendar(id); err != nil {
		return nil, err
	}
	return s.calendars.ListEvents(id)
}

// Credentials unseals the tokens of a connected calendar.
func (s *CalendarService) Credentials(id uuid.UUID) (calendar.Credentials, error) {
	cal, err := s.calendars.GetCalendar(id)
	if err != nil {
		return calendar.Credentials{}, err
	}
	access, err := s.sealer.Open(cal.SealedAccessToken)
	if err != nil {
		return calendar.Credentials{}, err
	}
	refresh, err := s.sealer.Open(cal.SealedRefreshToken)
	if err != nil {
		return calendar.Credentials{}, err
	}
	return calendar.Credentials{AccessToken: access, RefreshToken: refresh}, nil
}
