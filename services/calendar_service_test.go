package services

import (
	"context"
	"log/slog"
	"remind-lab/calendar"
	"remind-lab/domain"
	"remind-lab/errors"
	"remind-lab/repositories"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type tokenProvider struct{}

func (tokenProvider) Info() domain.CalendarProvider {
	return domain.CalendarProvider{Type: domain.GoogleCalendar, Name: "Google Calendar", Available: true}
}

func (tokenProvider) Authenticate(context.Context) (calendar.Credentials, error) {
	return calendar.Credentials{AccessToken: "access-123", RefreshToken: "refresh-456"}, nil
}

func newCalendarService(t *testing.T, registry *calendar.Registry) (*CalendarService, *repositories.CalendarRepository) {
	t.Helper()
	sealer, err := calendar.NewSealer("test-secret")
	require.NoError(t, err)
	repository := repositories.NewCalendarRepository(openDB(t), slog.New(slog.DiscardHandler))
	return NewCalendarService(registry, sealer, repository, slog.New(slog.DiscardHandler)), repository
}

func TestCalendarService_Connect(t *testing.T) {
	svc, _ := newCalendarService(t, calendar.NewRegistry())
	ctx := context.Background()

	t.Run("ical feed without a name", func(t *testing.T) {
		req := require.New(t)
		before := time.Now().UTC()
		cal, err := svc.Connect(ctx, ConnectRequest{Phone: "+34600000001", Type: domain.ICalCalendar})
		req.NoError(err)
		req.Equal("iCal Feed", cal.Name)
		req.Empty(cal.SealedAccessToken)
		req.WithinDuration(before.Add(TokenLifetime), *cal.ExpiresAt, 5*time.Second)

		listed, err := svc.List("+34600000001")
		req.NoError(err)
		req.Len(listed, 1)
		req.Equal(cal.ID, listed[0].ID)
	})

	t.Run("provider without a wired flow", func(t *testing.T) {
		req := require.New(t)
		_, err := svc.Connect(ctx, ConnectRequest{Phone: "+34600000002", Type: domain.GoogleCalendar, Name: "trabajo"})
		req.ErrorIs(err, errors.ErrProviderUnavailable)

		listed, err := svc.List("+34600000002")
		req.NoError(err)
		req.Empty(listed)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := svc.Connect(ctx, ConnectRequest{Phone: "+34600000001", Type: "caldav"})
		require.ErrorIs(t, err, errors.ErrUnknownProvider)
	})

	t.Run("invalid phone", func(t *testing.T) {
		_, err := svc.Connect(ctx, ConnectRequest{Phone: "x", Type: domain.ICalCalendar})
		require.ErrorIs(t, err, errors.ErrInvalidPhone)
	})

	req := require.New(t)
	req.Len(svc.Providers(), 4)
}

func TestCalendarService_TokensAreSealed(t *testing.T) {
	req := require.New(t)
	svc, _ := newCalendarService(t, calendar.NewRegistryWith(tokenProvider{}))

	cal, err := svc.Connect(context.Background(), ConnectRequest{Phone: "+34600000001", Type: domain.GoogleCalendar, Name: "personal"})
	req.NoError(err)
	req.NotContains(string(cal.SealedAccessToken), "access-123")

	credentials, err := svc.Credentials(cal.ID)
	req.NoError(err)
	req.Equal("access-123", credentials.AccessToken)
	req.Equal("refresh-456", credentials.RefreshToken)
}

func TestCalendarService_Events(t *testing.T) {
	req := require.New(t)
	svc, repository := newCalendarService(t, calendar.NewRegistry())

	cal, err := svc.Connect(context.Background(), ConnectRequest{Phone: "+34600000001", Type: domain.ICalCalendar})
	req.NoError(err)
	start := time.Date(2025, time.June, 4, 10, 0, 0, 0, time.UTC)
	late := domain.CalendarEvent{ID: uuid.New(), CalendarID: cal.ID, Title: "comida", Start: start.Add(3 * time.Hour), End: start.Add(4 * time.Hour)}
	early := domain.CalendarEvent{ID: uuid.New(), CalendarID: cal.ID, Title: "reunión", Start: start, End: start.Add(time.Hour)}
	req.NoError(repository.StoreEvent(late))
	req.NoError(repository.StoreEvent(early))

	events, err := svc.Events(cal.ID)
	req.NoError(err)
	req.Len(events, 2)
	req.Equal("reunión", events[0].Title)
	req.Equal("comida", events[1].Title)

	_, err = svc.Events(uuid.New())
	req.ErrorIs(err, errors.ErrCalendarNotFound)
}
