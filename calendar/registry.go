// Package calendar knows which external calendar providers can be connected
// and how their credentials are stored.
package calendar

import (
	"context"
	"fmt"
	"remind-lab/domain"
	"remind-lab/errors"
	"sort"
)

// Credentials are what a provider hands back once authenticated.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

type Provider interface {
	Info() domain.CalendarProvider
	Authenticate(ctx context.Context) (Credentials, error)
}

// oauthProvider stands for a provider whose OAuth flow is not wired.
type oauthProvider struct {
	info domain.CalendarProvider
}

func (p oauthProvider) Info() domain.CalendarProvider { return p.info }

func (p oauthProvider) Authenticate(context.Context) (Credentials, error) {
	return Credentials{}, fmt.Errorf("%s: %w", p.info.Name, errors.ErrProviderUnavailable)
}

// feedProvider is a read-only iCal feed, no authentication needed.
type feedProvider struct {
	info domain.CalendarProvider
}

func (p feedProvider) Info() domain.CalendarProvider { return p.info }

func (p feedProvider) Authenticate(ctx context.Context) (Credentials, error) {
	return Credentials{}, ctx.Err()
}

type Registry struct {
	providers map[domain.CalendarType]Provider
}

// NewRegistry returns the registry of the four known providers.
func NewRegistry() *Registry {
	return NewRegistryWith(
		oauthProvider{info: domain.CalendarProvider{
			Type: domain.GoogleCalendar, Name: "Google Calendar", Icon: "📅",
			Description: "Sincroniza con tu calendario de Google",
		}},
		oauthProvider{info: domain.CalendarProvider{
			Type: domain.OutlookCalendar, Name: "Outlook Calendar", Icon: "📆",
			Description: "Sincroniza con tu calendario de Outlook",
		}},
		oauthProvider{info: domain.CalendarProvider{
			Type: domain.AppleCalendar, Name: "Apple Calendar", Icon: "🍎",
			Description: "Sincroniza con tu calendario de Apple",
		}},
		feedProvider{info: domain.CalendarProvider{
			Type: domain.ICalCalendar, Name: "iCal Feed", Icon: "🔗",
			Available: true, ReadOnly: true,
			Description: "Importa eventos desde un feed iCal",
		}},
	)
}

func NewRegistryWith(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[domain.CalendarType]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Info().Type] = p
	}
	return r
}

// Providers lists every provider sorted by type.
func (r *Registry) Providers() []domain.CalendarProvider {
	out := make([]domain.CalendarProvider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

func (r *Registry) Provider(t domain.CalendarType) (Provider, error) {
	p, ok := r.providers[t]
	if !ok {
		return nil, fmt.Errorf("%q: %w", t, errors.ErrUnknownProvider)
	}
	return p, nil
}
