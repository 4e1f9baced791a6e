// Package api exposes the assistant over HTTP with gin.
package api

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"remind-lab/domain"
	"remind-lab/errors"
	"remind-lab/messaging"
	"remind-lab/observability"
	"remind-lab/projection"
	"remind-lab/repositories"
	"remind-lab/services"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const activityLimit = 20

type AnalyticsReader interface {
	Get(ctx context.Context, phone string) (domain.Analytics, error)
}

type StatsReader interface {
	Latest() observability.Stats
}

// RuntimeState is what the health endpoint reports about the worker runtime.
type RuntimeState interface {
	Running() int
	Timeline() *projection.Timeline
}

type Handler struct {
	log         *slog.Logger
	validate    *validator.Validate
	assistant   services.IAssistantService
	reminders   services.IReminderService
	calendars   services.ICalendarService
	preferences repositories.IPreferenceRepository
	analytics   AnalyticsReader
	sender      messaging.Sender
	stats       StatsReader
	runtime     RuntimeState
	startedAt   time.Time
}

type Deps struct {
	Assistant   services.IAssistantService
	Reminders   services.IReminderService
	Calendars   services.ICalendarService
	Preferences repositories.IPreferenceRepository
	Analytics   AnalyticsReader
	Sender      messaging.Sender
	Stats       StatsReader
	Runtime     RuntimeState
}

func NewHandler(deps Deps, log *slog.Logger) *Handler {
	return &Handler{
		log:         log,
		validate:    newValidator(),
		assistant:   deps.Assistant,
		reminders:   deps.Reminders,
		calendars:   deps.Calendars,
		preferences: deps.Preferences,
		analytics:   deps.Analytics,
		sender:      deps.Sender,
		stats:       deps.Stats,
		runtime:     deps.Runtime,
		startedAt:   time.Now(),
	}
}

func (h *Handler) ListMessages(c *gin.Context) {
	query := services.MessageQuery{
		Phone: c.Query("phone"),
		Text:  c.Query("q"),
	}
	if cursor := c.Query("cursor"); cursor != "" {
		query.Cursor = &cursor
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			badRequest(c, "invalid limit")
			return
		}
		query.Limit = limit
	}
	messages, next, err := h.assistant.ListMessages(c.Request.Context(), query)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, messagesResponse{
		Messages: lo.Map(messages, func(m domain.StoredMessage, _ int) messageResponse { return toMessageResponse(m) }),
		Cursor:   next,
	})
}

func (h *Handler) PostMessage(c *gin.Context) {
	var req ingestRequest
	if !h.bindJSON(c, &req) {
		return
	}
	stored, err := h.assistant.Ingest(c.Request.Context(), req.toIngest(), domain.FromAPI)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMessageResponse(stored))
}

// Webhook is the entry point of the messaging transport. Replies to these
// messages go back through the sender.
func (h *Handler) Webhook(c *gin.Context) {
	var req ingestRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if _, err := h.assistant.Ingest(c.Request.Context(), req.toIngest(), domain.FromTransport); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) SenderStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.sender.Status())
}

func (h *Handler) ListReminders(c *gin.Context) {
	reminders, err := h.reminders.List(c.Query("phone"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(reminders, func(r domain.Reminder, _ int) reminderResponse { return toReminderResponse(r) }))
}

func (h *Handler) CreateReminder(c *gin.Context) {
	var req createReminderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	reminder, err := h.reminders.Create(c.Request.Context(), req.toReminderRequest())
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReminderResponse(reminder))
}

func (h *Handler) CompleteReminder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	reminder, err := h.reminders.Complete(c.Request.Context(), id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReminderResponse(reminder))
}

func (h *Handler) ShareReminder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req shareRequest
	if !h.bindJSON(c, &req) {
		return
	}
	reminder, err := h.reminders.Share(c.Request.Context(), id, req.Phones)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReminderResponse(reminder))
}

// GetPreference answers with the defaults when nothing was stored yet.
func (h *Handler) GetPreference(c *gin.Context) {
	phone, err := services.NormalizePhone(c.Param("phone"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	pref, err := h.preferences.Get(phone)
	switch {
	case stderrors.Is(err, errors.ErrPreferenceNotFound):
		pref = domain.DefaultPreference(phone)
	case err != nil:
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPreferenceResponse(pref))
}

func (h *Handler) PutPreference(c *gin.Context) {
	phone, err := services.NormalizePhone(c.Param("phone"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	var req preferenceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	pref := req.toPreference(phone)
	pref.Timezone = lo.CoalesceOrEmpty(pref.Timezone, domain.DefaultTimezone)
	pref.GreetingTime = lo.CoalesceOrEmpty(pref.GreetingTime, domain.DefaultGreetingTime)
	pref.Language = lo.CoalesceOrEmpty(pref.Language, domain.DefaultLanguage)
	if err := h.preferences.Upsert(pref); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPreferenceResponse(pref))
}

func (h *Handler) ListCalendars(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		badRequest(c, "phone is required")
		return
	}
	calendars, err := h.calendars.List(phone)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(calendars, func(cal domain.Calendar, _ int) calendarResponse { return toCalendarResponse(cal) }))
}

func (h *Handler) ConnectCalendar(c *gin.Context) {
	var req connectCalendarRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cal, err := h.calendars.Connect(c.Request.Context(), services.ConnectRequest{Phone: req.Phone, Type: req.Type, Name: req.Name})
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCalendarResponse(cal))
}

func (h *Handler) CalendarProviders(c *gin.Context) {
	c.JSON(http.StatusOK, lo.Map(h.calendars.Providers(), func(p domain.CalendarProvider, _ int) providerResponse { return toProviderResponse(p) }))
}

func (h *Handler) CalendarEvents(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	events, err := h.calendars.Events(id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(events, func(e domain.CalendarEvent, _ int) eventResponse { return toEventResponse(e) }))
}

func (h *Handler) Analytics(c *gin.Context) {
	phone, err := services.NormalizePhone(c.Param("phone"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	counters, err := h.analytics.Get(c.Request.Context(), phone)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAnalyticsResponse(counters))
}

// Health is degraded while the sender is down or no worker is running.
func (h *Handler) Health(c *gin.Context) {
	sender := h.sender.Status()
	running := h.runtime.Running()
	status := "ok"
	if !sender.Ready || running == 0 {
		status = "degraded"
	}
	c.JSON(http.StatusOK, healthResponse{
		Status:   status,
		Workers:  running,
		Sender:   sender,
		Process:  h.stats.Latest(),
		Activity: h.runtime.Timeline().Recent(activityLimit),
		Uptime:   time.Since(h.startedAt).Round(time.Second).String(),
	})
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
