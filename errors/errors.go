package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrEmptyLexicon         = fmt.Errorf("no language table has been found")
	ErrIntentOrder          = fmt.Errorf("intent categories are not in precedence order")
	ErrLanguageMismatch     = fmt.Errorf("language table file name and content disagree")
	ErrUnsupportedLanguage  = fmt.Errorf("unsupported language")
	ErrUnknownFrequency     = fmt.Errorf("unknown recurrence frequency")
	ErrEmptyPattern         = fmt.Errorf("empty pattern")
	ErrMissingCaptureGroup  = fmt.Errorf("pattern needs a capture group")
	ErrIncompleteDateNames  = fmt.Errorf("weekday or month names are incomplete")
	ErrInvalidPhone         = fmt.Errorf("invalid phone number")
	ErrEmptyContent         = fmt.Errorf("message content is empty")
	ErrContentTooLong       = fmt.Errorf("message content is too long")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported attachment media type")

	ErrReminderNotFound    = fmt.Errorf("reminder not found")
	ErrMessageNotFound     = fmt.Errorf("message not found")
	ErrPreferenceNotFound  = fmt.Errorf("preference not found")
	ErrCalendarNotFound    = fmt.Errorf("calendar not found")
	ErrMissingDateTime     = fmt.Errorf("reminder needs a date and time")
	ErrMissingTitle        = fmt.Errorf("reminder needs a title")
	ErrNotAReminder        = fmt.Errorf("command is not a reminder")
	ErrInvalidTimezone     = fmt.Errorf("invalid timezone")
	ErrInvalidClock        = fmt.Errorf("invalid HH:MM clock")
	ErrReminderInactive    = fmt.Errorf("reminder is no longer active")
	ErrNoRecipients        = fmt.Errorf("no recipients to share with")
	ErrUnknownProvider     = fmt.Errorf("unknown calendar provider")
	ErrProviderUnavailable = fmt.Errorf("calendar provider is not available yet")
	ErrInvalidSealKey      = fmt.Errorf("sealing secret is empty")
	ErrUnsealFailed        = fmt.Errorf("token could not be unsealed")

	ErrLocationNotFound    = fmt.Errorf("location not found")
	ErrWeatherUnavailable  = fmt.Errorf("weather provider unavailable")
	ErrSenderNotReady      = fmt.Errorf("messaging sender is not ready")
	ErrDispatcherClosed    = fmt.Errorf("dispatcher is draining")
	ErrDispatchBacklogFull = fmt.Errorf("too many notifications pending")
)
