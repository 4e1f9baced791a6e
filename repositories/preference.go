package repositories

import (
	"fmt"
	"log/slog"
	"remind-lab/domain"
	"remind-lab/errors"

	"github.com/dgraph-io/badger/v4"
)

type IPreferenceRepository interface {
	Get(phone string) (domain.UserPreference, error)
	Upsert(pref domain.UserPreference) error
	List() ([]domain.UserPreference, error)
	MarkDailySent(phone string, kind domain.DigestKind, date string) (bool, error)
}

// PreferenceRepository stores one preference document per phone plus the
// ledger of daily messages already sent.
type PreferenceRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewPreferenceRepository(db *badger.DB, log *slog.Logger) *PreferenceRepository {
	return &PreferenceRepository{db: db, log: log}
}

type diskQuietHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type diskPreference struct {
	Phone           string          `json:"phone"`
	Timezone        string          `json:"timezone"`
	WeatherLocation string          `json:"weather_location,omitempty"`
	WeatherAlerts   bool            `json:"weather_alerts"`
	MorningGreeting bool            `json:"morning_greeting"`
	GreetingTime    string          `json:"greeting_time"`
	Language        domain.Language `json:"language"`
	QuietHours      *diskQuietHours `json:"quiet_hours,omitempty"`
}

func preferenceKey(phone string) string {
	return fmt.Sprintf("pref:%s", phone)
}

func (p PreferenceRepository) Get(phone string) (domain.UserPreference, error) {
	var disk diskPreference
	var found bool
	err := p.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = readJSON(txn, preferenceKey(phone), &disk)
		return err
	})
	if err != nil {
		return domain.UserPreference{}, err
	}
	if !found {
		return domain.UserPreference{}, fmt.Errorf("%w: %s", errors.ErrPreferenceNotFound, phone)
	}
	return toPreference(disk), nil
}

// Upsert stores the preference, filling defaults for empty timezone,
// greeting time and language.
func (p PreferenceRepository) Upsert(pref domain.UserPreference) error {
	defaults := domain.DefaultPreference(pref.Phone)
	if pref.Timezone == "" {
		pref.Timezone = defaults.Timezone
	}
	if pref.GreetingTime == "" {
		pref.GreetingTime = defaults.GreetingTime
	}
	if pref.Language == "" {
		pref.Language = defaults.Language
	}
	return p.db.Update(func(txn *badger.Txn) error {
		return writeJSON(txn, preferenceKey(pref.Phone), fromPreference(pref))
	})
}

func (p PreferenceRepository) List() ([]domain.UserPreference, error) {
	var prefs []domain.UserPreference
	err := p.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, "pref:", false, func(_, val []byte) (bool, error) {
			var disk diskPreference
			if err := unmarshal(val, &disk); err != nil {
				return false, err
			}
			prefs = append(prefs, toPreference(disk))
			return true, nil
		})
	})
	return prefs, err
}

// MarkDailySent records that the daily message of kind went out to phone on
// the local date "2006-01-02". It returns false when it was already recorded,
// so that only the first caller of the day sends.
func (p PreferenceRepository) MarkDailySent(phone string, kind domain.DigestKind, date string) (bool, error) {
	key := []byte(fmt.Sprintf("daily:%s:%s:%s", kind, phone, date))
	marked := false
	err := p.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return nil
		case err != badger.ErrKeyNotFound:
			return err
		}
		marked = true
		return txn.Set(key, []byte{1})
	})
	if err != nil {
		return false, err
	}
	return marked, nil
}

func fromPreference(pref domain.UserPreference) diskPreference {
	disk := diskPreference{
		Phone:           pref.Phone,
		Timezone:        pref.Timezone,
		WeatherLocation: pref.WeatherLocation,
		WeatherAlerts:   pref.WeatherAlerts,
		MorningGreeting: pref.MorningGreeting,
		GreetingTime:    pref.GreetingTime,
		Language:        pref.Language,
	}
	if q := pref.QuietHours; q != nil {
		disk.QuietHours = &diskQuietHours{Start: q.Start, End: q.End}
	}
	return disk
}

func toPreference(disk diskPreference) domain.UserPreference {
	pref := domain.UserPreference{
		Phone:           disk.Phone,
		Timezone:        disk.Timezone,
		WeatherLocation: disk.WeatherLocation,
		WeatherAlerts:   disk.WeatherAlerts,
		MorningGreeting: disk.MorningGreeting,
		GreetingTime:    disk.GreetingTime,
		Language:        disk.Language,
	}
	if q := disk.QuietHours; q != nil {
		pref.QuietHours = &domain.QuietHours{Start: q.Start, End: q.End}
	}
	return pref
}
