package notifier

import (
	"time"

	"github.com/julianstephens/lessfeed/internal/models"
)

var reminderText = map[models.Lang]string{
	models.LangEN: "Your daily cards are waiting. Four short reads, then you're done.",
	models.LangFR: "Vos cartes du jour vous attendent. Quatre lectures courtes, et c'est fini.",
	models.LangES: "Tus tarjetas del día te esperan. Cuatro lecturas cortas y listo.",
}

// ReminderText returns the reminder message for lang.
func ReminderText(lang models.Lang) string {
	if text, ok := reminderText[lang]; ok {
		return text
	}
	return reminderText[models.LangEN]
}

// ReminderDue reports whether a daily reminder should go out at now (local
// time): notifications enabled, the configured time reached, and today's
// ritual not yet complete.
func ReminderDue(s models.UISettings, completedToday bool, now time.Time) bool {
	if !s.NotificationsEnabled || completedToday {
		return false
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), s.NotificationHour, s.NotificationMinute, 0, 0, now.Location())
	return !now.Before(at)
}
