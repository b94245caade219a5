// Package worker runs the scheduled jobs: currently the fixture
// reminder sweep.
package worker

import (
	"context"
	"time"

	"github.com/apexgp/paddock/live"
	"github.com/apexgp/paddock/models"
	"github.com/apexgp/paddock/store"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Reminders periodically scans for fixtures starting inside the lead
// window and turns pending reminders into notifications.
type Reminders struct {
	Store  *store.Store
	Hub    *live.Hub
	Config models.Config
	Logger *logrus.Logger
	Clock  models.Clock
}

func (r *Reminders) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now()
	}
	return time.Now()
}

// Run schedules the sweep per config and blocks until ctx is done.
func (r *Reminders) Run(ctx context.Context) error {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(r.Config.ReminderSpec, func() {
		if err := r.Sweep(ctx); err != nil {
			r.Logger.WithError(err).Warn("reminder sweep failed")
		}
	})
	if err != nil {
		return err
	}
	scheduler.Start()
	<-ctx.Done()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	return nil
}

// Sweep processes every due reminder exactly once: MarkReminderSent
// acts as the claim, so a sweep racing a previous slow one skips rows
// already taken.
func (r *Reminders) Sweep(ctx context.Context) error {
	lead := time.Duration(r.Config.ReminderLeadMinutes) * time.Minute
	now := r.now()
	due, err := r.Store.DueReminders(ctx, now, lead)
	if err != nil {
		return err
	}
	for _, reminder := range due {
		if err := r.Store.MarkReminderSent(ctx, reminder.ID, now); err != nil {
			// already claimed by another sweep
			continue
		}
		notification := models.Notification{
			Mobile: reminder.Mobile,
			Title:  "Race day is coming",
			Body:   "Lights out at " + reminder.FixtureLocation + " on " + reminder.FixtureDate.Format(time.RFC1123) + ".",
		}
		if err := r.Store.CreateNotification(ctx, &notification); err != nil {
			r.Logger.WithError(err).Warn("reminder notification failed")
			continue
		}
		r.Hub.Broadcast("reminder", map[string]any{
			"mobile":  reminder.Mobile,
			"fixture": reminder.FixtureUUID,
			"date":    reminder.FixtureDate,
		})
	}
	if len(due) > 0 {
		r.Logger.WithField("count", len(due)).Info("reminders delivered")
	}
	return nil
}
