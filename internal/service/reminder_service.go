package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Geneteca/discord-bot/internal/clock"
	"github.com/Geneteca/discord-bot/internal/model"
	"github.com/Geneteca/discord-bot/internal/store"
)

const defaultDeliveryTimeout = 10 * time.Second

// ReminderService evaluates all events against the clock on every tick
// and emits due reminders. Tick takes the current time explicitly, so
// tests drive it without sleeping; the cron wrapper in main supplies
// real time at the configured interval.
type ReminderService struct {
	store           *store.Store
	dispatcher      Dispatcher
	loc             *time.Location
	grace           time.Duration
	deliveryTimeout time.Duration
}

func NewReminderService(st *store.Store, dispatcher Dispatcher, loc *time.Location, grace time.Duration) *ReminderService {
	if loc == nil {
		loc = time.Local
	}
	if grace <= 0 {
		grace = 24 * time.Hour
	}
	return &ReminderService{
		store:           st,
		dispatcher:      dispatcher,
		loc:             loc,
		grace:           grace,
		deliveryTimeout: defaultDeliveryTimeout,
	}
}

// dueDelivery is one reminder to send: a (event, offset) pair copied
// out of the state so delivery happens with no lock held.
type dueDelivery struct {
	eventID int
	offset  int
	target  model.Target
	message string
}

// Tick runs one scheduler pass at the given instant:
//
//  1. deliver every due, unsent offset that is still inside the grace
//     window (stale reminders after long downtime are suppressed, not
//     fired late);
//  2. record delivered offsets;
//  3. roll recurring events whose time has passed onto their next
//     occurrence (dedup state reset), cancel one-off ones;
//  4. flush the snapshot once if anything changed.
//
// Delivery happens before persistence, so a crash in between re-sends
// an offset after restart: at-least-once per (event, offset), by
// contract.
func (s *ReminderService) Tick(ctx context.Context, now time.Time) {
	due := s.collectDue(now)

	for _, d := range due {
		s.deliver(ctx, d)
	}

	err := s.store.Update(ctx, func(state *model.State) (bool, error) {
		changed := false

		// Record attempted deliveries. MarkSent re-checks membership
		// against the current offsets, so an edit racing this tick can
		// at worst cause a duplicate send, never a dedup-set that
		// references offsets the event no longer has.
		for _, d := range due {
			ev := state.EventByID(d.eventID)
			if ev == nil || ev.Cancelled {
				continue
			}
			if ev.MarkSent(d.offset) {
				changed = true
			}
		}

		// Rollover / termination.
		for _, ev := range state.Events {
			if ev.Cancelled || now.Before(ev.When) {
				continue
			}
			if ev.Recurrence == model.RecurrenceNone {
				ev.Cancelled = true
				log.Info().Int("event_id", ev.ID).Msg("one-off event consumed")
			} else {
				ev.When = clock.NextOccurrence(ev.When, ev.Recurrence)
				ev.ResetSent()
				log.Info().Int("event_id", ev.ID).Time("next", ev.When).
					Str("recurrence", string(ev.Recurrence)).Msg("event rolled over")
			}
			changed = true
		}

		return changed, nil
	})
	if err != nil {
		// In-memory state is intact; the store retries the flush on
		// the next tick that changes anything.
		log.Error().Err(err).Msg("tick persistence failed, will retry next tick")
	}
}

// collectDue gathers every unsent offset that is due and not stale.
func (s *ReminderService) collectDue(now time.Time) []dueDelivery {
	var due []dueDelivery
	s.store.View(func(state *model.State) {
		for _, ev := range state.Events {
			if ev.Cancelled {
				continue
			}
			if !now.Before(ev.When.Add(s.grace)) {
				// Past the grace window: suppress instead of firing a
				// storm of stale reminders after extended downtime.
				continue
			}
			// Offsets are kept sorted descending, so the largest lead
			// time fires first within a tick.
			for _, m := range ev.ReminderOffsets {
				if ev.OffsetSent(m) {
					continue
				}
				remindAt := ev.When.Add(-time.Duration(m) * time.Minute)
				if now.Before(remindAt) {
					continue
				}
				due = append(due, dueDelivery{
					eventID: ev.ID,
					offset:  m,
					target:  ev.Target,
					message: s.formatReminder(ev, m),
				})
			}
		}
	})
	return due
}

// deliver fires one reminder. DM targets get one send per recipient;
// each failure is logged and the rest of the list still runs. The
// offset counts as sent once every delivery for it was attempted.
func (s *ReminderService) deliver(ctx context.Context, d dueDelivery) {
	ctx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
	defer cancel()

	if d.target.IsDM() {
		for _, userID := range d.target.UserIDs {
			if err := s.dispatcher.Direct(ctx, userID, d.message); err != nil {
				log.Warn().Err(err).Int("event_id", d.eventID).Int("offset_min", d.offset).
					Str("user_id", userID).Msg("reminder DM failed")
			}
		}
		return
	}
	if err := s.dispatcher.Broadcast(ctx, d.target.ChannelID, d.message); err != nil {
		log.Warn().Err(err).Int("event_id", d.eventID).Int("offset_min", d.offset).
			Str("channel_id", d.target.ChannelID).Msg("reminder broadcast failed")
	}
}

func (s *ReminderService) formatReminder(ev *model.Event, offset int) string {
	when := ev.When.In(s.loc)
	if offset == 0 {
		return fmt.Sprintf("🔔 **Reminder:** %s\n⏰ now (%s)", ev.Title, when.Format("15:04"))
	}
	return fmt.Sprintf("🔔 **Reminder:** %s\n⏰ %s (in %s)",
		ev.Title, when.Format("02-01-2006 15:04"), formatLead(offset))
}

func formatLead(minutes int) string {
	switch {
	case minutes%1440 == 0:
		d := minutes / 1440
		if d == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", d)
	case minutes%60 == 0:
		h := minutes / 60
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	default:
		return fmt.Sprintf("%d minutes", minutes)
	}
}
