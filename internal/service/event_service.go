package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Geneteca/discord-bot/internal/model"
	"github.com/Geneteca/discord-bot/internal/store"
)

// EventInput is a validated create request. The front end owns the
// chat grammar (date strings, "10m" shorthand); this layer checks the
// domain constraints.
type EventInput struct {
	Title           string
	When            time.Time
	ReminderOffsets []int
	Recurrence      model.Recurrence
	Target          model.Target
}

// EventEdit carries partial changes; nil fields stay untouched.
type EventEdit struct {
	Title           *string
	When            *time.Time
	ReminderOffsets []int // nil = unchanged
	Recurrence      *model.Recurrence
	Target          *model.Target
}

// EventService owns create/edit/cancel for scheduled events.
type EventService struct {
	store *store.Store
}

func NewEventService(st *store.Store) *EventService {
	return &EventService{store: st}
}

func (s *EventService) Create(ctx context.Context, actor model.Actor, in EventInput) (model.Event, error) {
	if err := validateEventInput(in); err != nil {
		return model.Event{}, err
	}

	ev := &model.Event{
		Title:           in.Title,
		When:            in.When,
		ReminderOffsets: model.NormalizeOffsets(in.ReminderOffsets),
		Recurrence:      in.Recurrence,
		Target:          in.Target,
		CreatedBy:       actor.ID,
		CreatedAt:       time.Now(),
	}

	err := s.store.Update(ctx, func(state *model.State) (bool, error) {
		state.AddEvent(ev)
		return true, nil
	})
	if err != nil {
		return model.Event{}, err
	}
	return *ev, nil
}

// Edit applies partial changes. Changing When or ReminderOffsets resets
// the sent-offset bookkeeping: the occurrence the old dedup state
// referred to no longer exists, and keeping it would suppress
// legitimate reminders.
func (s *EventService) Edit(ctx context.Context, actor model.Actor, id int, edit EventEdit) (model.Event, error) {
	var out model.Event
	err := s.store.Update(ctx, func(state *model.State) (bool, error) {
		ev := state.EventByID(id)
		if ev == nil {
			return false, ErrNotFound
		}
		if ev.Cancelled {
			return false, ErrCancelled
		}

		// Validate the whole edit before touching the event, so a bad
		// field cannot leave a half-applied mutation in memory.
		if edit.Title != nil && *edit.Title == "" {
			return false, fmt.Errorf("title must not be empty")
		}
		for _, m := range edit.ReminderOffsets {
			if m < 0 {
				return false, fmt.Errorf("reminder offset %d must not be negative", m)
			}
		}
		if edit.Recurrence != nil && !edit.Recurrence.Valid() {
			return false, fmt.Errorf("unknown recurrence %q", *edit.Recurrence)
		}
		if edit.Target != nil {
			if err := edit.Target.Validate(); err != nil {
				return false, err
			}
		}

		resetSent := false
		if edit.Title != nil {
			ev.Title = *edit.Title
		}
		if edit.When != nil {
			ev.When = *edit.When
			resetSent = true
		}
		if edit.ReminderOffsets != nil {
			ev.ReminderOffsets = model.NormalizeOffsets(edit.ReminderOffsets)
			resetSent = true
		}
		if edit.Recurrence != nil {
			ev.Recurrence = *edit.Recurrence
		}
		if edit.Target != nil {
			ev.Target = *edit.Target
		}

		if resetSent {
			ev.ResetSent()
		}
		out = *ev
		return true, nil
	})
	if err != nil {
		return model.Event{}, err
	}
	return out, nil
}

// Cancel marks the event terminal. Cancelling twice is a no-op: the
// state is already what was asked for.
func (s *EventService) Cancel(ctx context.Context, actor model.Actor, id int) error {
	return s.store.Update(ctx, func(state *model.State) (bool, error) {
		ev := state.EventByID(id)
		if ev == nil {
			return false, ErrNotFound
		}
		if ev.Cancelled {
			return false, nil
		}
		ev.Cancelled = true
		return true, nil
	})
}

// List returns copies of events, newest first, optionally including
// cancelled ones.
func (s *EventService) List(includeCancelled bool) []model.Event {
	var out []model.Event
	s.store.View(func(state *model.State) {
		for i := len(state.Events) - 1; i >= 0; i-- {
			ev := state.Events[i]
			if ev.Cancelled && !includeCancelled {
				continue
			}
			out = append(out, *ev)
		}
	})
	return out
}

func validateEventInput(in EventInput) error {
	if in.Title == "" {
		return fmt.Errorf("title must not be empty")
	}
	for _, m := range in.ReminderOffsets {
		if m < 0 {
			return fmt.Errorf("reminder offset %d must not be negative", m)
		}
	}
	if !in.Recurrence.Valid() {
		return fmt.Errorf("unknown recurrence %q", in.Recurrence)
	}
	return in.Target.Validate()
}
