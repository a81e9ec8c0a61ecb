package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Geneteca/discord-bot/internal/model"
)

func TestEventCreateValidation(t *testing.T) {
	svc := NewEventService(newTestStore(t))
	ctx := context.Background()
	actor := model.Actor{ID: "u1"}
	when := time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)

	valid := EventInput{
		Title:           "planning",
		When:            when,
		ReminderOffsets: []int{10, 10, 60},
		Recurrence:      model.RecurrenceNone,
		Target:          model.ChannelTarget(""),
	}

	ev, err := svc.Create(ctx, actor, valid)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ev.ID != 1 || ev.CreatedBy != "u1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	// Offsets deduplicated and sorted descending.
	if len(ev.ReminderOffsets) != 2 || ev.ReminderOffsets[0] != 60 || ev.ReminderOffsets[1] != 10 {
		t.Fatalf("offsets not normalized: %v", ev.ReminderOffsets)
	}

	bad := []EventInput{
		func(in EventInput) EventInput { in.Title = ""; return in }(valid),
		func(in EventInput) EventInput { in.ReminderOffsets = []int{-1}; return in }(valid),
		func(in EventInput) EventInput { in.Recurrence = "yearly"; return in }(valid),
		func(in EventInput) EventInput {
			in.Target = model.Target{ChannelID: "c1", UserIDs: []string{"u2"}}
			return in
		}(valid),
	}
	for i, in := range bad {
		if _, err := svc.Create(ctx, actor, in); err == nil {
			t.Fatalf("bad input %d accepted", i)
		}
	}

	// Monotonic ids: the next event gets id 2 even though nothing was
	// deleted in between.
	ev2, err := svc.Create(ctx, actor, valid)
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if ev2.ID != 2 {
		t.Fatalf("expected id 2, got %d", ev2.ID)
	}
}

func TestEventEditResetsSentOffsets(t *testing.T) {
	st := newTestStore(t)
	svc := NewEventService(st)
	ctx := context.Background()
	actor := model.Actor{ID: "u1"}

	when := time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)
	id := addEvent(t, st, &model.Event{
		Title:           "demo",
		When:            when,
		ReminderOffsets: []int{30, 10},
		SentOffsets:     []int{30},
		Recurrence:      model.RecurrenceNone,
		Target:          model.ChannelTarget(""),
	})

	// Title-only edits keep dedup state: the occurrence is unchanged.
	title := "dress rehearsal"
	ev, err := svc.Edit(ctx, actor, id, EventEdit{Title: &title})
	if err != nil {
		t.Fatalf("Edit title: %v", err)
	}
	if !ev.OffsetSent(30) {
		t.Fatal("title edit must not reset sent offsets")
	}

	// Moving the event resets dedup, or stale state would suppress
	// reminders for the new time.
	newWhen := when.Add(2 * time.Hour)
	ev, err = svc.Edit(ctx, actor, id, EventEdit{When: &newWhen})
	if err != nil {
		t.Fatalf("Edit when: %v", err)
	}
	if len(ev.SentOffsets) != 0 {
		t.Fatalf("when edit must reset sent offsets, got %v", ev.SentOffsets)
	}
	if !ev.When.Equal(newWhen) {
		t.Fatalf("when not updated: %v", ev.When)
	}
}

func TestEventCancelIsTerminal(t *testing.T) {
	st := newTestStore(t)
	svc := NewEventService(st)
	ctx := context.Background()
	actor := model.Actor{ID: "u1"}

	id := addEvent(t, st, &model.Event{
		Title:           "party",
		When:            time.Now().Add(time.Hour),
		ReminderOffsets: []int{10},
		Recurrence:      model.RecurrenceWeekly,
		Target:          model.ChannelTarget(""),
	})

	if err := svc.Cancel(ctx, actor, id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	// Cancelling twice is a harmless no-op.
	if err := svc.Cancel(ctx, actor, id); err != nil {
		t.Fatalf("second Cancel: %v", err)
	}

	title := "afterparty"
	if _, err := svc.Edit(ctx, actor, id, EventEdit{Title: &title}); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled editing a cancelled event, got %v", err)
	}

	if err := svc.Cancel(ctx, actor, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Cancelled events drop out of the default listing but are never
	// physically deleted.
	if got := svc.List(false); len(got) != 0 {
		t.Fatalf("cancelled event still listed: %+v", got)
	}
	if got := svc.List(true); len(got) != 1 {
		t.Fatalf("cancelled event was deleted: %+v", got)
	}
}
