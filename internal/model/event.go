package model

import (
	"fmt"
	"sort"
	"time"
)

// Recurrence describes how an event repeats after its occurrence passes.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// Target is where reminders for an event go: a channel broadcast or a
// set of DM recipients, never both.
type Target struct {
	ChannelID string   `json:"channel_id,omitempty"`
	UserIDs   []string `json:"user_ids,omitempty"`
}

// ChannelTarget broadcasts into a channel. An empty id means the
// configured default reminder channel.
func ChannelTarget(channelID string) Target {
	return Target{ChannelID: channelID}
}

// DMTarget delivers to each listed user individually.
func DMTarget(userIDs ...string) Target {
	return Target{UserIDs: userIDs}
}

func (t Target) IsDM() bool { return len(t.UserIDs) > 0 }

func (t Target) Validate() error {
	if t.ChannelID != "" && len(t.UserIDs) > 0 {
		return fmt.Errorf("target has both channel and recipients")
	}
	for _, id := range t.UserIDs {
		if id == "" {
			return fmt.Errorf("target has empty recipient id")
		}
	}
	return nil
}

// Event is a scheduled occurrence with one or more reminder lead times.
type Event struct {
	ID    int       `json:"id"`
	Title string    `json:"title"`
	When  time.Time `json:"when"`

	// ReminderOffsets holds minutes-before-When, deduplicated and
	// sorted descending (largest lead time fires first).
	ReminderOffsets []int `json:"reminder_offsets"`
	// SentOffsets is the subset of ReminderOffsets already delivered
	// for the current occurrence.
	SentOffsets []int `json:"sent_offsets,omitempty"`

	Recurrence Recurrence `json:"recurrence"`
	Cancelled  bool       `json:"cancelled"`
	Target     Target     `json:"target"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

// OffsetSent reports whether the given offset was already delivered for
// the current occurrence.
func (e *Event) OffsetSent(minutes int) bool {
	for _, m := range e.SentOffsets {
		if m == minutes {
			return true
		}
	}
	return false
}

// MarkSent records a delivered offset. It refuses offsets that are not
// (or are no longer) part of ReminderOffsets, keeping SentOffsets a
// subset of ReminderOffsets even across concurrent edits. Returns true
// if the event changed.
func (e *Event) MarkSent(minutes int) bool {
	if e.OffsetSent(minutes) {
		return false
	}
	for _, m := range e.ReminderOffsets {
		if m == minutes {
			e.SentOffsets = append(e.SentOffsets, minutes)
			return true
		}
	}
	return false
}

// ResetSent clears delivery bookkeeping for a fresh occurrence.
func (e *Event) ResetSent() {
	e.SentOffsets = nil
}

// NormalizeOffsets deduplicates and sorts offsets descending.
func NormalizeOffsets(offsets []int) []int {
	seen := make(map[int]struct{}, len(offsets))
	out := make([]int, 0, len(offsets))
	for _, m := range offsets {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
