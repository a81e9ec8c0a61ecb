package model

// State is the whole persisted snapshot: all events and tasks plus the
// id counters. Counters only ever go up; ids are never reused, not even
// after cancellation or soft deletion.
type State struct {
	Events      []*Event `json:"events"`
	NextEventID int      `json:"nextEventId"`
	Todos       []*Task  `json:"todos"`
	NextTodoID  int      `json:"nextTodoId"`
}

func NewState() *State {
	return &State{NextEventID: 1, NextTodoID: 1}
}

// Normalize repairs a freshly decoded snapshot: zero counters are
// bumped past the highest existing id so older snapshots never hand
// out duplicates.
func (s *State) Normalize() {
	for _, e := range s.Events {
		if e.ID >= s.NextEventID {
			s.NextEventID = e.ID + 1
		}
		e.ReminderOffsets = NormalizeOffsets(e.ReminderOffsets)
	}
	for _, t := range s.Todos {
		if t.ID >= s.NextTodoID {
			s.NextTodoID = t.ID + 1
		}
	}
	if s.NextEventID < 1 {
		s.NextEventID = 1
	}
	if s.NextTodoID < 1 {
		s.NextTodoID = 1
	}
}

func (s *State) EventByID(id int) *Event {
	for _, e := range s.Events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// TaskByID returns the task with the given id, skipping soft-deleted
// ones: deleted tasks are invisible to every lookup.
func (s *State) TaskByID(id int) *Task {
	for _, t := range s.Todos {
		if t.ID == id && !t.Deleted {
			return t
		}
	}
	return nil
}

// AddEvent assigns the next id and appends.
func (s *State) AddEvent(e *Event) {
	e.ID = s.NextEventID
	s.NextEventID++
	s.Events = append(s.Events, e)
}

// AddTask assigns the next id and appends.
func (s *State) AddTask(t *Task) {
	t.ID = s.NextTodoID
	s.NextTodoID++
	s.Todos = append(s.Todos, t)
}
