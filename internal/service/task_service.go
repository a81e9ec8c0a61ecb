package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Geneteca/discord-bot/internal/model"
	"github.com/Geneteca/discord-bot/internal/store"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description string
	Due         *time.Time
	Visibility  model.Visibility
}

// TaskEdit carries partial changes; nil fields stay untouched.
// ClearDue removes the due date (a nil Due alone means "unchanged").
type TaskEdit struct {
	Title       *string
	Description *string
	Due         *time.Time
	ClearDue    bool
	Visibility  *model.Visibility
}

// TaskService wraps task business logic behind the visibility and
// modification gates. Every mutation path refuses soft-deleted tasks
// (the state lookup already skips them) and actors outside CanModify.
type TaskService struct {
	store *store.Store
}

func NewTaskService(st *store.Store) *TaskService {
	return &TaskService{store: st}
}

func (s *TaskService) Create(ctx context.Context, actor model.Actor, in TaskInput) (model.Task, error) {
	if in.Title == "" {
		return model.Task{}, fmt.Errorf("title must not be empty")
	}
	if err := in.Visibility.Validate(); err != nil {
		return model.Task{}, err
	}

	task := &model.Task{
		Title:       in.Title,
		Description: in.Description,
		Due:         in.Due,
		Visibility:  in.Visibility,
		CreatedBy:   actor.ID,
		CreatedAt:   time.Now(),
	}

	err := s.store.Update(ctx, func(state *model.State) (bool, error) {
		state.AddTask(task)
		return true, nil
	})
	if err != nil {
		return model.Task{}, err
	}
	return *task, nil
}

// List returns copies of the tasks the actor may see, oldest first.
func (s *TaskService) List(actor model.Actor) []model.Task {
	var out []model.Task
	s.store.View(func(state *model.State) {
		for _, t := range state.Todos {
			if IsVisible(*t, actor) {
				out = append(out, *t)
			}
		}
	})
	return out
}

// Get returns a visible task. A task the actor may not see is
// indistinguishable from a missing one.
func (s *TaskService) Get(actor model.Actor, id int) (model.Task, error) {
	var out model.Task
	found := false
	s.store.View(func(state *model.State) {
		if t := state.TaskByID(id); t != nil && IsVisible(*t, actor) {
			out = *t
			found = true
		}
	})
	if !found {
		return model.Task{}, ErrNotFound
	}
	return out, nil
}

// SetDone flips completion state through the modification gate.
func (s *TaskService) SetDone(ctx context.Context, actor model.Actor, id int, done bool, at time.Time) (model.Task, error) {
	return s.mutate(ctx, actor, id, func(t *model.Task) error {
		t.Done = done
		if done {
			doneAt := at
			t.DoneAt = &doneAt
		} else {
			t.DoneAt = nil
		}
		return nil
	})
}

func (s *TaskService) Edit(ctx context.Context, actor model.Actor, id int, edit TaskEdit) (model.Task, error) {
	return s.mutate(ctx, actor, id, func(t *model.Task) error {
		// Validate before applying so a bad field cannot leave a
		// half-applied mutation in memory.
		if edit.Title != nil && *edit.Title == "" {
			return fmt.Errorf("title must not be empty")
		}
		if edit.Visibility != nil {
			if err := edit.Visibility.Validate(); err != nil {
				return err
			}
		}

		if edit.Title != nil {
			t.Title = *edit.Title
		}
		if edit.Description != nil {
			t.Description = *edit.Description
		}
		if edit.ClearDue {
			t.Due = nil
		} else if edit.Due != nil {
			due := *edit.Due
			t.Due = &due
		}
		if edit.Visibility != nil {
			t.Visibility = *edit.Visibility
		}
		return nil
	})
}

// Delete soft-deletes: the task leaves every view but stays in the
// snapshot as an audit trail.
func (s *TaskService) Delete(ctx context.Context, actor model.Actor, id int) error {
	_, err := s.mutate(ctx, actor, id, func(t *model.Task) error {
		t.Deleted = true
		return nil
	})
	return err
}

func (s *TaskService) mutate(ctx context.Context, actor model.Actor, id int, fn func(t *model.Task) error) (model.Task, error) {
	var out model.Task
	err := s.store.Update(ctx, func(state *model.State) (bool, error) {
		t := state.TaskByID(id)
		if t == nil {
			return false, ErrNotFound
		}
		// CanModify alone is the gate: an elevated actor may mutate a
		// task they cannot see. A task that is neither visible nor
		// modifiable stays indistinguishable from a missing one.
		if !CanModify(*t, actor) {
			if !IsVisible(*t, actor) {
				return false, ErrNotFound
			}
			return false, ErrNotAllowed
		}
		if err := fn(t); err != nil {
			return false, err
		}
		out = *t
		return true, nil
	})
	if err != nil {
		return model.Task{}, err
	}
	return out, nil
}
