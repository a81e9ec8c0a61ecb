package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Geneteca/discord-bot/internal/model"
)

// Scenario: a user-scoped task is visible and modifiable to the
// assignee, hidden and locked for everyone else without elevation.
func TestUserScopedTaskEndToEnd(t *testing.T) {
	svc := NewTaskService(newTestStore(t))
	ctx := context.Background()

	creator := model.Actor{ID: "U1"}
	assignee := model.Actor{ID: "U2"}
	stranger := model.Actor{ID: "U3"}
	admin := model.Actor{ID: "U3", Elevated: true}

	task, err := svc.Create(ctx, creator, TaskInput{
		Title:      "review release notes",
		Visibility: model.ForUser("U2"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(assignee, task.ID); err != nil {
		t.Fatalf("assignee cannot see task: %v", err)
	}
	if _, err := svc.Get(stranger, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stranger sees task: %v", err)
	}

	if _, err := svc.SetDone(ctx, assignee, task.ID, true, time.Now()); err != nil {
		t.Fatalf("assignee cannot complete: %v", err)
	}
	if _, err := svc.SetDone(ctx, stranger, task.ID, true, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stranger should get not-found, got %v", err)
	}
	// Same user with the elevated bit set passes the gate.
	if _, err := svc.SetDone(ctx, admin, task.ID, false, time.Now()); err != nil {
		t.Fatalf("elevated actor cannot modify: %v", err)
	}
}

func TestTaskCreateValidation(t *testing.T) {
	svc := NewTaskService(newTestStore(t))
	ctx := context.Background()
	actor := model.Actor{ID: "u1"}

	if _, err := svc.Create(ctx, actor, TaskInput{Title: "", Visibility: model.Public()}); err == nil {
		t.Fatal("empty title accepted")
	}
	bad := []model.Visibility{
		{Kind: model.ScopeUser},                             // user scope without assignee
		{Kind: model.ScopeRole},                             // role scope without role
		{Kind: model.ScopeRole, UserID: "u2", RoleID: "r1"}, // both assignees set
		{Kind: model.ScopePublic, UserID: "u2"},             // assignee on public
		{Kind: "secret"},                                    // unknown scope
	}
	for i, v := range bad {
		if _, err := svc.Create(ctx, actor, TaskInput{Title: "t", Visibility: v}); err == nil {
			t.Fatalf("bad visibility %d accepted", i)
		}
	}
}

func TestTaskDoneTracksTimestamp(t *testing.T) {
	svc := NewTaskService(newTestStore(t))
	ctx := context.Background()
	actor := model.Actor{ID: "u1"}

	task, err := svc.Create(ctx, actor, TaskInput{Title: "water plants", Visibility: model.Private()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	doneAt := time.Date(2026, time.May, 1, 8, 0, 0, 0, time.UTC)
	task, err = svc.SetDone(ctx, actor, task.ID, true, doneAt)
	if err != nil {
		t.Fatalf("SetDone: %v", err)
	}
	if !task.Done || task.DoneAt == nil || !task.DoneAt.Equal(doneAt) {
		t.Fatalf("completion state wrong: %+v", task)
	}

	task, err = svc.SetDone(ctx, actor, task.ID, false, time.Now())
	if err != nil {
		t.Fatalf("SetDone undo: %v", err)
	}
	if task.Done || task.DoneAt != nil {
		t.Fatalf("reopen did not clear completion: %+v", task)
	}
}

func TestSoftDeleteExcludesEverywhere(t *testing.T) {
	st := newTestStore(t)
	svc := NewTaskService(st)
	ctx := context.Background()
	creator := model.Actor{ID: "u1"}
	admin := model.Actor{ID: "u9", Elevated: true}

	task, err := svc.Create(ctx, creator, TaskInput{Title: "old chore", Visibility: model.Public()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, creator, task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if got := svc.List(creator); len(got) != 0 {
		t.Fatalf("deleted task still listed: %+v", got)
	}
	if _, err := svc.Get(creator, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted task still visible: %v", err)
	}
	// Not even elevation reaches a soft-deleted task.
	if _, err := svc.SetDone(ctx, admin, task.ID, true, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted task still mutable: %v", err)
	}

	// The row stays in the snapshot as an audit trail.
	st.View(func(state *model.State) {
		if len(state.Todos) != 1 || !state.Todos[0].Deleted {
			t.Fatalf("soft-deleted task missing from snapshot: %+v", state.Todos)
		}
	})
}

func TestTaskListFiltersByVisibility(t *testing.T) {
	svc := NewTaskService(newTestStore(t))
	ctx := context.Background()

	creator := model.Actor{ID: "u1"}
	devops := model.Actor{ID: "u2", Roles: []string{"r-devops"}}

	mustCreate := func(in TaskInput) {
		t.Helper()
		if _, err := svc.Create(ctx, creator, in); err != nil {
			t.Fatalf("Create %q: %v", in.Title, err)
		}
	}
	mustCreate(TaskInput{Title: "public", Visibility: model.Public()})
	mustCreate(TaskInput{Title: "secret", Visibility: model.Private()})
	mustCreate(TaskInput{Title: "rotate keys", Visibility: model.ForRole("r-devops")})
	mustCreate(TaskInput{Title: "for u3", Visibility: model.ForUser("u3")})

	got := svc.List(devops)
	if len(got) != 2 {
		t.Fatalf("expected public + role task, got %+v", got)
	}
	for _, task := range got {
		if task.Title != "public" && task.Title != "rotate keys" {
			t.Fatalf("unexpected task visible: %q", task.Title)
		}
	}

	// The creator sees everything they created.
	if got := svc.List(creator); len(got) != 4 {
		t.Fatalf("creator should see all 4, got %d", len(got))
	}
}

func TestTaskEditPartialFields(t *testing.T) {
	svc := NewTaskService(newTestStore(t))
	ctx := context.Background()
	actor := model.Actor{ID: "u1"}

	due := time.Date(2026, time.June, 1, 18, 0, 0, 0, time.UTC)
	task, err := svc.Create(ctx, actor, TaskInput{Title: "write report", Due: &due, Visibility: model.Private()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	desc := "quarterly numbers"
	task, err = svc.Edit(ctx, actor, task.ID, TaskEdit{Description: &desc})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if task.Description != desc || task.Title != "write report" || task.Due == nil {
		t.Fatalf("partial edit touched other fields: %+v", task)
	}

	task, err = svc.Edit(ctx, actor, task.ID, TaskEdit{ClearDue: true})
	if err != nil {
		t.Fatalf("Edit clear due: %v", err)
	}
	if task.Due != nil {
		t.Fatalf("due not cleared: %+v", task)
	}
}
