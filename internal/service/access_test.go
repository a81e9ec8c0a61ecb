package service

import (
	"testing"

	"github.com/Geneteca/discord-bot/internal/model"
)

func TestIsVisible(t *testing.T) {
	creator := model.Actor{ID: "u1"}
	assignee := model.Actor{ID: "u2"}
	roleHolder := model.Actor{ID: "u3", Roles: []string{"r1", "r2"}}
	stranger := model.Actor{ID: "u4"}

	cases := []struct {
		name  string
		task  model.Task
		actor model.Actor
		want  bool
	}{
		{"public visible to anyone", task(model.Public(), "u1"), stranger, true},
		{"private hidden from others", task(model.Private(), "u1"), stranger, false},
		{"private visible to creator", task(model.Private(), "u1"), creator, true},
		{"user scope visible to assignee", task(model.ForUser("u2"), "u1"), assignee, true},
		{"user scope visible to creator", task(model.ForUser("u2"), "u1"), creator, true},
		{"user scope hidden from others", task(model.ForUser("u2"), "u1"), stranger, false},
		{"role scope visible to role holder", task(model.ForRole("r1"), "u1"), roleHolder, true},
		{"role scope visible to creator", task(model.ForRole("r1"), "u1"), creator, true},
		{"role scope hidden from unrelated actor", task(model.ForRole("r9"), "u1"), roleHolder, false},
		{"deleted hidden from everyone", deleted(task(model.Public(), "u1")), creator, false},
	}

	for _, c := range cases {
		if got := IsVisible(c.task, c.actor); got != c.want {
			t.Fatalf("%s: IsVisible = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestCanModify(t *testing.T) {
	creator := model.Actor{ID: "u1"}
	assignee := model.Actor{ID: "u2"}
	roleHolder := model.Actor{ID: "u3", Roles: []string{"r1"}}
	admin := model.Actor{ID: "u5", Elevated: true}
	stranger := model.Actor{ID: "u4"}

	cases := []struct {
		name  string
		task  model.Task
		actor model.Actor
		want  bool
	}{
		{"creator may modify", task(model.ForRole("r1"), "u1"), creator, true},
		{"user-scope assignee may modify", task(model.ForUser("u2"), "u1"), assignee, true},
		{"role holder gets visibility only", task(model.ForRole("r1"), "u1"), roleHolder, false},
		{"elevated actor may modify anything", task(model.Private(), "u1"), admin, true},
		{"stranger may not modify", task(model.Public(), "u1"), stranger, false},
		{"deleted tasks are immutable", deleted(task(model.Public(), "u1")), creator, false},
	}

	for _, c := range cases {
		if got := CanModify(c.task, c.actor); got != c.want {
			t.Fatalf("%s: CanModify = %v, want %v", c.name, got, c.want)
		}
	}
}

func task(v model.Visibility, createdBy string) model.Task {
	return model.Task{ID: 1, Title: "t", Visibility: v, CreatedBy: createdBy}
}

func deleted(t model.Task) model.Task {
	t.Deleted = true
	return t
}
