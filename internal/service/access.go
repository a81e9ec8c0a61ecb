package service

import "github.com/Geneteca/discord-bot/internal/model"

// IsVisible reports whether the actor may see the task. Pure predicate,
// no I/O: the Actor snapshot carries everything platform-specific.
func IsVisible(task model.Task, actor model.Actor) bool {
	if task.Deleted {
		return false
	}
	if task.CreatedBy == actor.ID {
		return true
	}
	switch task.Visibility.Kind {
	case model.ScopePublic:
		return true
	case model.ScopePrivate:
		return false
	case model.ScopeUser:
		return task.Visibility.UserID == actor.ID
	case model.ScopeRole:
		return actor.HasRole(task.Visibility.RoleID)
	default:
		return false
	}
}

// CanModify reports whether the actor may mutate the task: the creator,
// the user-scope assignee, or anyone with elevated permission.
// Role-scope holders get visibility only, not mutation rights.
func CanModify(task model.Task, actor model.Actor) bool {
	if task.Deleted {
		return false
	}
	if task.CreatedBy == actor.ID {
		return true
	}
	if task.Visibility.Kind == model.ScopeUser && task.Visibility.UserID == actor.ID {
		return true
	}
	return actor.Elevated
}
