package model

import (
	"fmt"
	"time"
)

// ScopeKind is the visibility class of a task.
type ScopeKind string

const (
	ScopePublic  ScopeKind = "public"
	ScopePrivate ScopeKind = "private"
	ScopeUser    ScopeKind = "user"
	ScopeRole    ScopeKind = "role"
)

// Visibility is a tagged scope: the assignee fields are only meaningful
// for the kind that selects them. Use the constructors so illegal
// combinations don't come up in the first place; Validate catches the
// rest at the command boundary.
type Visibility struct {
	Kind   ScopeKind `json:"kind"`
	UserID string    `json:"user_id,omitempty"`
	RoleID string    `json:"role_id,omitempty"`
}

func Public() Visibility  { return Visibility{Kind: ScopePublic} }
func Private() Visibility { return Visibility{Kind: ScopePrivate} }

func ForUser(userID string) Visibility { return Visibility{Kind: ScopeUser, UserID: userID} }
func ForRole(roleID string) Visibility { return Visibility{Kind: ScopeRole, RoleID: roleID} }

func (v Visibility) Validate() error {
	switch v.Kind {
	case ScopePublic, ScopePrivate:
		if v.UserID != "" || v.RoleID != "" {
			return fmt.Errorf("%s scope must not carry an assignee", v.Kind)
		}
	case ScopeUser:
		if v.UserID == "" {
			return fmt.Errorf("user scope requires an assigned user")
		}
		if v.RoleID != "" {
			return fmt.Errorf("user scope must not carry a role")
		}
	case ScopeRole:
		if v.RoleID == "" {
			return fmt.Errorf("role scope requires an assigned role")
		}
		if v.UserID != "" {
			return fmt.Errorf("role scope must not carry a user")
		}
	default:
		return fmt.Errorf("unknown scope %q", v.Kind)
	}
	return nil
}

// Task is a single item on the shared list.
type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Due         *time.Time `json:"due,omitempty"`
	Visibility  Visibility `json:"visibility"`
	CreatedBy   string     `json:"created_by"`
	Done        bool       `json:"done"`
	DoneAt      *time.Time `json:"done_at,omitempty"`
	// Deleted is a soft flag: the row stays in the snapshot for audit
	// but drops out of every view and mutation path.
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
}
