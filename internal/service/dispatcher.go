package service

import (
	"context"
	"errors"
)

var (
	// ErrNotFound: no live entity with that id (cancelled events still
	// resolve; soft-deleted tasks do not).
	ErrNotFound = errors.New("not found")
	// ErrNotAllowed: the actor fails the modification gate.
	ErrNotAllowed = errors.New("not allowed")
	// ErrCancelled: the event is terminal and cannot be edited.
	ErrCancelled = errors.New("event is cancelled")
)

// Dispatcher delivers reminder messages. Implemented by the platform
// adapter. DM outcomes are reported per recipient (one Direct call
// each) so a per-recipient dedup refinement would not change this
// interface.
type Dispatcher interface {
	// Broadcast posts into a channel; an empty channelID means the
	// configured default reminder channel.
	Broadcast(ctx context.Context, channelID, message string) error
	// Direct sends a DM to a single user.
	Direct(ctx context.Context, userID, message string) error
}
