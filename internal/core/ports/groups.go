package ports

import "context"

// GroupTimestampUpdater bumps a group's modification time when one of its
// definitions changes. Fire-and-forget from the core's perspective.
type GroupTimestampUpdater interface {
	Touch(ctx context.Context, groupID string) error
}
