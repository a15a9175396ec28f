package domain

import "time"

// NotifyDebounce is the minimum interval between the save time and the
// modification time the editor saw when they started editing. Saves that
// round-trip faster than this are considered too close to a prior edit
// to be worth alerting followers about.
const NotifyDebounce = 10 * time.Minute

// ShouldNotify decides whether an edit produces a change notification.
// It compares the new save time against the client-submitted last-seen
// modification time, not against the server's last notification time, so
// a stale editor always notifies while a quick round-trip does not. A
// missing or zero client timestamp fails closed and notifies.
func ShouldNotify(modifiedAt time.Time, clientSeen *time.Time) bool {
	if clientSeen == nil || clientSeen.IsZero() {
		return true
	}
	return modifiedAt.Sub(*clientSeen) >= NotifyDebounce
}
