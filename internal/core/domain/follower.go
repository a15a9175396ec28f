package domain

// FollowerSet is the ordered list of user ids subscribed to change
// notifications for one definition. Uniqueness is an invariant; the set
// is only ever changed through Follow and Unfollow.
type FollowerSet []string

func (s FollowerSet) Contains(userID string) bool {
	for _, id := range s {
		if id == userID {
			return true
		}
	}
	return false
}

// Follow returns the set with userID appended, or the set unchanged when
// userID is already present. The receiver is never mutated.
func (s FollowerSet) Follow(userID string) FollowerSet {
	if s.Contains(userID) {
		return s
	}
	out := make(FollowerSet, 0, len(s)+1)
	out = append(out, s...)
	return append(out, userID)
}

// Unfollow returns the set without userID, preserving the order of the
// remaining ids. Absent ids are a no-op.
func (s FollowerSet) Unfollow(userID string) FollowerSet {
	if !s.Contains(userID) {
		return s
	}
	out := make(FollowerSet, 0, len(s)-1)
	for _, id := range s {
		if id != userID {
			out = append(out, id)
		}
	}
	return out
}

// Without is the recipients projection: the set minus userID, used so an
// editor never notifies themself. It is never persisted.
func (s FollowerSet) Without(userID string) []string {
	out := make([]string, 0, len(s))
	for _, id := range s {
		if id != userID {
			out = append(out, id)
		}
	}
	return out
}
