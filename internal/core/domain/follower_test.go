package domain

import (
	"reflect"
	"testing"
)

func TestFollowIsIdempotent(t *testing.T) {
	set := FollowerSet{"u1", "u2"}

	once := set.Follow("u3")
	twice := once.Follow("u3")

	want := FollowerSet{"u1", "u2", "u3"}
	if !reflect.DeepEqual(once, want) {
		t.Fatalf("unexpected set after follow: %v", once)
	}
	if !reflect.DeepEqual(twice, want) {
		t.Fatalf("second follow changed the set: %v", twice)
	}
}

func TestFollowPreservesInsertionOrder(t *testing.T) {
	var set FollowerSet
	for _, id := range []string{"u3", "u1", "u2"} {
		set = set.Follow(id)
	}
	want := FollowerSet{"u3", "u1", "u2"}
	if !reflect.DeepEqual(set, want) {
		t.Fatalf("unexpected order: %v", set)
	}
}

func TestUnfollowAbsentIsNoOp(t *testing.T) {
	set := FollowerSet{"u1", "u2"}
	out := set.Unfollow("u9")
	if !reflect.DeepEqual(out, set) {
		t.Fatalf("unfollow of absent id changed the set: %v", out)
	}
}

func TestUnfollowRemovesOnlyTarget(t *testing.T) {
	set := FollowerSet{"u1", "u2", "u3"}
	out := set.Unfollow("u2")
	want := FollowerSet{"u1", "u3"}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("unexpected set after unfollow: %v", out)
	}
	if !reflect.DeepEqual(set, FollowerSet{"u1", "u2", "u3"}) {
		t.Fatalf("receiver mutated: %v", set)
	}
}

func TestWithoutExcludesEditorWithoutMutating(t *testing.T) {
	set := FollowerSet{"u1", "u2", "u3"}
	recipients := set.Without("u2")

	if !reflect.DeepEqual(recipients, []string{"u1", "u3"}) {
		t.Fatalf("unexpected recipients: %v", recipients)
	}
	if !reflect.DeepEqual(set, FollowerSet{"u1", "u2", "u3"}) {
		t.Fatalf("projection mutated the set: %v", set)
	}
}

func TestWithoutOnNonFollowerReturnsAll(t *testing.T) {
	set := FollowerSet{"u1", "u2"}
	recipients := set.Without("u9")
	if !reflect.DeepEqual(recipients, []string{"u1", "u2"}) {
		t.Fatalf("unexpected recipients: %v", recipients)
	}
}
