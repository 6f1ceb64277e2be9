package domain

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		eventType string
		kind      EntityKind
		phase     ActionPhase
		mutation  bool
	}{
		{"DOMAIN.CREATE", KindDomain, PhaseCreate, true},
		{"ACCOUNT.UPDATE", KindAccount, PhaseUpdate, true},
		{"USER.DELETE", KindUser, PhaseDelete, true},
		{"ACCOUNT.ENABLE", KindAccount, PhaseOther, false},
		{"VM.START", KindOther, PhaseOther, false},
		{"VM.CREATE", KindOther, PhaseCreate, true},
		{"", KindOther, PhaseOther, false},
	}

	for _, c := range cases {
		got := Classify(c.eventType)
		if got.Kind != c.kind || got.Phase != c.phase {
			t.Errorf("Classify(%q) = %+v, want kind %q phase %q", c.eventType, got, c.kind, c.phase)
		}
		if got.Mutation() != c.mutation {
			t.Errorf("Classify(%q).Mutation() = %v, want %v", c.eventType, got.Mutation(), c.mutation)
		}
	}
}

func TestNewBusEventTimeFormat(t *testing.T) {
	at := time.Date(2026, 1, 2, 15, 4, 5, 0, time.FixedZone("", -5*3600))
	event := NewBusEvent("actionlog", "USER.DELETE", StateCompleted,
		"user-1", "acct-1", "User", "user-2", "deleting user", "", at)

	if got := event.Description["eventDateTime"]; got != "2026-01-02 15:04:05 -0500" {
		t.Fatalf("unexpected eventDateTime: %q", got)
	}
	if event.Category != CategoryActionEvent {
		t.Fatalf("unexpected category: %q", event.Category)
	}
	if len(event.Description) != 9 {
		t.Fatalf("description must carry exactly 9 keys, got %d", len(event.Description))
	}
}

func TestEventStateValid(t *testing.T) {
	for _, s := range []EventState{StateCreated, StateScheduled, StateStarted, StateCompleted} {
		if !s.Valid() {
			t.Errorf("%s must be valid", s)
		}
	}
	if EventState("Running").Valid() {
		t.Error("unknown state must be invalid")
	}
}
