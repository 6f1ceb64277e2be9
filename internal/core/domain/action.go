package domain

import "strings"

// CategoryActionEvent is the event category this subsystem owns. Only events
// in this category are eligible for description enrichment.
const CategoryActionEvent = "ActionEvent"

// Action types recorded by the built-in directory management surface.
// External dispatch layers may record arbitrary dotted types.
const (
	EventDomainCreate  = "DOMAIN.CREATE"
	EventDomainUpdate  = "DOMAIN.UPDATE"
	EventDomainDelete  = "DOMAIN.DELETE"
	EventAccountCreate = "ACCOUNT.CREATE"
	EventAccountUpdate = "ACCOUNT.UPDATE"
	EventAccountDelete = "ACCOUNT.DELETE"
	EventUserCreate    = "USER.CREATE"
	EventUserUpdate    = "USER.UPDATE"
	EventUserDelete    = "USER.DELETE"
)

// EntityKind identifies which directory entity an action type concerns,
// derived from the dotted prefix of the type.
type EntityKind string

const (
	KindDomain  EntityKind = "Domain"
	KindAccount EntityKind = "Account"
	KindUser    EntityKind = "User"
	KindOther   EntityKind = ""
)

// ActionPhase identifies the lifecycle mutation an action type performs,
// derived from the dotted suffix of the type.
type ActionPhase string

const (
	PhaseCreate ActionPhase = "CREATE"
	PhaseUpdate ActionPhase = "UPDATE"
	PhaseDelete ActionPhase = "DELETE"
	PhaseOther  ActionPhase = ""
)

// ActionClass is the classification of a dotted action type, computed once
// so gating decisions never re-test string prefixes or suffixes downstream.
type ActionClass struct {
	Kind  EntityKind
	Phase ActionPhase
}

// Classify derives the ActionClass of a dotted action type such as
// "ACCOUNT.CREATE". Unknown prefixes yield KindOther and unknown suffixes
// PhaseOther; both disable enrichment for that axis.
func Classify(eventType string) ActionClass {
	var c ActionClass

	switch {
	case strings.HasPrefix(eventType, "DOMAIN."):
		c.Kind = KindDomain
	case strings.HasPrefix(eventType, "ACCOUNT."):
		c.Kind = KindAccount
	case strings.HasPrefix(eventType, "USER."):
		c.Kind = KindUser
	}

	switch {
	case strings.HasSuffix(eventType, ".CREATE"):
		c.Phase = PhaseCreate
	case strings.HasSuffix(eventType, ".UPDATE"):
		c.Phase = PhaseUpdate
	case strings.HasSuffix(eventType, ".DELETE"):
		c.Phase = PhaseDelete
	}

	return c
}

// Mutation reports whether the phase is one of the audited lifecycle
// mutations (create, update, delete).
func (c ActionClass) Mutation() bool {
	switch c.Phase {
	case PhaseCreate, PhaseUpdate, PhaseDelete:
		return true
	}
	return false
}
