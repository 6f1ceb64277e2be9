package domain

import "time"

// BusEventTimeFormat is the wire format of the eventDateTime field. Bus
// subscribers parse it as-is, so it must not change.
const BusEventTimeFormat = "2006-01-02 15:04:05 -0700"

// BusEvent is the transient projection of an action event handed to the
// external event bus. It is never persisted by this subsystem; losing one on
// publish failure is accepted. The Description key set is the de-facto
// contract toward bus subscribers and is reproduced verbatim.
type BusEvent struct {
	Source      string
	Category    string
	Type        string
	EntityType  string
	EntityUUID  string
	Description map[string]string
}

// NewBusEvent assembles the subscriber-facing description map. Empty values
// are still emitted under their keys to keep the field set stable.
func NewBusEvent(source, eventType string, state EventState, userUUID, accountUUID, entityType, entityUUID, description, oldEntityName string, at time.Time) BusEvent {
	return BusEvent{
		Source:     source,
		Category:   CategoryActionEvent,
		Type:       eventType,
		EntityType: entityType,
		EntityUUID: entityUUID,
		Description: map[string]string{
			"user":          userUUID,
			"account":       accountUUID,
			"event":         eventType,
			"status":        string(state),
			"entity":        entityType,
			"entityuuid":    entityUUID,
			"description":   description,
			"oldentityname": oldEntityName,
			"eventDateTime": at.Format(BusEventTimeFormat),
		},
	}
}
