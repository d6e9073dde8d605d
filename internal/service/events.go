package service

import (
	"encoding/json"
	"log"

	ws "backend/internal/websocket"
)

// Domain event types pushed to the notification hub.
const (
	EventMaterialRouted     = "material_routed"
	EventCRFullyRouted      = "cr_fully_routed"
	EventInspectionRecorded = "inspection_recorded"
	EventReturnResolved     = "return_resolved"
	EventIterationSpawned   = "iteration_spawned"
)

// DomainEvent is the wire shape broadcast to connected clients.
type DomainEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// publishEvent pushes a domain event to the hub without blocking.
// Delivery is fire-and-forget: a full or absent hub never fails the
// core transaction that emitted the event.
func publishEvent(hub *ws.Hub, event string, data map[string]interface{}) {
	if hub == nil {
		return
	}
	payload, err := json.Marshal(DomainEvent{Event: event, Data: data})
	if err != nil {
		log.Printf("event marshal failed (%s): %v", event, err)
		return
	}
	select {
	case hub.Broadcast <- payload:
	default:
		log.Printf("event dropped, hub busy: %s", event)
	}
}
