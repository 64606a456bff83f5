package models

// Realtime event names shared by the client and the backend.
const (
	EventJoinRoom    = "joinRoom"
	EventSendMessage = "sendMessage"
	EventEndRoute    = "endRoute"
	EventMessage     = "message"
)

// Envelope is the named-event frame exchanged over the realtime transport.
// Outbound intents (joinRoom, sendMessage, endRoute) and the inbound
// message event all use the same shape; unused fields are omitted.
type Envelope struct {
	Event         string `json:"event"`
	VehicleNumber string `json:"vehicleNumber,omitempty"`
	Message       string `json:"message,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`

	// CorrelationID is a client-generated uuid attached to sendMessage so
	// the server echo of one's own message can be told apart from messages
	// authored elsewhere.
	CorrelationID string `json:"correlationId,omitempty"`
}
