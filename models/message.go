package models

// Message holds the structure for a single vehicle message as returned
// by the messages endpoint
type Message struct {
	ID        string `json:"_id"`
	Text      string `json:"message"`
	Timestamp string `json:"timestamp"`

	// OriginVehicle is filled in from the enclosing TruckMessage when the
	// history batch is flattened; the backend does not repeat it per message.
	OriginVehicle string `json:"-"`
}

// TruckMessage holds the per-vehicle history unit returned by
// GET /api/vehicles/messages/{vehicleNumber}. The collection is refreshed
// wholesale on every poll.
type TruckMessage struct {
	ID          string    `json:"_id"`
	TruckNumber string    `json:"truckNumber"`
	Messages    []Message `json:"messages"`
}
