package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"maintrack/internal/core"
)

// RecordCreatedMessage announces a stored maintenance record. The worker
// loads the full record by id, so only a summary travels on the wire.
type RecordCreatedMessage struct {
	RecordID   string    `json:"record_id"`
	Month      int       `json:"month"`
	Year       int       `json:"year"`
	GrandTotal float64   `json:"grand_total"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewRecordCreatedMessage(rec core.MaintenanceRecord) *RecordCreatedMessage {
	return &RecordCreatedMessage{
		RecordID:   rec.ID,
		Month:      rec.Period.Month,
		Year:       rec.Period.Year,
		GrandTotal: rec.GrandTotal,
		Timestamp:  time.Now().UTC(),
	}
}

func (m *RecordCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordCreatedMessageFromJSON decodes a message and rejects one without a
// record id.
func RecordCreatedMessageFromJSON(data []byte) (*RecordCreatedMessage, error) {
	var msg RecordCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.RecordID == "" {
		return nil, errors.New("record.created message without record_id")
	}
	return &msg, nil
}

// Period returns the record period carried by the message.
func (m *RecordCreatedMessage) Period() core.Period {
	return core.Period{Month: m.Month, Year: m.Year}
}
