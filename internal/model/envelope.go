package model

import (
	"time"

	"github.com/goccy/go-json"
)

// TimestampLayout is ISO-8601 with a fixed millisecond fraction, matching the
// precision of UnixTimestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type Envelope struct {
	ClientID      string `json:"clientId"`
	UnixTimestamp int64  `json:"unixTimestamp"`
	Timestamp     string `json:"timestamp"`
	Kpis          []Kpi  `json:"kpis"`
}

// NewEnvelope stamps kpis with a single instant. Both timestamps are derived
// from the same millisecond-truncated value so they always agree.
func NewEnvelope(clientID string, kpis []Kpi, now time.Time) *Envelope {
	at := time.UnixMilli(now.UnixMilli()).UTC()
	return &Envelope{
		ClientID:      clientID,
		UnixTimestamp: at.UnixMilli(),
		Timestamp:     at.Format(TimestampLayout),
		Kpis:          kpis,
	}
}

func (e *Envelope) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
