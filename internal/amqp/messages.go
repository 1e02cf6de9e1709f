package amqp

import (
	"encoding/json"
	"time"

	"launchrates/internal/core"
)

// RatesFetchedMessage announces that a rate table was fetched from the
// provider. It carries a summary, not the table itself.
type RatesFetchedMessage struct {
	Base       string    `json:"base"`
	Currencies int       `json:"currencies"`
	FetchedAt  time.Time `json:"fetched_at"`
}

func NewRatesFetchedMessage(table core.RateTable, fetchedAt time.Time) *RatesFetchedMessage {
	return &RatesFetchedMessage{
		Base:       table.Base,
		Currencies: len(table.Rates),
		FetchedAt:  fetchedAt,
	}
}

func (m *RatesFetchedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RoutingKey is "rates.fetched.<base>" so consumers can bind per currency.
func (m *RatesFetchedMessage) RoutingKey() string {
	return "rates.fetched." + m.Base
}

func RatesFetchedMessageFromJSON(data []byte) (*RatesFetchedMessage, error) {
	var msg RatesFetchedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
