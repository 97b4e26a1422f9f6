package out

import (
	"encoding/json"
)

type Envelope struct {
	Type string          `json:"type"` // e.g. "feed_value"
	TS   int64           `json:"ts"`   // unix milli, emit time
	Data json.RawMessage `json:"data"`
}

const TypeFeedValue = "feed_value"

// FeedValue is one aggregated observation: the median of the distinct
// authorised signers' values for one feed at TimestampMs.
type FeedValue struct {
	FeedID      string `json:"feed_id"` // 0x-hex, 32 bytes
	Symbol      string `json:"symbol"`
	Value       string `json:"value"` // decimal string, may exceed int64
	TimestampMs int64  `json:"timestamp_ms"`
	Signers     int    `json:"signers"` // distinct signers behind the value
}
