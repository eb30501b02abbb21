package api

import "time"

// Record is one measurement object with its keys in document order.
type Record struct {
	Keys   []string
	Values map[string]string
}

// Get returns the cell text for key, or "" when the record lacks it.
func (r Record) Get(key string) string {
	return r.Values[key]
}

// Payload is a fetched backup. Header is the key order of the first record.
type Payload struct {
	Header    []string
	Records   []Record
	URL       string
	FetchedAt time.Time
	Duration  time.Duration
}
