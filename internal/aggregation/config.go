// Package aggregation reduces raw trial tables into per-configuration outcome
// rates, room rollups, weighted summaries and pivot matrices.
//
// Every function in this package is a pure transformation of its inputs: no
// I/O, no logging, no shared state. Callers own loading and exporting.
package aggregation

import (
	"trialstats/domain/trial"
)

// Column names produced by the aggregator.
const (
	ColumnRoomCount        = "room_count"
	ColumnMeasurementCount = "measurement_count"
	ColumnNumMeasurements  = "num_measurements"
	WeightedPrefix         = "weighted_"
)

// Config names the columns the pipeline relies on and the outcome taxonomy.
// It replaces hard-coded column lists; pass it to every call.
type Config struct {
	RoomColumn        string
	OutcomeColumn     string
	MeasurementColumn string
	DistanceColumn    string
	DurationColumn    string

	// ExcludedColumns are never treated as factors. Entries absent from a
	// table are ignored.
	ExcludedColumns []string

	// RollupExtra is appended to the factor columns when rolling up, e.g.
	// room_name and room_count to keep one summary row per room.
	RollupExtra []string

	Taxonomy     trial.Taxonomy
	WeightColumn string
}

// DefaultConfig matches the column layout written by the measurement backend.
func DefaultConfig() Config {
	return Config{
		RoomColumn:        "room_name",
		OutcomeColumn:     "correct",
		MeasurementColumn: "measurement_id",
		DistanceColumn:    "distance",
		DurationColumn:    "duration",
		ExcludedColumns: []string{
			"correct", "duration", "distance", "predict_room",
			"room_id", "room_name", "measurement_id", "device_id",
		},
		Taxonomy:     trial.BinaryTaxonomy(),
		WeightColumn: ColumnRoomCount,
	}
}

// Exclusions returns the configured exclusion list plus every incidental and
// outcome column the config names, without duplicates.
func (c Config) Exclusions() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, name := range c.ExcludedColumns {
		add(name)
	}
	add(c.RoomColumn)
	add(c.OutcomeColumn)
	add(c.MeasurementColumn)
	add(c.DistanceColumn)
	add(c.DurationColumn)
	return out
}
