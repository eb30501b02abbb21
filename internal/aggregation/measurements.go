package aggregation

import (
	"trialstats/domain/core"
	"trialstats/domain/trial"
)

// MeasurementsPerRoom counts the distinct measurement ids recorded per room.
func MeasurementsPerRoom(table *trial.Table, cfg Config) (*trial.Table, error) {
	if table == nil {
		return nil, core.ErrNoData
	}
	if !table.Has(cfg.MeasurementColumn) {
		return nil, core.NewMissingColumnError("measurement", cfg.MeasurementColumn)
	}
	rooms, err := groupRows(table, []string{cfg.RoomColumn})
	if err != nil {
		return nil, err
	}

	out := trial.NewTable([]string{cfg.RoomColumn, ColumnNumMeasurements})
	for _, r := range rooms {
		if err := out.Append(r.key[0], trial.Int(distinctCount(table, cfg.MeasurementColumn, r.rows))); err != nil {
			return nil, err
		}
	}
	return out, nil
}
