package core

// Summarize reduces an ordered sequence of records to its aggregate
// statistics in a single pass. It is a pure function: no I/O, no re-parsing,
// O(n) time and O(distinct types) space.
//
// For an empty sequence all averages and ranges are 0 rather than failing;
// division by zero never happens. The pipeline itself never persists an
// empty dataset (ParseRecords rejects those uploads first), but consumers
// may still call Summarize with no rows.
func Summarize(records []EquipmentRecord) Summary {
	s := Summary{
		TotalCount:     len(records),
		EquipmentTypes: make(map[string]int),
	}

	if len(records) == 0 {
		return s
	}

	var flowSum, pressSum, tempSum float64

	first := records[0]
	s.Ranges = FieldRanges{
		Flowrate:    Range{Min: first.Flowrate, Max: first.Flowrate},
		Pressure:    Range{Min: first.Pressure, Max: first.Pressure},
		Temperature: Range{Min: first.Temperature, Max: first.Temperature},
	}

	for _, r := range records {
		// Type names count case-sensitively; the empty string is a valid key.
		s.EquipmentTypes[r.EquipmentType]++

		flowSum += r.Flowrate
		pressSum += r.Pressure
		tempSum += r.Temperature

		updateRange(&s.Ranges.Flowrate, r.Flowrate)
		updateRange(&s.Ranges.Pressure, r.Pressure)
		updateRange(&s.Ranges.Temperature, r.Temperature)
	}

	n := float64(len(records))
	s.Averages = FieldAverages{
		Flowrate:    flowSum / n,
		Pressure:    pressSum / n,
		Temperature: tempSum / n,
	}

	return s
}

func updateRange(r *Range, v float64) {
	if v < r.Min {
		r.Min = v
	}
	if v > r.Max {
		r.Max = v
	}
}
