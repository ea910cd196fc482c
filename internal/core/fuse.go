package core

import "slices"

// Fuse outer-joins the two per-source aggregates on (equipment, year, month).
// Keys present on one side only get zero counts and tonnage from the other
// side and a missing mean duration when maintenance is absent. The result has
// exactly one row per key, sorted by key, with EquipmentID unset.
func Fuse(ops []OperationsAggregate, mnt []MaintenanceAggregate) []FactRow {
	index := make(map[PeriodKey]int, len(ops)+len(mnt))
	facts := make([]FactRow, 0, len(ops)+len(mnt))

	row := func(key PeriodKey) *FactRow {
		key = key.normalize()
		pos, ok := index[key]
		if !ok {
			pos = len(facts)
			index[key] = pos
			facts = append(facts, FactRow{PeriodKey: key})
		}
		return &facts[pos]
	}

	for _, o := range ops {
		f := row(o.PeriodKey)
		f.Tonnage += o.Tonnage
		f.OperationRecords += o.Records
	}
	for _, m := range mnt {
		f := row(m.PeriodKey)
		f.Orders += m.Orders
		f.PMM1 += m.PMM1
		f.PMM2 += m.PMM2
		f.MeanDuration = m.MeanDuration
	}

	slices.SortFunc(facts, func(a, b FactRow) int {
		return ComparePeriodKeys(a.PeriodKey, b.PeriodKey)
	})
	return facts
}

// BuildDimension enumerates distinct equipment keys in order of first
// appearance, assigning ids from 1, and returns a copy of facts carrying
// those ids.
func BuildDimension(facts []FactRow) ([]Equipment, []FactRow) {
	ids := make(map[string]int)
	var dim []Equipment

	out := make([]FactRow, len(facts))
	for i, f := range facts {
		id, ok := ids[f.Equipment]
		if !ok {
			id = len(dim) + 1
			ids[f.Equipment] = id
			dim = append(dim, Equipment{ID: id, Key: f.Equipment})
		}
		f.EquipmentID = id
		out[i] = f
	}
	return dim, out
}
