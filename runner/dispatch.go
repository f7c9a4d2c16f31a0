package runner

import "sort"

// dispatch splits a PollBatch into ProcessUnits per the configured
// Strategy. It is a pure function: the same batch always
// produces the same units.
func dispatch[K, V any](batch PollBatch[K, V], strategy Strategy) []ProcessUnit[K, V] {
	switch strategy {
	case All:
		return dispatchAll(batch)
	default:
		return dispatchOnePerPartition(batch)
	}
}

func dispatchOnePerPartition[K, V any](batch PollBatch[K, V]) []ProcessUnit[K, V] {
	all := batch.partitionSet()

	units := make([]ProcessUnit[K, V], 0, len(batch.Partitions))
	for idx, p := range batch.Partitions {
		var records []Record[K, V]
		for _, r := range batch.Records {
			if r.Partition == p {
				records = append(records, r)
			}
		}
		units = append(units, ProcessUnit[K, V]{
			Index:            idx,
			CurrentPartition: p,
			AllPartitions:    all,
			Records:          records,
		})
	}
	return units
}

func dispatchAll[K, V any](batch PollBatch[K, V]) []ProcessUnit[K, V] {
	if len(batch.Records) == 0 {
		return nil
	}

	all := batch.partitionSet()
	current := lexicographicallySmallest(batch.Partitions)

	return []ProcessUnit[K, V]{{
		Index:            0,
		CurrentPartition: current,
		AllPartitions:    all,
		Records:          batch.Records,
	}}
}

// lexicographicallySmallest picks a deterministic representative
// partition when the All strategy needs exactly one CurrentPartition
// (chosen deterministically, e.g. lexicographically smallest
// (topic, partition)").
func lexicographicallySmallest(partitions []PartitionID) PartitionID {
	sorted := append([]PartitionID{}, partitions...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Topic != sorted[j].Topic {
			return sorted[i].Topic < sorted[j].Topic
		}
		return sorted[i].Partition < sorted[j].Partition
	})
	if len(sorted) == 0 {
		return PartitionID{}
	}
	return sorted[0]
}
