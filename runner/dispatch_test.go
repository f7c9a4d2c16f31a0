package runner

import "testing"

func TestDispatchOnePerPartition(t *testing.T) {
	p0 := PartitionID{Topic: "orders", Partition: 0}
	p1 := PartitionID{Topic: "orders", Partition: 1}

	batch := PollBatch[string, string]{
		Records: []Record[string, string]{
			{Partition: p0, Offset: 0, Value: "a"},
			{Partition: p1, Offset: 0, Value: "b"},
			{Partition: p0, Offset: 1, Value: "c"},
		},
		Partitions: []PartitionID{p0, p1},
	}

	units := dispatch(batch, OnePerPartition)
	if len(units) != 2 {
		t.Fatalf("want 2 units, got %d", len(units))
	}
	if units[0].CurrentPartition != p0 || len(units[0].Records) != 2 {
		t.Fatalf("unit 0 wrong: %+v", units[0])
	}
	if units[1].CurrentPartition != p1 || len(units[1].Records) != 1 {
		t.Fatalf("unit 1 wrong: %+v", units[1])
	}
	if len(units[0].AllPartitions) != 2 {
		t.Fatalf("want AllPartitions len 2, got %d", len(units[0].AllPartitions))
	}
}

func TestDispatchAll(t *testing.T) {
	p0 := PartitionID{Topic: "orders", Partition: 1}
	p1 := PartitionID{Topic: "orders", Partition: 0}

	batch := PollBatch[string, string]{
		Records: []Record[string, string]{
			{Partition: p0, Offset: 0, Value: "a"},
			{Partition: p1, Offset: 0, Value: "b"},
		},
		Partitions: []PartitionID{p0, p1},
	}

	units := dispatch(batch, All)
	if len(units) != 1 {
		t.Fatalf("want 1 unit, got %d", len(units))
	}
	if len(units[0].Records) != 2 {
		t.Fatalf("want both records in the single unit, got %d", len(units[0].Records))
	}
	// lexicographically smallest (topic, partition) among {1, 0} is partition 0.
	if units[0].CurrentPartition != p1 {
		t.Fatalf("want CurrentPartition %+v, got %+v", p1, units[0].CurrentPartition)
	}
}

func TestDispatchAll_EmptyBatch(t *testing.T) {
	units := dispatch(PollBatch[string, string]{}, All)
	if units != nil {
		t.Fatalf("want nil units for an empty batch, got %v", units)
	}
}

func TestLexicographicallySmallest(t *testing.T) {
	got := lexicographicallySmallest([]PartitionID{
		{Topic: "b", Partition: 0},
		{Topic: "a", Partition: 5},
		{Topic: "a", Partition: 1},
	})
	want := PartitionID{Topic: "a", Partition: 1}
	if got != want {
		t.Fatalf("want %+v, got %+v", want, got)
	}
}
