package model

import "github.com/google/uuid"

// NewRunID returns a fresh identifier for one optimization run.
func NewRunID() string {
	return uuid.New().String()
}

// DefaultStations returns the sixteen-station demo line.
func DefaultStations() []StationSpec {
	return []StationSpec{
		NewStation(0, "Raw material intake", 2, 2, 1, 20),
		NewStation(1, "Rough cutting", 3, 3, 1, 35),
		NewStation(2, "Milling", 4, 2, 1, 45),
		NewStation(3, "Drilling", 2, 2, 1, 25),
		NewStation(4, "Heat treatment A", 3, 4, 2, 70),
		NewStation(5, "Precision machining A", 3, 2, 1, 40),
		NewStation(6, "Assembly A", 2, 3, 2, 55),
		NewStation(7, "Final inspection A", 1, 2, 1, 15),
		NewStation(8, "Secondary cutting", 3, 2, 1, 30),
		NewStation(9, "Surface treatment", 2, 4, 2, 50),
		NewStation(10, "Washing", 2, 2, 1, 20),
		NewStation(11, "Heat treatment B", 4, 4, 2, 75),
		NewStation(12, "Precision machining B", 2, 3, 1, 42),
		NewStation(13, "Sub-assembly", 3, 3, 1, 60),
		NewStation(14, "Quality inspection B", 2, 1, 1, 18),
		NewStation(15, "Packaging line A", 4, 3, 2, 30),
	}
}

// IdentitySequence returns the station ids in catalogue order.
func IdentitySequence(stations []StationSpec) []int {
	seq := make([]int, len(stations))
	for i, s := range stations {
		seq[i] = s.ID
	}
	return seq
}
