package engine

import (
	"errors"
	"testing"

	"github.com/piwi3910/PlantLayout/internal/model"
)

func TestNewProblemOrdersBySequence(t *testing.T) {
	stations := []model.StationSpec{
		model.NewStation(10, "A", 1, 1, 0, 5),
		model.NewStation(20, "B", 2, 1, 0, 6),
		model.NewStation(30, "C", 1, 2, 1, 7),
	}
	p, err := NewProblem(8, 8, stations, []int{30, 10, 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Len() != 3 {
		t.Fatalf("expected 3 stations, got %d", p.Len())
	}
	want := []int{30, 10, 20}
	for i, s := range p.Stations {
		if s.ID != want[i] {
			t.Errorf("station %d: expected id %d, got %d", i, want[i], s.ID)
		}
	}
}

func TestNewProblemRejectsBadInput(t *testing.T) {
	ok := []model.StationSpec{
		model.NewStation(1, "A", 1, 1, 0, 5),
		model.NewStation(2, "B", 1, 1, 0, 5),
	}

	tests := []struct {
		name     string
		w, h     int
		stations []model.StationSpec
		sequence []int
	}{
		{"zero floor", 0, 5, ok, []int{1, 2}},
		{"no stations", 5, 5, nil, nil},
		{"duplicate id", 5, 5, []model.StationSpec{ok[0], ok[0]}, []int{1, 1}},
		{"negative id", 5, 5, []model.StationSpec{model.NewStation(-1, "A", 1, 1, 0, 5), ok[1]}, []int{-1, 2}},
		{"zero footprint", 5, 5, []model.StationSpec{model.NewStation(1, "A", 0, 1, 0, 5)}, []int{1}},
		{"negative clearance", 5, 5, []model.StationSpec{model.NewStation(1, "A", 1, 1, -1, 5)}, []int{1}},
		{"negative cycle time", 5, 5, []model.StationSpec{model.NewStation(1, "A", 1, 1, 0, -5)}, []int{1}},
		{"short sequence", 5, 5, ok, []int{1}},
		{"unknown id", 5, 5, ok, []int{1, 3}},
		{"repeated id", 5, 5, ok, []int{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProblem(tt.w, tt.h, tt.stations, tt.sequence)
			if !errors.Is(err, ErrInvalidProblem) {
				t.Errorf("expected ErrInvalidProblem, got %v", err)
			}
		})
	}
}
