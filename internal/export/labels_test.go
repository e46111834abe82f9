package export

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

func TestExportLabels_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")

	if err := ExportLabels(path, buildTestLayout(), buildTestNetwork()); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	assertNonEmptyFile(t, path, 1000)
}

func TestExportLabels_WithoutNetwork(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")

	if err := ExportLabels(path, buildTestLayout(), nil); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	assertNonEmptyFile(t, path, 1000)
}

func TestExportLabels_MalformedLayout(t *testing.T) {
	layout := buildTestLayout()
	delete(layout.Positions, 2)

	if err := ExportLabels(filepath.Join(t.TempDir(), "labels.pdf"), layout, nil); err == nil {
		t.Fatal("expected error for malformed layout, got nil")
	}
}

func TestCollectLabelInfos(t *testing.T) {
	net := buildTestNetwork()
	delete(net.AccessPoints, 3)

	labels := CollectLabelInfos(buildTestLayout(), net)
	if len(labels) != 3 {
		t.Fatalf("expected 3 labels, got %d", len(labels))
	}

	first := labels[0]
	if first.StationID != 1 || first.Step != 1 || first.Name != "Cutting" {
		t.Errorf("unexpected first label: %+v", first)
	}
	if first.Width != 3 || first.Height != 2 || first.X != 1 || first.Y != 1 {
		t.Errorf("unexpected geometry on first label: %+v", first)
	}
	if first.Access == nil || first.Access.X != 4 || first.Access.Y != 2 {
		t.Errorf("expected access point (4,2), got %+v", first.Access)
	}
	if labels[2].Access != nil {
		t.Errorf("expected no access point for unresolved station, got %+v", labels[2].Access)
	}
	if first.RunID != "run-test" {
		t.Errorf("expected run id on label, got %q", first.RunID)
	}
}

func TestLabelInfo_QRPayload(t *testing.T) {
	labels := CollectLabelInfos(buildTestLayout(), buildTestNetwork())

	data, err := json.Marshal(labels[1])
	if err != nil {
		t.Fatalf("failed to marshal label: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal label: %v", err)
	}
	for _, key := range []string{"station", "name", "step", "x", "y", "access", "run_id"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("expected key %q in QR payload", key)
		}
	}
}

func TestExportLabels_MultiplePages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")

	layout := buildTestLayout()
	layout.FactoryWidth, layout.FactoryHeight = 80, 80
	for i := 10; i < 45; i++ {
		s := buildTestLayout().Stations[1]
		s.ID = i
		layout.Stations = append(layout.Stations, s)
		layout.ProcessSequence = append(layout.ProcessSequence, i)
		layout.Positions[i] = layout.Positions[2]
	}

	labels := CollectLabelInfos(layout, nil)
	if len(labels) <= labelsPerPage {
		t.Fatalf("expected more than %d labels, got %d", labelsPerPage, len(labels))
	}
	if err := ExportLabels(path, layout, nil); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	assertNonEmptyFile(t, path, 1000)
}
