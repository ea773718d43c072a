package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/equipsight/equipsight/internal/core"
)

func testSummary() core.Summary {
	return core.Summary{
		TotalCount: 3,
		EquipmentTypes: map[string]int{
			"Pump":       2,
			"Compressor": 1,
		},
		Averages: core.FieldAverages{Flowrate: 15, Pressure: 3, Temperature: 310},
		Ranges: core.FieldRanges{
			Flowrate:    core.Range{Min: 10, Max: 20},
			Pressure:    core.Range{Min: 2, Max: 4},
			Temperature: core.Range{Min: 300, Max: 320},
		},
	}
}

func TestRender_ProducesPDF(t *testing.T) {
	var buf bytes.Buffer

	err := Render(&buf, "plant_a.csv", time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), testSummary())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if buf.Len() == 0 {
		t.Fatal("Render() wrote no output")
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Errorf("output does not start with PDF magic, got %q", buf.Bytes()[:8])
	}
}

func TestRender_EmptySummary(t *testing.T) {
	var buf bytes.Buffer

	summary := core.Summary{EquipmentTypes: map[string]int{}}
	err := Render(&buf, "empty.csv", time.Now().UTC(), summary)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("Render() wrote no output")
	}
}
