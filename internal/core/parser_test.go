package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const sampleCSV = `Equipment Name,Equipment Type,Flowrate,Pressure,Temperature
Pump A,Pump,10.5,2.0,300
Pump B,Pump,20.0,4.0,320
Compressor C,Compressor,15.0,3.5,310
`

func TestParseRecords_Valid(t *testing.T) {
	records, err := ParseRecords([]byte(sampleCSV))
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	first := records[0]
	if first.EquipmentName != "Pump A" {
		t.Errorf("Name = %q, want %q", first.EquipmentName, "Pump A")
	}
	if first.EquipmentType != "Pump" {
		t.Errorf("Type = %q, want %q", first.EquipmentType, "Pump")
	}
	if first.Flowrate != 10.5 {
		t.Errorf("Flowrate = %v, want 10.5", first.Flowrate)
	}
	if first.Pressure != 2.0 {
		t.Errorf("Pressure = %v, want 2.0", first.Pressure)
	}
	if first.Temperature != 300 {
		t.Errorf("Temperature = %v, want 300", first.Temperature)
	}

	// Input row order is preserved.
	if records[2].EquipmentName != "Compressor C" {
		t.Errorf("records[2].EquipmentName = %q, want %q", records[2].EquipmentName, "Compressor C")
	}
}

func TestParseRecords_EmptyInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"whitespace only", "\n\n\n"},
		{"header only", "Equipment Name,Equipment Type,Flowrate,Pressure,Temperature\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecords([]byte(tt.content))
			var emptyErr *EmptyInputError
			if !errors.As(err, &emptyErr) {
				t.Errorf("ParseRecords() error = %v, want EmptyInputError", err)
			}
		})
	}
}

func TestParseRecords_InvalidNumeric(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantLine  int
		wantField string
		wantValue string
	}{
		{
			name: "non-numeric flowrate",
			content: "Equipment Name,Flowrate\n" +
				"Pump A,abc\n",
			wantLine:  2,
			wantField: ColumnFlowrate,
			wantValue: "abc",
		},
		{
			name: "empty cell in present column",
			content: "Equipment Name,Pressure\n" +
				"Pump A,\n",
			wantLine:  2,
			wantField: ColumnPressure,
			wantValue: "",
		},
		{
			name: "error on second row",
			content: "Equipment Name,Temperature\n" +
				"Pump A,300\n" +
				"Pump B,hot\n",
			wantLine:  3,
			wantField: ColumnTemperature,
			wantValue: "hot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecords([]byte(tt.content))
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("ParseRecords() error = %v, want ParseError", err)
			}
			if parseErr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", parseErr.Line, tt.wantLine)
			}
			if parseErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", parseErr.Field, tt.wantField)
			}
			if parseErr.Value != tt.wantValue {
				t.Errorf("Value = %q, want %q", parseErr.Value, tt.wantValue)
			}
		})
	}
}

func TestParseRecords_MissingColumnsDefault(t *testing.T) {
	content := "Equipment Name\nPump A\nPump B\n"

	records, err := ParseRecords([]byte(content))
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}

	for _, rec := range records {
		if rec.EquipmentType != "" {
			t.Errorf("Type = %q, want empty", rec.EquipmentType)
		}
		if rec.Flowrate != 0 || rec.Pressure != 0 || rec.Temperature != 0 {
			t.Errorf("numeric fields = %v/%v/%v, want zeros",
				rec.Flowrate, rec.Pressure, rec.Temperature)
		}
	}
}

func TestParseRecords_ShortRow(t *testing.T) {
	content := "Equipment Name,Equipment Type,Flowrate\n" +
		"Pump A\n"

	records, err := ParseRecords([]byte(content))
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}

	if records[0].EquipmentName != "Pump A" {
		t.Errorf("Name = %q, want %q", records[0].EquipmentName, "Pump A")
	}
	if records[0].EquipmentType != "" || records[0].Flowrate != 0 {
		t.Errorf("missing cells = %q/%v, want defaults", records[0].EquipmentType, records[0].Flowrate)
	}
}

func TestParseRecords_HeaderCaseSensitive(t *testing.T) {
	// "flowrate" is not "Flowrate"; the column is treated as absent so the
	// non-numeric cell defaults instead of failing.
	content := "Equipment Name,flowrate\nPump A,abc\n"

	records, err := ParseRecords([]byte(content))
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}
	if records[0].Flowrate != 0 {
		t.Errorf("Flowrate = %v, want 0", records[0].Flowrate)
	}
}

func TestParseRecords_DuplicateHeaderFirstWins(t *testing.T) {
	content := "Equipment Name,Flowrate,Flowrate\n" +
		"Pump A,1.5,9.9\n"

	records, err := ParseRecords([]byte(content))
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}
	if records[0].Flowrate != 1.5 {
		t.Errorf("Flowrate = %v, want 1.5 (first column)", records[0].Flowrate)
	}
}

func TestParseRecords_BOMStripped(t *testing.T) {
	content := "\xef\xbb\xbf" + sampleCSV

	records, err := ParseRecords([]byte(content))
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}
	if records[0].EquipmentName != "Pump A" {
		t.Errorf("Name = %q, want %q", records[0].EquipmentName, "Pump A")
	}
}

func TestParseRecords_AllOrNothing(t *testing.T) {
	// One bad row rejects the whole file.
	content := sampleCSV + "Pump D,Pump,oops,1.0,290\n"

	records, err := ParseRecords([]byte(content))
	if err == nil {
		t.Fatalf("ParseRecords() = %d records, want error", len(records))
	}
	if !strings.Contains(err.Error(), "oops") {
		t.Errorf("error %q should name the offending value", err.Error())
	}
}

func TestParseRecords_NonFiniteRejected(t *testing.T) {
	// ParseFloat accepts these spellings, but a non-finite reading would
	// corrupt every aggregate and cannot be stored as JSON.
	tests := []struct {
		name  string
		value string
	}{
		{"NaN", "NaN"},
		{"lowercase nan", "nan"},
		{"Inf", "Inf"},
		{"positive Inf", "+Inf"},
		{"negative Inf", "-Inf"},
		{"Infinity", "Infinity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := "Equipment Name,Equipment Type,Flowrate,Pressure,Temperature\n" +
				"PumpA,Pump," + tt.value + ",2,300\n"

			_, err := ParseRecords([]byte(content))
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("ParseRecords() error = %v, want ParseError", err)
			}
			if parseErr.Field != ColumnFlowrate {
				t.Errorf("Field = %q, want %q", parseErr.Field, ColumnFlowrate)
			}
			if parseErr.Value != tt.value {
				t.Errorf("Value = %q, want %q", parseErr.Value, tt.value)
			}
		})
	}
}

func TestParseRecords_SummaryAlwaysEncodable(t *testing.T) {
	// Any record set that survives parsing must produce a JSON-encodable
	// summary; the stores persist it as JSON verbatim.
	records, err := ParseRecords([]byte(sampleCSV))
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}

	if _, err := json.Marshal(Summarize(records)); err != nil {
		t.Errorf("Marshal(Summarize()) error = %v", err)
	}
}

func TestParseRecords_WhitespaceTrimmedInNumbers(t *testing.T) {
	content := "Equipment Name,Flowrate\nPump A, 12.5 \n"

	records, err := ParseRecords([]byte(content))
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}
	if records[0].Flowrate != 12.5 {
		t.Errorf("Flowrate = %v, want 12.5", records[0].Flowrate)
	}
}
