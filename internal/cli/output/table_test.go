package output

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

type sessionRow struct {
	Email   string `json:"email"`
	Active  bool   `json:"active"`
	Backend string `json:"backend" table:"wide"`
}

func TestTableFormatterRendersTable(t *testing.T) {
	table := &Table{
		Headers: []string{"NAME", "VALUE"},
		Rows: [][]string{
			{"engine", "file"},
			{"backend", "id.example.com"},
		},
	}

	var buf bytes.Buffer
	f := &TableFormatter{}

	if err := f.Format(&buf, table); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "NAME") {
		t.Error("Format() missing header NAME")
	}
	if !strings.Contains(out, "engine") {
		t.Error("Format() missing row data")
	}
}

func TestTableFormatterTableValue(t *testing.T) {
	table := Table{Headers: []string{"COL"}, Rows: [][]string{{"data"}}}

	var buf bytes.Buffer
	f := &TableFormatter{}

	if err := f.Format(&buf, table); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "data") {
		t.Error("Format() missing data from Table value")
	}
}

func TestTableFormatterNoHeaders(t *testing.T) {
	table := &Table{
		Headers: []string{"NAME", "VALUE"},
		Rows:    [][]string{{"engine", "file"}},
	}

	var buf bytes.Buffer
	f := &TableFormatter{NoHeaders: true}

	if err := f.Format(&buf, table); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "NAME") {
		t.Error("Format() should omit headers when NoHeaders is set")
	}
	if !strings.Contains(out, "engine") {
		t.Error("Format() missing row data")
	}
}

func TestTableFormatterNil(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{}

	if err := f.Format(&buf, nil); err != nil {
		t.Fatalf("Format(nil) error = %v", err)
	}
	if buf.Len() != 0 {
		t.Error("Format(nil) should produce empty output")
	}
}

func TestTableFormatterSlice(t *testing.T) {
	data := []sessionRow{
		{Email: "ada@example.com", Active: true, Backend: "id.example.com"},
		{Email: "bob@example.com", Active: false, Backend: "id.example.com"},
	}

	var buf bytes.Buffer
	f := &TableFormatter{}

	if err := f.Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "EMAIL") {
		t.Error("Format() missing header")
	}
	if !strings.Contains(out, "ada@example.com") {
		t.Error("Format() missing row data")
	}
	if strings.Contains(out, "BACKEND") {
		t.Error("wide-only column should be hidden when Wide is false")
	}
}

func TestTableFormatterSliceWide(t *testing.T) {
	data := []sessionRow{
		{Email: "ada@example.com", Active: true, Backend: "id.example.com"},
	}

	var buf bytes.Buffer
	f := &TableFormatter{Wide: true}

	if err := f.Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "BACKEND") {
		t.Error("wide-only column should appear when Wide is true")
	}
	if !strings.Contains(out, "id.example.com") {
		t.Error("Format() missing wide column data")
	}
}

func TestTableFormatterEmptySlice(t *testing.T) {
	var data []sessionRow

	var buf bytes.Buffer
	f := &TableFormatter{}

	if err := f.Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.Contains(buf.String(), "EMAIL") {
		t.Error("empty slice should not render headers")
	}
}

func TestTableFormatterMapSorted(t *testing.T) {
	data := map[string]any{
		"zeta":  "last",
		"alpha": "first",
		"mid":   42,
	}

	var buf bytes.Buffer
	f := &TableFormatter{}

	if err := f.Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "KEY") || !strings.Contains(out, "VALUE") {
		t.Error("Format() missing map headers")
	}
	// Map rows are sorted by key for stable output.
	if strings.Index(out, "alpha") > strings.Index(out, "zeta") {
		t.Errorf("map rows not sorted by key:\n%s", out)
	}
}

func TestTableFormatterSingleStruct(t *testing.T) {
	data := sessionRow{Email: "ada@example.com", Active: true}

	var buf bytes.Buffer
	f := &TableFormatter{}

	if err := f.Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "FIELD") || !strings.Contains(out, "VALUE") {
		t.Error("Format() missing struct headers")
	}
	if !strings.Contains(out, "ada@example.com") {
		t.Error("Format() missing struct data")
	}
}

func TestTableFormatterPointerSlice(t *testing.T) {
	data := []*sessionRow{
		{Email: "ada@example.com"},
		{Email: "bob@example.com"},
	}

	var buf bytes.Buffer
	f := &TableFormatter{}

	if err := f.Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "ada@example.com") || !strings.Contains(out, "bob@example.com") {
		t.Error("Format() missing pointer slice data")
	}
}

func TestTableRender(t *testing.T) {
	table := &Table{
		Headers: []string{"COL1", "COL2"},
		Rows:    [][]string{{"a", "b"}, {"c", "d"}},
	}

	var buf bytes.Buffer
	if err := table.Render(&buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Errorf("Render() lines = %d, want 3", len(lines))
	}
}

func TestTableRenderHeadersOnly(t *testing.T) {
	table := &Table{Headers: []string{"COL1", "COL2"}}

	var buf bytes.Buffer
	if err := table.RenderWithOptions(&buf, false); err != nil {
		t.Fatalf("RenderWithOptions() error = %v", err)
	}
	if !strings.Contains(buf.String(), "COL1") {
		t.Error("RenderWithOptions() missing headers")
	}
}

func TestTableAddRowSetHeaders(t *testing.T) {
	table := &Table{}
	table.SetHeaders("H1", "H2", "H3")
	table.AddRow("c1", "c2", "c3")

	if len(table.Headers) != 3 || table.Headers[0] != "H1" {
		t.Errorf("SetHeaders() headers = %v", table.Headers)
	}
	if len(table.Rows) != 1 || len(table.Rows[0]) != 3 {
		t.Errorf("AddRow() rows = %v", table.Rows)
	}
}

func TestCellValue(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"string", "hello", "hello"},
		{"empty string", "", "-"},
		{"int", 42, "42"},
		{"uint", uint(99), "99"},
		{"float", 3.14159, "3.14"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"empty slice", []int{}, "-"},
		{"slice", []int{1, 2, 3}, "[3 items]"},
		{"empty map", map[string]int{}, "-"},
		{"map", map[string]int{"a": 1}, "{1 keys}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cellValue(reflect.ValueOf(tt.input)); got != tt.want {
				t.Errorf("cellValue(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCellValueTime(t *testing.T) {
	tm := time.Date(2026, 6, 15, 14, 30, 0, 0, time.UTC)
	if got := cellValue(reflect.ValueOf(tm)); got != "2026-06-15 14:30" {
		t.Errorf("cellValue(time) = %q", got)
	}

	var zero time.Time
	if got := cellValue(reflect.ValueOf(zero)); got != "-" {
		t.Errorf("cellValue(zero time) = %q, want -", got)
	}
}

func TestCellValuePointerAndInterface(t *testing.T) {
	val := "pointed"
	if got := cellValue(reflect.ValueOf(&val)); got != "pointed" {
		t.Errorf("cellValue(*string) = %q", got)
	}

	var nilPtr *string
	if got := cellValue(reflect.ValueOf(nilPtr)); got != "" {
		t.Errorf("cellValue(nil ptr) = %q, want empty", got)
	}

	var iface any = "wrapped"
	if got := cellValue(reflect.ValueOf(&iface).Elem()); got != "wrapped" {
		t.Errorf("cellValue(interface) = %q", got)
	}

	var invalid reflect.Value
	if got := cellValue(invalid); got != "" {
		t.Errorf("cellValue(invalid) = %q, want empty", got)
	}
}

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Name", "Name"},
		{"UserName", "User_Name"},
		{"already_snake", "already_snake"},
	}

	for _, tt := range tests {
		if got := snakeCase(tt.input); got != tt.want {
			t.Errorf("snakeCase(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

type maskedRow struct {
	Email  string `json:"email"`
	Secret string `json:"-"`
	Hidden string `json:"hidden" table:"-"`
}

func TestTableFormatterSkipsTaggedFields(t *testing.T) {
	data := []maskedRow{
		{Email: "ada@example.com", Secret: "s3cret", Hidden: "nope"},
	}

	var buf bytes.Buffer
	f := &TableFormatter{}

	if err := f.Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "HIDDEN") {
		t.Error("table:\"-\" field should be skipped")
	}
	if !strings.Contains(out, "ada@example.com") {
		t.Error("Format() missing visible data")
	}
	// json:"-" only affects the header name source, not table membership.
	if !strings.Contains(out, "SECRET") {
		t.Error("json:\"-\" field should still render in tables")
	}
}

func TestTableFormatterNestedCollections(t *testing.T) {
	type row struct {
		Items []string       `json:"items"`
		Meta  map[string]int `json:"meta"`
	}
	data := []row{{Items: []string{"a", "b"}, Meta: map[string]int{"x": 1}}}

	var buf bytes.Buffer
	f := &TableFormatter{}

	if err := f.Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "[2 items]") {
		t.Error("Format() should summarize nested slices")
	}
	if !strings.Contains(out, "{1 keys}") {
		t.Error("Format() should summarize nested maps")
	}
}
