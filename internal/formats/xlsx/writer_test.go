package xlsx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/tabulensis/fixturegen/internal/container"
	"github.com/tabulensis/fixturegen/internal/openxml"
)

func TestBytesDeterministic(t *testing.T) {
	wb := &Workbook{Sheets: []Sheet{
		NewGrid("Data", 4, 3, func(r, c int) any { return r*10 + c }),
		{Name: "Other", Rows: [][]any{{"x", true, 1.5}}},
	}}

	first, err := wb.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	second, err := wb.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("expected identical bytes across runs")
	}

	names, err := container.Names(first)
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}
	if names[0] != "[Content_Types].xml" {
		t.Errorf("expected [Content_Types].xml first, got %q", names[0])
	}
}

func TestBytesNoSheets(t *testing.T) {
	if _, err := (&Workbook{}).Bytes(); err == nil {
		t.Fatal("expected error for empty workbook")
	}
}

func TestDefaultSheetName(t *testing.T) {
	wb := &Workbook{Sheets: []Sheet{{Rows: [][]any{{1}}}, {Rows: [][]any{{2}}}}}
	data, err := wb.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	c, err := ReadBytes(data)
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	if c.Sheets[0].Name != "Sheet1" || c.Sheets[1].Name != "Sheet2" {
		t.Errorf("unexpected sheet names %q, %q", c.Sheets[0].Name, c.Sheets[1].Name)
	}
}

func TestFormulaWithCachedValue(t *testing.T) {
	sheet := Sheet{Name: "Sheet1"}
	sheet.SetAt(1, 1, 1)
	sheet.SetAt(2, 1, 1)
	sheet.SetAt(3, 1, Formula("=A1+B1"))
	sheet.Cached = []openxml.CachedValue{{Ref: "C1", Value: "2"}}

	data, err := (&Workbook{Sheets: []Sheet{sheet}}).Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	formula, err := CellFormula(data, "Sheet1", "C1")
	if err != nil {
		t.Fatalf("CellFormula failed: %v", err)
	}
	if formula != "A1+B1" {
		t.Errorf("expected formula A1+B1, got %q", formula)
	}

	c, err := ReadBytes(data)
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	if got, _ := c.Sheets[0].Cell("C1"); got != "2" {
		t.Errorf("expected cached value 2, got %q", got)
	}

	part, err := container.ReadEntry(data, SheetPart(0))
	if err != nil {
		t.Fatalf("ReadEntry failed: %v", err)
	}
	if !strings.Contains(string(part), "<v>2</v>") {
		t.Errorf("expected cached <v>2</v> in sheet part, got %s", part)
	}
}

func TestDefinedNames(t *testing.T) {
	wb := &Workbook{
		Sheets: []Sheet{{Name: "Sheet1", Rows: [][]any{{1}}}, {Name: "Sheet2", Rows: [][]any{{2}}}},
		Names: []DefinedName{
			{Name: "GlobalName", RefersTo: "Sheet1!$A$1"},
			{Name: "LocalName", RefersTo: "Sheet2!$A$1", Scope: "Sheet2"},
		},
	}
	data, err := wb.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	c, err := ReadBytes(data)
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	if len(c.Names) != 2 {
		t.Fatalf("expected 2 names, got %d", len(c.Names))
	}
	for _, dn := range c.Names {
		switch dn.Name {
		case "GlobalName":
			if dn.Scope != "" || dn.RefersTo != "Sheet1!$A$1" {
				t.Errorf("unexpected GlobalName %+v", dn)
			}
		case "LocalName":
			if dn.Scope != "Sheet2" {
				t.Errorf("expected LocalName scoped to Sheet2, got %q", dn.Scope)
			}
		default:
			t.Errorf("unexpected name %q", dn.Name)
		}
	}
}

func TestStreamSheet(t *testing.T) {
	sheet := Sheet{
		Name:       "Big",
		StreamRows: 50,
		StreamRow: func(r int) []any {
			if r == 1 {
				return []any{"id", "value"}
			}
			return []any{r - 1, float64(r) / 2}
		},
		NumberFormats: map[int]string{2: "0.00"},
	}
	data, err := (&Workbook{Sheets: []Sheet{sheet}}).Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	c, err := ReadBytes(data)
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	s := c.Sheets[0]
	if len(s.Rows) != 50 {
		t.Fatalf("expected 50 rows, got %d", len(s.Rows))
	}
	if s.Rows[0][1] != "value" {
		t.Errorf("expected header 'value', got %q", s.Rows[0][1])
	}
	if s.Rows[1][1] != "1.00" {
		t.Errorf("expected formatted '1.00', got %q", s.Rows[1][1])
	}
}

func TestNumberFormatColumn(t *testing.T) {
	sheet := Sheet{
		Name:          "Sheet1",
		Rows:          [][]any{{"amount"}, {1.5}, {2.25}},
		NumberFormats: map[int]string{1: "0.00"},
	}
	data, err := (&Workbook{Sheets: []Sheet{sheet}}).Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	c, err := ReadBytes(data)
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	if got := c.Sheets[0].Rows[1][0]; got != "1.50" {
		t.Errorf("expected '1.50', got %q", got)
	}
}

func TestValidateNumberFormat(t *testing.T) {
	valid := []string{"0.00", "#,##0", "0%", "yyyy-mm-dd", "0;-0;0;@", "[Red]0.00"}
	for _, code := range valid {
		if err := ValidateNumberFormat(code); err != nil {
			t.Errorf("ValidateNumberFormat(%q) failed: %v", code, err)
		}
	}
	invalid := []string{"", "0;0;0;0;0", "[Bogus]0"}
	for _, code := range invalid {
		if err := ValidateNumberFormat(code); err == nil {
			t.Errorf("ValidateNumberFormat(%q) expected error", code)
		}
	}
}

func TestChart(t *testing.T) {
	sheet := NewGrid("Sheet1", 4, 2, func(r, c int) any {
		if r == 1 {
			return []string{"label", "value"}[c-1]
		}
		if c == 1 {
			return string(rune('a' + r))
		}
		return r
	})
	sheet.Charts = []Chart{{
		Type:   excelize.Col,
		Anchor: "D2",
		Title:  "Values",
		Series: []Series{{Name: "Sheet1!$B$1", Categories: "Sheet1!$A$2:$A$4", Values: "Sheet1!$B$2:$B$4"}},
	}}
	data, err := (&Workbook{Sheets: []Sheet{sheet}}).Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if _, err := container.ReadEntry(data, "xl/charts/chart1.xml"); err != nil {
		t.Errorf("expected chart part: %v", err)
	}
}

func TestSheetSetAndClone(t *testing.T) {
	var s Sheet
	if err := s.Set("C2", "x"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if s.Get(3, 2) != "x" {
		t.Errorf("expected x at C2, got %v", s.Get(3, 2))
	}
	if s.Get(1, 1) != nil || s.Get(9, 9) != nil {
		t.Error("expected nil outside populated cells")
	}
	if err := s.Set("??", 1); err == nil {
		t.Error("expected error for invalid reference")
	}

	clone := s.Clone()
	clone.SetAt(3, 2, "y")
	if s.Get(3, 2) != "x" {
		t.Error("clone shares cell storage with original")
	}
}
