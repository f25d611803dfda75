package generators

var builtins = []Spec{
	{Name: "basic_grid", Arity: Each, Description: "labelled R{r}C{c} grid, optionally with a second sheet", New: newBasicGrid},
	{Name: "sparse_grid", Arity: Each, Description: "three scattered cells on a mostly empty sheet", New: newSparseGrid},
	{Name: "edge_case", Arity: Each, Description: "empty, values-only and formulas-only sheets", New: newEdgeCase},
	{Name: "address_sanity", Arity: Each, Description: "each target cell holds its own address", New: newAddressSanity},
	{Name: "value_formula", Arity: Each, Description: "number, string and boolean formulas with cached results", New: newValueFormula},

	{Name: "single_cell_diff", Arity: Pair, Description: "grid pair differing in one cell", New: newSingleCellDiff},
	{Name: "multi_cell_diff", Arity: Pair, Description: "grid pair differing in listed cells", New: newMultiCellDiff},
	{Name: "grid_tail_diff", Arity: Pair, Description: "rows or columns appended or removed at the tail", New: newGridTailDiff},
	{Name: "row_alignment_g8", Arity: Pair, Description: "single middle row insert or delete", New: newRowAlignmentG8},
	{Name: "row_alignment_g10", Arity: Pair, Description: "contiguous row block insert or delete", New: newRowAlignmentG10},
	{Name: "row_block_move_g11", Arity: Pair, Description: "tagged row block moved to a new position", New: newRowBlockMoveG11},
	{Name: "row_fuzzy_move_g13", Arity: Pair, Description: "row block move with interior edits", New: newRowFuzzyMoveG13},
	{Name: "column_move_g12", Arity: Pair, Description: "key column relocated", New: newColumnMoveG12},
	{Name: "rect_block_move_g12", Arity: Pair, Description: "rectangular block moved over a filled background", New: newRectBlockMoveG12},
	{Name: "column_alignment_g9", Arity: Pair, Description: "single middle column insert or delete", New: newColumnAlignmentG9},
	{Name: "sheet_case_rename", Arity: Pair, Description: "Sheet1 renamed to sheet1", New: newSheetCaseRename},
	{Name: "pg6_sheet_scenario", Arity: Pair, Description: "sheet added, removed or renamed", New: newPG6SheetScenario},

	{Name: "named_ranges", Arity: Pair, Description: "workbook and sheet scoped defined names", New: newNamedRanges},
	{Name: "charts", Arity: Pair, Description: "line chart replaced by bar and line charts", New: newCharts},
	{Name: "copy_template", Arity: Each, Description: "byte copy of a template file", New: newCopyTemplate},

	{Name: "corrupt_container", Arity: Each, Description: "invalid or incomplete containers", New: newCorruptContainer},
	{Name: "xlsb_stub", Arity: Each, Description: "OPC container with a binary workbook placeholder", New: newXLSBStub},
	{Name: "pbix", Arity: One, Description: "minimal Power BI package", New: newPBIX},
	{Name: "zip_pad", Arity: Each, Description: "base container plus a stored padding entry", New: newZipPad},

	{Name: "perf_large", Arity: Each, Description: "streamed large grid", New: newLargeGrid},
	{Name: "db_keyed", Arity: Each, Description: "keyed table with updates, extra rows and shuffle", New: newKeyedTable},

	{Name: "mashup_corrupt", Arity: Each, Description: "DataMashup stream damaged in a controlled way", New: newMashupCorrupt},
	{Name: "mashup_duplicate", Arity: Each, Description: "DataMashup part or element duplicated", New: newMashupDuplicate},
	{Name: "mashup_inject", Arity: Each, Description: "Section1.m replaced with given M code", New: newMashupInject},
	{Name: "mashup_encode", Arity: Each, Description: "DataMashup part re-encoded, optionally with whitespace", New: newMashupEncode},
	{Name: "mashup:one_query", Arity: Each, Description: "DataMashup round trip", New: newMashupOneQuery},
	{Name: "mashup:multi_query_with_embedded", Arity: Each, Description: "extra query over an embedded package", New: newMashupMultiEmbedded},
	{Name: "mashup:permissions_metadata", Arity: Each, Description: "permissions and metadata sections for a named mode", New: newMashupPermissionsMetadata},

	{Name: "openxml_mutate", Arity: OneOrPair, Description: "B derived from a real workbook by a worksheet mutator", New: newOpenXMLMutate},
}

// Default returns a registry holding every built-in generator.
func Default() *Registry {
	r := NewRegistry()
	for _, spec := range builtins {
		r.Register(spec)
	}
	return r
}
