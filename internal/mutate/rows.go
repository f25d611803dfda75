package mutate

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
)

var (
	// ErrNotEnoughRows is returned when a part has fewer than two blocks of rows.
	ErrNotEnoughRows = errors.New("not enough <row> elements to swap")
	// ErrOverlap is returned when no non-overlapping block pair was found.
	ErrOverlap = errors.New("failed to choose non-overlapping row blocks; reduce row_count")
)

const maxSwapAttempts = 1000

var (
	rowNumberPattern = regexp.MustCompile(`\br="(\d+)"`)
	cellRefPattern   = regexp.MustCompile(`<c\b[^>]*\br="[A-Za-z]{1,3}(\d+)"`)
)

// RowSpan is the byte range [Start, End) of a <row> element and its r value.
type RowSpan struct {
	Start int
	End   int
	R     int
}

// RowSpans lists the numbered <row> elements of a worksheet part in
// document order. Rows without an r attribute are not listed.
func RowSpans(xml []byte) []RowSpan {
	var spans []RowSpan
	i := 0
	for i < len(xml) {
		start := findTag(xml, i, "row")
		if start == -1 {
			break
		}
		tagEnd := bytes.IndexByte(xml[start:], '>')
		if tagEnd == -1 {
			break
		}
		tagEnd += start
		startTag := xml[start : tagEnd+1]
		m := rowNumberPattern.FindSubmatch(startTag)
		if m == nil {
			i = tagEnd + 1
			continue
		}
		r, err := strconv.Atoi(string(m[1]))
		if err != nil {
			i = tagEnd + 1
			continue
		}

		end := tagEnd + 1
		if !isSelfClosing(startTag) {
			closeIdx := bytes.Index(xml[tagEnd+1:], []byte("</row>"))
			if closeIdx == -1 {
				break
			}
			end = tagEnd + 1 + closeIdx + len("</row>")
		}
		spans = append(spans, RowSpan{Start: start, End: end, R: r})
		i = end
	}
	return spans
}

// RenumberRow rewrites a <row> element to row newR: the row's own r
// attribute and every child cell reference on the old row number.
func RenumberRow(row []byte, newR int) []byte {
	tagEnd := bytes.IndexByte(row, '>')
	if tagEnd == -1 {
		return row
	}
	startTag := row[:tagEnd+1]
	rest := row[tagEnd+1:]

	loc := rowNumberPattern.FindSubmatchIndex(startTag)
	if loc == nil {
		return row
	}
	oldR := string(startTag[loc[2]:loc[3]])

	out := make([]byte, 0, len(row)+8)
	out = append(out, startTag[:loc[2]]...)
	out = strconv.AppendInt(out, int64(newR), 10)
	out = append(out, startTag[loc[3]:]...)

	last := 0
	for _, m := range cellRefPattern.FindAllSubmatchIndex(rest, -1) {
		if string(rest[m[2]:m[3]]) != oldR {
			continue
		}
		out = append(out, rest[last:m[2]]...)
		out = strconv.AppendInt(out, int64(newR), 10)
		last = m[3]
	}
	return append(out, rest[last:]...)
}

// SwapResult describes the two exchanged row blocks. Indices are 0-based
// positions in the row list; RowStart values are the r attributes of each
// block's first row before the swap.
type SwapResult struct {
	RowCount    int `json:"row_count"`
	AStartIndex int `json:"a_start_index"`
	BStartIndex int `json:"b_start_index"`
	ARowStart   int `json:"a_row_r_start"`
	BRowStart   int `json:"b_row_r_start"`
}

// RowBlockSwap exchanges two non-overlapping blocks of rowCount consecutive
// rows chosen by a PRNG seeded with seed. Moved rows take the row numbers of
// the positions they move into. Everything outside the two blocks is copied
// verbatim.
func RowBlockSwap(xml []byte, rowCount int, seed int64) ([]byte, SwapResult, error) {
	if rowCount < 1 {
		return nil, SwapResult{}, fmt.Errorf("row_count must be > 0, got %d", rowCount)
	}
	spans := RowSpans(xml)
	if len(spans) < rowCount*2 {
		return nil, SwapResult{}, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughRows, len(spans), rowCount*2)
	}

	rng := rand.New(rand.NewSource(seed))
	maxStart := len(spans) - rowCount
	a := rng.Intn(maxStart + 1)
	b := rng.Intn(maxStart + 1)
	for attempts := 0; !(b+rowCount <= a || a+rowCount <= b); attempts++ {
		if attempts >= maxSwapAttempts {
			return nil, SwapResult{}, ErrOverlap
		}
		b = rng.Intn(maxStart + 1)
	}
	if a > b {
		a, b = b, a
	}

	blockA := spans[a : a+rowCount]
	blockB := spans[b : b+rowCount]

	var out bytes.Buffer
	out.Grow(len(xml) + rowCount*16)
	out.Write(xml[:blockA[0].Start])
	for k := range blockA {
		out.Write(RenumberRow(xml[blockB[k].Start:blockB[k].End], blockA[k].R))
	}
	out.Write(xml[blockA[rowCount-1].End:blockB[0].Start])
	for k := range blockB {
		out.Write(RenumberRow(xml[blockA[k].Start:blockA[k].End], blockB[k].R))
	}
	out.Write(xml[blockB[rowCount-1].End:])

	return out.Bytes(), SwapResult{
		RowCount:    rowCount,
		AStartIndex: a,
		BStartIndex: b,
		ARowStart:   blockA[0].R,
		BRowStart:   blockB[0].R,
	}, nil
}
