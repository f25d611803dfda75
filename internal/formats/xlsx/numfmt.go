package xlsx

import (
	"fmt"

	"github.com/xuri/nfp"
)

// ValidateNumberFormat rejects custom number formats that excelize would
// store but spreadsheet consumers cannot render: empty codes, more than four
// sections, or tokens the format grammar does not recognize.
func ValidateNumberFormat(code string) error {
	ps := nfp.NumberFormatParser()
	sections := ps.Parse(code)
	// The parser yields no sections for empty codes and for codes with more
	// than four sections.
	if len(sections) == 0 {
		return fmt.Errorf("invalid number format %q: expected one to four sections", code)
	}
	for _, sec := range sections {
		for _, tok := range sec.Items {
			if tok.TType == nfp.TokenTypeUnknown {
				return fmt.Errorf("invalid number format %q: unrecognized token %q", code, tok.TValue)
			}
		}
	}
	return nil
}
