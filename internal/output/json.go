// Package output provides the JSON envelope every command emits under --json.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tabulensis/fixturegen/cmd/version"
)

// Exit codes for consistent error reporting.
const (
	ExitOK          = 0 // success
	ExitUserError   = 1 // bad flags, missing manifest, failed verification
	ExitSystemError = 2 // IO error while writing artifacts
)

// JSONResult is the standard JSON output envelope for all commands.
type JSONResult struct {
	OK      bool   `json:"ok"`
	Command string `json:"command"`
	Version string `json:"version"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// PrintJSON writes a success envelope around data.
func PrintJSON(w io.Writer, cmd string, data any) error {
	return encode(w, JSONResult{
		OK:      true,
		Command: cmd,
		Version: version.Version,
		Data:    data,
	})
}

// PrintJSONError writes a failure envelope. Data may carry partial results,
// such as the problems found by verify.
func PrintJSONError(w io.Writer, cmd string, err error, code int, data any) error {
	if encErr := encode(w, JSONResult{
		OK:      false,
		Command: cmd,
		Version: version.Version,
		Data:    data,
		Error:   err.Error(),
		Code:    code,
	}); encErr != nil {
		return fmt.Errorf("could not encode JSON error: %w", encErr)
	}
	return nil
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
