package generators

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabulensis/fixturegen/internal/generators"
)

func TestList(t *testing.T) {
	entries := List(generators.Default())
	require.NotEmpty(t, entries)

	byName := map[string]Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	assert.Equal(t, "1+", byName["basic_grid"].Outputs)
	assert.Equal(t, "2", byName["single_cell_diff"].Outputs)
	assert.Equal(t, "1", byName["pbix"].Outputs)
	assert.Equal(t, "1-2", byName["openxml_mutate"].Outputs)
	assert.Contains(t, byName, "mashup:permissions_metadata")
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, []Entry{{Name: "pbix", Outputs: "1", Description: "minimal Power BI package"}}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "minimal Power BI package")
}
