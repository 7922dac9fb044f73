package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_AlignsColumns(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Table([]string{"ID", "Name"}, [][]string{
		{"prod-001", "Rollo RB 346"},
		{"prod-0042", "Disco"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Index(lines[1], "Rollo"), strings.Index(lines[2], "Disco"))
	assert.Equal(t, strings.Index(lines[0], "Name"), strings.Index(lines[1], "Rollo"))
}

func TestPrinter_Messages(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Success("saved %d", 3)
	p.Warning("low")
	p.Info("note")
	p.Section("Catalog")

	out := buf.String()
	assert.Contains(t, out, "saved 3")
	assert.Contains(t, out, "low")
	assert.Contains(t, out, "═══════")
}
