package diagram

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Template(t *testing.T) {
	data, err := json.Marshal(DefaultTemplate())
	require.NoError(t, err)

	d, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplate(), d)
}

func TestDecode_Errors(t *testing.T) {
	block := func(id, typ string) string {
		return `{"id":"` + id + `","type":"` + typ + `","title":"T","components":["a"]}`
	}
	five := block("a", "power") + "," + block("b", "inputs") + "," + block("c", "processing") + "," +
		block("d", "outputs") + "," + block("e", "peripherals")

	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{
			name:   "not JSON",
			input:  `{`,
			reason: "malformed JSON",
		},
		{
			name:   "missing blocks",
			input:  `{"connections":[]}`,
			reason: "missing blocks",
		},
		{
			name:   "too few blocks",
			input:  `{"blocks":[` + block("a", "power") + `,` + block("b", "inputs") + `,` + block("c", "processing") + `],"connections":[]}`,
			reason: "expected 5 blocks, got 3",
		},
		{
			name:   "missing connections",
			input:  `{"blocks":[` + five + `]}`,
			reason: "missing connections",
		},
		{
			name: "missing title",
			input: `{"blocks":[{"id":"a","type":"power","components":[]},` + block("b", "inputs") + `,` + block("c", "processing") + `,` +
				block("d", "outputs") + `,` + block("e", "peripherals") + `],"connections":[]}`,
			reason: "blocks[0]: missing title",
		},
		{
			name: "unknown category",
			input: `{"blocks":[` + block("a", "power") + `,` + block("b", "inputs") + `,` + block("c", "brains") + `,` +
				block("d", "outputs") + `,` + block("e", "peripherals") + `],"connections":[]}`,
			reason: `blocks[2]: unknown type "brains"`,
		},
		{
			name:   "components not strings",
			input:  `{"blocks":[{"id":"a","type":"power","title":"P","components":[1]}],"connections":[]}`,
			reason: "malformed JSON",
		},
		{
			name:   "connection without target",
			input:  `{"blocks":[` + five + `],"connections":[{"source":"a"}]}`,
			reason: "connections[0]: missing target",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			require.Error(t, err)

			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "expected *SchemaError, got %T", err)
			assert.Contains(t, schemaErr.Reason, tt.reason)
		})
	}
}

func TestDecode_LenientOnCategoriesAndReferences(t *testing.T) {
	// Two power blocks, no outputs block, and a dangling connection all pass.
	input := `{"blocks":[
		{"id":"a","type":"power","title":"A","components":["x"]},
		{"id":"b","type":"power","title":"B","components":["x"]},
		{"id":"c","type":"inputs","title":"C","components":["x"]},
		{"id":"d","type":"processing","title":"D","components":["x"]},
		{"id":"e","type":"peripherals","title":"E","components":["x"]}
	],"connections":[{"source":"a","target":"ghost","label":"?"}]}`

	d, err := Decode([]byte(input))
	require.NoError(t, err)
	assert.Len(t, d.Blocks, 5)
	assert.Equal(t, "?", d.Connections[0].Label)
}

func TestValidate_EmptyComponents(t *testing.T) {
	d := DefaultTemplate()
	d.Blocks[3].Components = nil

	err := Validate(d)
	require.Error(t, err)
	assert.EqualError(t, err, "invalid diagram: blocks[3]: missing components")
}

func TestLint(t *testing.T) {
	assert.Empty(t, Lint(DefaultTemplate()))

	d := DefaultTemplate()
	d.Blocks[3].Type = CategoryPower
	d.Blocks[4].ID = "power" // also leaves processing->peripherals dangling
	d.Connections = append(d.Connections, Connection{Source: "nowhere", Target: "processing"})

	kinds := make(map[string]int)
	for _, f := range Lint(d) {
		kinds[f.Kind]++
	}
	assert.Equal(t, 1, kinds[FindingDuplicateID])
	assert.Equal(t, 1, kinds[FindingDuplicateCategory])
	assert.Equal(t, 1, kinds[FindingMissingCategory])
	assert.Equal(t, 1, kinds[FindingDanglingSource])
	assert.Equal(t, 1, kinds[FindingDanglingTarget])
}
