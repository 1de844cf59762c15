// Package diagram defines the canonical block diagram exchanged with the
// generation endpoint and persisted in export files.
package diagram

// Category is the subsystem a block belongs to.
type Category string

const (
	CategoryPower       Category = "power"
	CategoryInputs      Category = "inputs"
	CategoryProcessing  Category = "processing"
	CategoryOutputs     Category = "outputs"
	CategoryPeripherals Category = "peripherals"
)

// BlockCount is the number of blocks every valid diagram carries.
const BlockCount = 5

// Categories returns the five categories in reading order.
func Categories() []Category {
	return []Category{
		CategoryPower,
		CategoryInputs,
		CategoryProcessing,
		CategoryOutputs,
		CategoryPeripherals,
	}
}

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryPower, CategoryInputs, CategoryProcessing, CategoryOutputs, CategoryPeripherals:
		return true
	}
	return false
}

// Block is one subsystem of the product.
type Block struct {
	ID         string   `json:"id"`
	Type       Category `json:"type"`
	Title      string   `json:"title"`
	Components []string `json:"components"`
	Annotation string   `json:"annotation,omitempty"`
}

// Connection is a directed, optionally labeled relationship between two blocks.
type Connection struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// Diagram is the canonical {blocks, connections} aggregate.
type Diagram struct {
	Blocks      []Block      `json:"blocks"`
	Connections []Connection `json:"connections"`
}

// Block returns the block with the given id.
func (d Diagram) Block(id string) (Block, bool) {
	for _, b := range d.Blocks {
		if b.ID == id {
			return b, true
		}
	}
	return Block{}, false
}

// Clone returns a deep copy of d.
func (d Diagram) Clone() Diagram {
	out := Diagram{
		Blocks:      make([]Block, len(d.Blocks)),
		Connections: make([]Connection, len(d.Connections)),
	}
	for i, b := range d.Blocks {
		b.Components = CloneStrings(b.Components)
		out.Blocks[i] = b
	}
	copy(out.Connections, d.Connections)
	return out
}

// CloneStrings copies s, keeping nil as nil.
func CloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
