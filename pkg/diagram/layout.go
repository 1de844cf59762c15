package diagram

// Position is a canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FallbackPosition is used for any category outside the known five.
var FallbackPosition = Position{X: 400, Y: 300}

// Fixed reading order: power on the left, inputs above and left of the
// center, processing in the center, outputs top right, peripherals below.
var categoryPositions = map[Category]Position{
	CategoryPower:       {X: 50, Y: 250},
	CategoryInputs:      {X: 300, Y: 50},
	CategoryProcessing:  {X: 400, Y: 250},
	CategoryOutputs:     {X: 750, Y: 50},
	CategoryPeripherals: {X: 400, Y: 480},
}

// PositionFor returns the fixed canvas position of a category. It does not
// look at diagram structure; callers apply it once at load time.
func PositionFor(c Category) Position {
	if p, ok := categoryPositions[c]; ok {
		return p
	}
	return FallbackPosition
}
