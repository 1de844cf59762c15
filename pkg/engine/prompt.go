package engine

import (
	"encoding/json"

	"github.com/rmax-ai/blockgen/pkg/provider"
)

// ToolName is the function the model is forced to call.
const ToolName = "generate_block_diagram"

const systemPrompt = `You are an electronics system architect. Given a product description, produce a block diagram with EXACTLY 5 blocks, one for each of these categories:

1. power: power source, battery, charging and voltage regulation
2. inputs: sensors, buttons, microphones and other user or environment inputs
3. processing: microcontroller or processor, memory, clocks
4. outputs: displays, LEDs, speakers, motors and other actuators
5. peripherals: wireless modules, connectivity, storage and debug interfaces

Guidelines:
- Use the category name as the block id (power, inputs, processing, outputs, peripherals).
- Give each block a short descriptive title.
- List 2 to 5 concrete, real-world components per block.
- Add an annotation only when it clarifies a key design constraint.
- Connect blocks the way signals and power actually flow. Keep connection labels short (for example "3.3V", "I2C", "SPI", "GPIO").

Always answer by calling the generate_block_diagram function.`

// toolSchema requires exactly five blocks of the known categories.
var toolSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "blocks": {
      "type": "array",
      "minItems": 5,
      "maxItems": 5,
      "items": {
        "type": "object",
        "properties": {
          "id": {"type": "string"},
          "type": {"type": "string", "enum": ["power", "inputs", "processing", "outputs", "peripherals"]},
          "title": {"type": "string"},
          "components": {"type": "array", "items": {"type": "string"}},
          "annotation": {"type": "string"}
        },
        "required": ["id", "type", "title", "components"],
        "additionalProperties": false
      }
    },
    "connections": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "source": {"type": "string"},
          "target": {"type": "string"},
          "label": {"type": "string"}
        },
        "required": ["source", "target"],
        "additionalProperties": false
      }
    }
  },
  "required": ["blocks", "connections"],
  "additionalProperties": false
}`)

// DiagramTool returns the tool definition sent with every generation request.
func DiagramTool() provider.Tool {
	return provider.Tool{
		Name:        ToolName,
		Description: "Generate a 5-block electronics system diagram with connections between blocks",
		Parameters:  toolSchema,
	}
}

func buildRequest(description string) provider.ChatRequest {
	return provider.ChatRequest{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: systemPrompt},
			{Role: provider.RoleUser, Content: description},
		},
		Tools:      []provider.Tool{DiagramTool()},
		ToolChoice: ToolName,
	}
}
