package diagram

// DefaultTemplate returns the built-in starter diagram: a generic
// battery-powered device with five blocks and four connections into and
// out of the processing block.
func DefaultTemplate() Diagram {
	return Diagram{
		Blocks: []Block{
			{
				ID:         "power",
				Type:       CategoryPower,
				Title:      "Power Supply",
				Components: []string{"Li-ion Battery", "Charging IC", "3.3V LDO Regulator"},
				Annotation: "USB-C charging input",
			},
			{
				ID:         "inputs",
				Type:       CategoryInputs,
				Title:      "Inputs",
				Components: []string{"Push Buttons", "Temperature Sensor", "Microphone"},
			},
			{
				ID:         "processing",
				Type:       CategoryProcessing,
				Title:      "Processing",
				Components: []string{"Microcontroller", "Flash Memory", "Crystal Oscillator"},
			},
			{
				ID:         "outputs",
				Type:       CategoryOutputs,
				Title:      "Outputs",
				Components: []string{"OLED Display", "Status LEDs", "Speaker Driver"},
			},
			{
				ID:         "peripherals",
				Type:       CategoryPeripherals,
				Title:      "Peripherals",
				Components: []string{"Bluetooth Module", "USB Interface", "Debug Header"},
			},
		},
		Connections: []Connection{
			{Source: "power", Target: "processing", Label: "3.3V"},
			{Source: "inputs", Target: "processing", Label: "GPIO / ADC"},
			{Source: "processing", Target: "outputs", Label: "I2C / PWM"},
			{Source: "processing", Target: "peripherals", Label: "UART / USB"},
		},
	}
}
