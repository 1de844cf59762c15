package canvas

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmax-ai/blockgen/pkg/diagram"
)

func TestEditSession_Confirm(t *testing.T) {
	c, sink := loaded(t)
	ctx := context.Background()
	require.NoError(t, c.MoveNode(ctx, "inputs", diagram.Position{X: 7, Y: 8}))
	before, _ := c.Node("inputs")

	s, err := c.BeginEdit("inputs")
	require.NoError(t, err)
	require.NoError(t, s.SetTitle("Sensors"))
	require.NoError(t, s.AddComponent("IMU"))
	require.NoError(t, s.RemoveComponent(0))
	require.NoError(t, s.SetComponent(0, "NTC Thermistor"))
	require.NoError(t, s.SetAnnotation("all on I2C"))

	// Nothing is visible before confirm.
	n, _ := c.Node("inputs")
	assert.Equal(t, before, n)

	require.NoError(t, s.Confirm(ctx))

	n, _ = c.Node("inputs")
	assert.Equal(t, "Sensors", n.Data.Title)
	assert.Equal(t, []string{"NTC Thermistor", "Microphone", "IMU"}, n.Data.Components)
	assert.Equal(t, "all on I2C", n.Data.Annotation)
	assert.Equal(t, before.ID, n.ID)
	assert.Equal(t, before.Data.Category, n.Data.Category)
	assert.Equal(t, before.Position, n.Position)
	assert.Equal(t, "Sensors", sink.Last().Nodes[1].Data.Title)

	assert.True(t, errors.Is(s.Confirm(ctx), ErrEditClosed))
	assert.True(t, errors.Is(s.SetTitle("again"), ErrEditClosed))
}

func TestEditSession_Cancel(t *testing.T) {
	c, sink := loaded(t)
	syncs := sink.Syncs()
	before, _ := c.Node("outputs")

	s, err := c.BeginEdit("outputs")
	require.NoError(t, err)
	require.NoError(t, s.SetTitle("Display"))
	require.NoError(t, s.RemoveComponent(2))
	s.Cancel()

	n, _ := c.Node("outputs")
	assert.Equal(t, before, n)
	assert.Equal(t, before.Data, s.Draft())
	assert.Equal(t, syncs, sink.Syncs(), "cancel must not sync")
	assert.True(t, errors.Is(s.AddComponent("x"), ErrEditClosed))
}

func TestEditSession_Errors(t *testing.T) {
	c, _ := loaded(t)
	ctx := context.Background()

	_, err := c.BeginEdit("ghost")
	assert.True(t, errors.Is(err, ErrNodeNotFound))

	s, err := c.BeginEdit("power")
	require.NoError(t, err)
	assert.True(t, errors.Is(s.RemoveComponent(10), ErrComponentIndex))
	assert.True(t, errors.Is(s.SetComponent(-1, "x"), ErrComponentIndex))

	// The node vanishes while the session is open.
	require.NoError(t, c.DeleteNode(ctx, "power"))
	assert.True(t, errors.Is(s.Confirm(ctx), ErrNodeNotFound))
}

func TestEditSession_DraftIsolation(t *testing.T) {
	c, _ := loaded(t)
	s, err := c.BeginEdit("processing")
	require.NoError(t, err)

	draft := s.Draft()
	draft.Components[0] = "leaked"
	assert.NotEqual(t, "leaked", s.Draft().Components[0])

	require.NoError(t, s.SetComponent(0, "RP2040"))
	n, _ := c.Node("processing")
	assert.Equal(t, "Microcontroller", n.Data.Components[0])
	assert.Equal(t, "Microcontroller", s.Original().Components[0])
}
