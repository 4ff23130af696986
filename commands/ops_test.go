package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateCommand(t *testing.T) {
	tests := map[string]Operation{
		"start":     START,
		"restart":   RESTART,
		"stop":      STOP,
		" status  ": STATUS,
	}
	for s, op := range tests {
		c, err := CreateCommand(s)
		assert.NoError(t, err, s)
		assert.Equal(t, op, c.Op, s)
		assert.Empty(t, c.Args)
	}
}

func TestCreateCommandInvalid(t *testing.T) {
	for _, s := range []string{"", "   ", "mine", "stop now"} {
		_, err := CreateCommand(s)
		assert.Error(t, err, s)
	}
}

func TestInterrupts(t *testing.T) {
	assert.True(t, Command{Op: STOP}.Interrupts())
	assert.True(t, Command{Op: RESTART}.Interrupts())
	assert.False(t, Command{Op: STATUS}.Interrupts())
	assert.False(t, NewDefaultCommand().Interrupts())
	assert.True(t, NewDefaultCommand().IsDefault())
	assert.Equal(t, "stop", Command{Op: STOP}.String())
}
