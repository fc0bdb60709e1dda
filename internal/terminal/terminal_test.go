package terminal

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rebel-command/internal/game"
)

func play(t *testing.T, input string) (game.State, string) {
	t.Helper()
	var out bytes.Buffer
	d := NewDriver(game.NewEngine(), strings.NewReader(input), &out, nil)
	s, err := d.Run(context.Background())
	require.NoError(t, err)
	return s, out.String()
}

func TestRunPlaysToVictory(t *testing.T) {
	s, out := play(t, "Wedge\n1\n1\n1\n1\n1\n")
	assert.Equal(t, game.EndingVictory, s.Ending())
	assert.Contains(t, out, "Phase 1: The Rescue")
	assert.Contains(t, out, "Phase 4: The Final Battle")
	assert.Contains(t, out, "VICTORY")
}

func TestRunRepromptsBlankName(t *testing.T) {
	s, out := play(t, "\n   \nBiggs\n")
	assert.Equal(t, "Biggs", s.Commander.Name)
	assert.Equal(t, 2, strings.Count(out, "A commander needs a name."))
}

func TestRunNonNumericInputIsRetryable(t *testing.T) {
	s, out := play(t, "Wedge\nfire\n9\n2\n")
	assert.Contains(t, out, "Invalid choice")
	assert.Equal(t, 2, s.CurrentPhase())
	assert.Equal(t, 50, s.Commander.Credits)
}

func TestRunShowsUnavailableOptions(t *testing.T) {
	_, out := play(t, "Wedge\n")
	assert.Contains(t, out, "3. Direct assault (needs reputation 70) [unavailable]")
	assert.Contains(t, out, "2. Hire mercenaries (needs 50 credits)")
	assert.Contains(t, out, "1. Stealth infiltration of the detention block (40+ reputation recommended)\n")
}

func TestRunQuitAbandons(t *testing.T) {
	s, out := play(t, "Wedge\nquit\n1\n")
	assert.Equal(t, game.EndingAbandoned, s.Ending())
	assert.Contains(t, out, "stepped away from command")
}

func TestRunEOFBeforeNameReturnsEOF(t *testing.T) {
	var out bytes.Buffer
	d := NewDriver(game.NewEngine(), strings.NewReader(""), &out, nil)
	_, err := d.Run(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	d := NewDriver(game.NewEngine(), strings.NewReader("Wedge\n1\n"), &out, nil)
	s, err := d.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, s.CurrentPhase())
}
