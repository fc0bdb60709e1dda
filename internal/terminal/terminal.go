package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"rebel-command/internal/game"
)

// Driver plays one session over a line-oriented reader and writer.
type Driver struct {
	engine *game.Engine
	in     *bufio.Reader
	out    io.Writer
	log    *zap.Logger
	st     styles
}

func NewDriver(engine *game.Engine, in io.Reader, out io.Writer, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{
		engine: engine,
		in:     bufio.NewReader(in),
		out:    out,
		log:    log,
		st:     newStyles(out),
	}
}

// Run prompts for a commander and plays until the game ends, the player
// quits, input runs out, or ctx is cancelled. It returns the last state.
func (d *Driver) Run(ctx context.Context) (game.State, error) {
	fmt.Fprintln(d.out, d.st.title.Render("REBEL ALLIANCE COMMAND"))

	s, err := d.promptCommander()
	if err != nil {
		return game.State{}, err
	}
	d.log.Debug("session started", zap.String("commander", s.Commander.Name))

	for {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		d.renderStatus(s)
		fmt.Fprint(d.out, "> ")
		line, err := d.readLine()
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		if err != nil {
			return s, err
		}
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "q", "quit":
			s = game.Abandon(s)
			d.renderEnding(s)
			return s, nil
		}

		next, msg, err := d.engine.Apply(s, line)
		if err != nil {
			fmt.Fprintln(d.out, d.st.warn.Render(msg))
			d.log.Debug("choice rejected", zap.String("input", line), zap.Error(err))
			continue
		}
		fmt.Fprintln(d.out, d.st.outcome.Render(msg))
		s = next
		if s.GameOver() {
			d.renderEnding(s)
			return s, nil
		}
	}
}

func (d *Driver) promptCommander() (game.State, error) {
	for {
		fmt.Fprint(d.out, "Commander name: ")
		line, err := d.readLine()
		if err != nil {
			return game.State{}, err
		}
		s, err := game.NewState(line)
		if errors.Is(err, game.ErrEmptyName) {
			fmt.Fprintln(d.out, d.st.warn.Render("A commander needs a name."))
			continue
		}
		return s, err
	}
}

// readLine returns io.EOF only when no text is left.
func (d *Driver) readLine() (string, error) {
	line, err := d.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (d *Driver) renderStatus(s game.State) {
	text := d.engine.Describe(s)
	c, w := s.Commander, s.World

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", d.st.title.Render(text.Title), text.Description)
	fmt.Fprintf(&b, "%s %s  %s %d  %s %d  %s %d\n",
		d.st.label.Render("Commander"), c.Name,
		d.st.label.Render("Reputation"), c.Reputation,
		d.st.label.Render("Force"), c.ForcePoints,
		d.st.label.Render("Credits"), c.Credits)
	fmt.Fprintf(&b, "%s %d  %s %d  %s %s  %s %s",
		d.st.label.Render("Ships"), w.Ships,
		d.st.label.Render("Pilots"), w.Pilots,
		d.st.label.Render("Plans"), yesNo(w.DeathStarPlans),
		d.st.label.Render("Mentor"), aliveGone(w.MentorAlive))

	menu := make([]string, 0, 6)
	for _, item := range game.Menu(s) {
		line := fmt.Sprintf("%d. %s", item.ID, item.Label)
		switch {
		case strings.HasSuffix(item.Requires, "recommended"):
			line += fmt.Sprintf(" (%s)", item.Requires)
		case item.Requires != "":
			line += fmt.Sprintf(" (needs %s)", item.Requires)
		}
		if item.Available {
			menu = append(menu, d.st.option.Render(line))
		} else {
			menu = append(menu, d.st.blocked.Render(line+" [unavailable]"))
		}
	}
	menu = append(menu, d.st.label.Render("q. Quit"))

	fmt.Fprintln(d.out, lipgloss.JoinVertical(lipgloss.Left,
		d.st.panel.Render(b.String()),
		strings.Join(menu, "\n"),
	))
}

func (d *Driver) renderEnding(s game.State) {
	fmt.Fprintln(d.out, d.st.ending.Render(d.engine.EndingText(s)))
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func aliveGone(v bool) string {
	if v {
		return "alive"
	}
	return "gone"
}
