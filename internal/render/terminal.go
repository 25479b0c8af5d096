package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/TWRT/eisenhower-matrix/internal/models"
)

// ColorEnabled reports whether w is a terminal that should get ANSI colors.
func ColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type palette struct {
	header  *color.Color
	muted   *color.Color
	errText *color.Color
	status  map[models.DueStatus]*color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		header:  color.New(color.Bold, color.FgCyan),
		muted:   color.New(color.Faint),
		errText: color.New(color.FgRed, color.Bold),
		status: map[models.DueStatus]*color.Color{
			models.DueOverdue:  color.New(color.FgRed),
			models.DueToday:    color.New(color.FgYellow),
			models.DueThisWeek: color.New(color.FgBlue),
			models.DueFuture:   color.New(color.FgGreen),
		},
	}
	all := []*color.Color{p.header, p.muted, p.errText}
	for _, c := range p.status {
		all = append(all, c)
	}
	for _, c := range all {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// WriteBoard prints the board as four stacked quadrants followed by the
// due summary. Colors are used only when useColor is set.
func WriteBoard(w io.Writer, b Board, useColor bool) error {
	p := newPalette(useColor)
	var sb strings.Builder

	if b.Error != "" {
		sb.WriteString(p.errText.Sprint(b.Error))
		sb.WriteString("\n")
	}

	for _, col := range b.Columns {
		marker := ""
		if col.DragOver {
			marker = " <- drop here"
		}
		sb.WriteString(p.header.Sprintf("%s (%s) [%d]%s", col.Title, col.Quadrant, len(col.Cards), marker))
		sb.WriteString("\n")
		if len(col.Cards) == 0 {
			sb.WriteString(p.muted.Sprint("  no tasks"))
			sb.WriteString("\n")
		}
		for _, card := range col.Cards {
			writeCard(&sb, p, card)
		}
		sb.WriteString("\n")
	}

	if len(b.Unplaced) > 0 {
		sb.WriteString(p.header.Sprintf("Unplaced [%d]", len(b.Unplaced)))
		sb.WriteString("\n")
		for _, card := range b.Unplaced {
			writeCard(&sb, p, card)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("%s  %s  %s\n",
		p.status[models.DueOverdue].Sprintf("overdue: %d", b.Summary.Overdue),
		p.status[models.DueToday].Sprintf("due today: %d", b.Summary.DueToday),
		p.status[models.DueThisWeek].Sprintf("this week: %d", b.Summary.DueThisWeek),
	))

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeCard(sb *strings.Builder, p palette, card Card) {
	check := "[ ]"
	if card.Completed {
		check = "[x]"
	}
	line := fmt.Sprintf("  %s #%-4d %s", check, card.ID, card.Title)
	if card.Category != "" {
		line += p.muted.Sprintf("  (%s)", card.Category)
	}
	sb.WriteString(line)
	sb.WriteString("  ")
	sb.WriteString(p.status[card.DueStatus].Sprint(card.DueLabel))
	if card.Pending {
		sb.WriteString(p.muted.Sprint("  (saving)"))
	}
	sb.WriteString("\n")
}
