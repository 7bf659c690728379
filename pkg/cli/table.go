package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/spf13/cast"
	"golang.org/x/term"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/models"
)

const (
	minCellWidth = 8
	columnGap    = 2
)

// terminalWidth returns the width of w when it is a terminal, or 0.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// writeTable prints up to maxRows rows of rs as aligned columns. A positive
// width truncates cells so each row fits.
func writeTable(w io.Writer, rs *models.ResultSet, maxRows, width int) error {
	if len(rs.Columns) == 0 {
		_, err := fmt.Fprintln(w, "(no columns)")
		return err
	}

	cellWidth := 0
	if width > 0 {
		cellWidth = (width - columnGap*(len(rs.Columns)-1)) / len(rs.Columns)
		cellWidth = max(cellWidth, minCellWidth)
	}

	tw := tabwriter.NewWriter(w, 0, 0, columnGap, ' ', 0)

	header := make([]string, len(rs.Columns))
	rule := make([]string, len(rs.Columns))
	for i, col := range rs.Columns {
		header[i] = truncateCell(col, cellWidth)
		rule[i] = strings.Repeat("-", utf8.RuneCountInString(header[i]))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	fmt.Fprintln(tw, strings.Join(rule, "\t"))

	shown := rs.Rows
	if maxRows > 0 && len(shown) > maxRows {
		shown = shown[:maxRows]
	}
	cells := make([]string, len(rs.Columns))
	for _, row := range shown {
		for i, col := range rs.Columns {
			cells[i] = truncateCell(formatCell(row[col]), cellWidth)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	switch hidden := len(rs.Rows) - len(shown); {
	case hidden > 0:
		_, err := fmt.Fprintf(w, "(%d rows, %d not shown)\n", len(rs.Rows), hidden)
		return err
	case len(rs.Rows) == 1:
		_, err := fmt.Fprintln(w, "(1 row)")
		return err
	default:
		_, err := fmt.Fprintf(w, "(%d rows)\n", len(rs.Rows))
		return err
	}
}

func formatCell(v any) string {
	var s string
	switch val := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		var err error
		if s, err = cast.ToStringE(v); err != nil {
			s = fmt.Sprint(v)
		}
	}
	// Tabs and newlines would break column alignment.
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", "").Replace(s)
}

func truncateCell(s string, width int) string {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}
