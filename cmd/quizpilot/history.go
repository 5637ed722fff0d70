package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/ternarybob/quizpilot/internal/models"
	"golang.org/x/term"
)

// isTerminal reports whether w is attached to a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// historyTable renders runs, most recent first, as a bordered table
func historyTable(runs []*models.RunRecord, noColor bool) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		submitted := "no"
		if run.Submitted {
			submitted = "yes"
		}
		mode := run.Provider
		if run.DryRun {
			mode = "dry-run"
		}
		rows = append(rows, []string{
			shortRunID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			mode,
			strconv.Itoa(len(run.Results)),
			strconv.Itoa(run.Count(models.QuestionAdvanced)),
			strconv.Itoa(run.Count(models.QuestionSkipped)),
			submitted,
			run.TargetURL,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RUN", "STARTED", "MODE", "QUESTIONS", "ADVANCED", "SKIPPED", "SUBMITTED", "URL").
		Rows(rows...)

	if !noColor {
		header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
		failed := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
		t = t.StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case col == 5 && row >= 0 && row < len(rows) && rows[row][5] != "0":
				return failed
			}
			return lipgloss.NewStyle()
		})
	}

	return t.String()
}

// shortRunID drops the run_ prefix and keeps the first 8 characters of the uuid
func shortRunID(id string) string {
	id = strings.TrimPrefix(id, "run_")
	return id[:min(8, len(id))]
}

func printHistory(w io.Writer, runs []*models.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return
	}
	fmt.Fprintln(w, historyTable(runs, !isTerminal(w)))
}
