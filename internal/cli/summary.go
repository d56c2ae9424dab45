package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/temirov/repobundle/internal/types"
	"github.com/temirov/repobundle/internal/utils"
)

const (
	summaryHeading      = "Summary"
	summaryRowFormat    = "  %s %s\n"
	summaryLabelFormat  = "%-8s"
	summaryFilesLabel   = "Files"
	summarySizeLabel    = "Size"
	summaryTokensLabel  = "Tokens"
	summaryOutputLabel  = "Output"
	tokensWithModelForm = "%s (%s)"
)

func isTerminal(file *os.File) bool {
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// printSummary writes the metrics of a persisted run as a small table.
func printSummary(writer io.Writer, summary types.RunSummary, useColors bool) error {
	headingColor := color.New(color.FgCyan, color.Bold)
	labelColor := color.New(color.FgBlue)
	valueColor := color.New(color.FgGreen)
	for _, painter := range []*color.Color{headingColor, labelColor, valueColor} {
		if useColors {
			painter.EnableColor()
		} else {
			painter.DisableColor()
		}
	}

	rows := [][2]string{
		{summaryFilesLabel, strconv.Itoa(summary.Files)},
		{summarySizeLabel, utils.FormatFileSize(summary.SizeBytes)},
		{summaryTokensLabel, fmt.Sprintf(tokensWithModelForm, strconv.Itoa(summary.Tokens), summary.Model)},
		{summaryOutputLabel, summary.Destination},
	}
	if _, err := fmt.Fprintln(writer, headingColor.Sprint(summaryHeading)); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(writer, summaryRowFormat, labelColor.Sprint(fmt.Sprintf(summaryLabelFormat, row[0])), valueColor.Sprint(row[1])); err != nil {
			return err
		}
	}
	return nil
}
