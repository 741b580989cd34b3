package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/txrtlemrry/PaperFinder-App/internal/finder"
)

// RenderText writes an indented listing of the results for a terminal.
// Colour is only applied when colour is true.
func RenderText(w io.Writer, results []finder.SubjectLinks, colour bool) error {
	subjectC := color.New(color.FgCyan, color.Bold)
	yearC := color.New(color.FgYellow, color.Bold)
	sessionC := color.New(color.FgGreen)
	paperC := color.New(color.FgBlue)
	faint := color.New(color.Faint)
	for _, c := range []*color.Color{subjectC, yearC, sessionC, paperC, faint} {
		if colour {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	var b strings.Builder
	if len(results) == 0 {
		b.WriteString("No subjects in the catalog.\n")
	}
	for _, subject := range results {
		fmt.Fprintf(&b, "%s\n", subjectC.Sprintf("%s %s", subject.Code, subject.Name))
		for _, year := range subject.Links {
			fmt.Fprintf(&b, "  %s\n", yearC.Sprint(year.Year))
			if len(year.Sessions) == 0 {
				fmt.Fprintf(&b, "    %s\n", faint.Sprint("(no sessions)"))
			}
			for _, session := range year.Sessions {
				fmt.Fprintf(&b, "    %s\n", sessionC.Sprintf("%s [%s]", session.Label, session.ShortCode))
				for _, paper := range session.Papers {
					fmt.Fprintf(&b, "      %s\n", paperC.Sprint(paper.Label))
					if len(paper.QuestionPapers)+len(paper.MarkSchemes) == 0 {
						fmt.Fprintf(&b, "        %s\n", faint.Sprint("(no variants)"))
					}
					for _, url := range paper.QuestionPapers {
						fmt.Fprintf(&b, "        qp %s\n", url)
					}
					for _, url := range paper.MarkSchemes {
						fmt.Fprintf(&b, "        ms %s\n", url)
					}
				}
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
