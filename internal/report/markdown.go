package report

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/sirupsen/logrus"
	"github.com/txrtlemrry/PaperFinder-App/internal/finder"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
}

// RenderMarkdown renders the results as Markdown by converting the HTML
// results fragment
func RenderMarkdown(logger *logrus.Logger, results []finder.SubjectLinks) (string, error) {
	var html bytes.Buffer
	if err := RenderResults(&html, results); err != nil {
		return "", err
	}

	markdown, err := newMarkdownConverter().ConvertString(html.String())
	if err != nil {
		return "", fmt.Errorf("failed to convert results to markdown: %w", err)
	}
	markdown = strings.TrimSpace(blankLines.ReplaceAllString(markdown, "\n\n")) + "\n"

	logger.WithFields(logrus.Fields{
		"html_length":     html.Len(),
		"markdown_length": len(markdown),
	}).Debug("Results converted to markdown")

	return markdown, nil
}
