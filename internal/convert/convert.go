// Package convert renders the pages of PDF files to PNG images.
package convert

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/txrtlemrry/PaperFinder-App/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMarker is the substring a file name must contain to be converted
	DefaultMarker = "qp"
	// DefaultDPI matches MuPDF's default pixmap resolution
	DefaultDPI = 72.0

	defaultDirMode  = 0o755
	defaultDebounce = 500 * time.Millisecond
)

// FileResult is the outcome of converting one PDF
type FileResult struct {
	Path    string   `json:"path"`
	Pages   int      `json:"pages"`
	Outputs []string `json:"outputs,omitempty"`
	Err     error    `json:"-"`
	Error   string   `json:"error,omitempty"`
}

// Summary is the outcome of a batch
type Summary struct {
	Converted int          `json:"converted"`
	Failed    int          `json:"failed"`
	Pages     int          `json:"pages"`
	Files     []FileResult `json:"files"`
}

func (s *Summary) add(r FileResult) {
	s.Files = append(s.Files, r)
	if r.Err != nil {
		s.Failed++
		return
	}
	s.Converted++
	s.Pages += r.Pages
}

// Converter renders matching PDFs in a directory to PNG files
type Converter struct {
	logger   *logrus.Logger
	marker   string
	dpi      float64
	workers  int
	pages    string
	strict   bool
	debounce time.Duration
	open     Opener
	validate func(path string) error
}

// Option configures a Converter
type Option func(*Converter)

// WithMarker sets the substring file names must contain
func WithMarker(marker string) Option {
	return func(c *Converter) { c.marker = marker }
}

// WithDPI sets the render resolution
func WithDPI(dpi float64) Option {
	return func(c *Converter) {
		if dpi > 0 {
			c.dpi = dpi
		}
	}
}

// WithWorkers converts up to n files at once
func WithWorkers(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithPages restricts conversion to a page selection such as "1-3,5"
func WithPages(pages string) Option {
	return func(c *Converter) { c.pages = pages }
}

// WithStrict validates each PDF with pdfcpu before rendering it
func WithStrict(strict bool) Option {
	return func(c *Converter) { c.strict = strict }
}

// WithOpener replaces the MuPDF document opener
func WithOpener(open Opener) Option {
	return func(c *Converter) { c.open = open }
}

// WithDebounce sets how long Watch waits after the last change to a file
func WithDebounce(d time.Duration) Option {
	return func(c *Converter) { c.debounce = d }
}

// New creates a Converter
func New(logger *logrus.Logger, opts ...Option) *Converter {
	c := &Converter{
		logger:   logger,
		marker:   DefaultMarker,
		dpi:      DefaultDPI,
		workers:  1,
		debounce: defaultDebounce,
		open:     OpenFitz,
		validate: ValidatePDF,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Matches reports whether a file name is selected for conversion
func (c *Converter) Matches(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf") && strings.Contains(name, c.marker)
}

// Discover lists the PDFs in dir whose names contain marker. It does not
// recurse into subdirectories.
func Discover(dir, marker string) ([]string, error) {
	c := &Converter{marker: marker}
	return c.discover(dir)
}

func (c *Converter) discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !c.Matches(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Run converts every matching PDF in inDir, writing images to outDir.
// Failures of individual files are logged and counted in the summary; only
// directory errors and cancellation are returned.
func (c *Converter) Run(ctx context.Context, inDir, outDir string) (_ Summary, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanNameConvertRun)
	defer func() { telemetry.EndSpan(span, err) }()

	files, err := c.discover(inDir)
	if err != nil {
		return Summary{}, err
	}
	if err := os.MkdirAll(outDir, defaultDirMode); err != nil {
		return Summary{}, fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}

	c.logger.WithFields(logrus.Fields{
		"input":   inDir,
		"output":  outDir,
		"files":   len(files),
		"workers": c.workers,
	}).Info("Starting PDF conversion")

	results := make([]FileResult, len(files))
	if c.workers <= 1 {
		for i, path := range files {
			if err := ctx.Err(); err != nil {
				return Summary{}, err
			}
			results[i] = c.ConvertFile(ctx, path, outDir)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.workers)
		for i, path := range files {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = c.ConvertFile(gctx, path, outDir)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Summary{}, err
		}
	}

	summary := Summary{Files: make([]FileResult, 0, len(results))}
	for _, r := range results {
		summary.add(r)
	}

	span.SetAttributes(
		attribute.Int(telemetry.AttrConvertPages, summary.Pages),
		attribute.Int(telemetry.AttrConvertFailed, summary.Failed),
	)
	c.logger.WithFields(logrus.Fields{
		"converted": summary.Converted,
		"failed":    summary.Failed,
		"pages":     summary.Pages,
	}).Info("Conversion process complete")

	return summary, nil
}

// ConvertFile renders one PDF. The error is reported in the result.
func (c *Converter) ConvertFile(ctx context.Context, path, outDir string) FileResult {
	_, span := telemetry.StartSpan(ctx, telemetry.SpanNameConvertFile, attribute.String(telemetry.AttrConvertFile, path))
	result := FileResult{Path: path}
	outputs, err := c.convertFile(path, outDir)
	span.SetAttributes(attribute.Int(telemetry.AttrConvertPages, len(outputs)))
	telemetry.EndSpan(span, err)
	result.Outputs = outputs
	result.Pages = len(outputs)
	if err != nil {
		result.Err = err
		result.Error = err.Error()
		c.logger.WithError(err).WithField("file", filepath.Base(path)).Error("Error processing PDF")
		return result
	}

	c.logger.WithFields(logrus.Fields{
		"file":   filepath.Base(path),
		"pages":  result.Pages,
		"output": outDir,
	}).Info("Converted PDF to images")
	return result
}

func (c *Converter) convertFile(path, outDir string) ([]string, error) {
	if c.strict {
		if err := c.validate(path); err != nil {
			return nil, err
		}
	}

	doc, err := c.open(path, c.dpi)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := doc.Close(); err != nil {
			c.logger.WithError(err).WithField("file", path).Warn("Failed to close PDF")
		}
	}()

	pages, err := ParsePageSelection(c.pages, doc.NumPage())
	if err != nil {
		return nil, fmt.Errorf("invalid page selection: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outputs := make([]string, 0, len(pages))
	for _, page := range pages {
		img, err := doc.Image(page - 1)
		if err != nil {
			return outputs, err
		}
		outPath := filepath.Join(outDir, fmt.Sprintf("%s_page%d.png", baseName, page))
		if err := writePNG(outPath, flatten(img)); err != nil {
			return outputs, err
		}
		outputs = append(outputs, outPath)
	}
	return outputs, nil
}

// flatten draws img over a white background, giving an opaque RGB raster
func flatten(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Over)
	return dst
}

func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(file, img); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
