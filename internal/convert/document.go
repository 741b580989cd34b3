package convert

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Document is an open PDF whose pages can be rasterised
type Document interface {
	NumPage() int
	// Image renders the zero-based page
	Image(page int) (image.Image, error)
	Close() error
}

// Opener opens the PDF at path for rendering at dpi
type Opener func(path string, dpi float64) (Document, error)

type fitzDocument struct {
	doc *fitz.Document
	dpi float64
}

// OpenFitz opens a document with MuPDF
func OpenFitz(path string, dpi float64) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &fitzDocument{doc: doc, dpi: dpi}, nil
}

func (d *fitzDocument) NumPage() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) Image(page int) (image.Image, error) {
	img, err := d.doc.ImageDPI(page, d.dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page+1, err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}

// ValidatePDF checks the file against the PDF specification with pdfcpu
func ValidatePDF(path string) error {
	conf := model.NewDefaultConfiguration()
	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("PDF validation failed: %w", err)
	}
	return nil
}
