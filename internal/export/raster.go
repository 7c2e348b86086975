package export

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"

	"proposals/internal/domain"
)

// Rasters writes one full-bleed A4 page per raster, in document order.
// Every page of the document must have exactly one raster.
func Rasters(w io.Writer, pages []domain.Page, rasters []Raster, meta Meta) error {
	if len(pages) == 0 {
		return ErrNoPages
	}
	if len(rasters) != len(pages) {
		return fmt.Errorf("%w: %d images for %d pages", ErrPageMismatch, len(rasters), len(pages))
	}

	pdf := newPDF(meta)
	for i, r := range rasters {
		if r.PageID != pages[i].ID {
			return fmt.Errorf("%w: image %d belongs to page %s, expected %s", ErrPageMismatch, i, r.PageID, pages[i].ID)
		}
		imageType, data, err := decodeDataURL(r.DataURL)
		if err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}

		name := "page-" + r.PageID
		opts := fpdf.ImageOptions{ImageType: imageType}
		pdf.AddPage()
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		pdf.ImageOptions(name, 0, 0, pageWidthMM, pageHeightMM, false, opts, 0, "")
		if pdf.Err() {
			return fmt.Errorf("page %d: %w: %v", i+1, ErrRasterize, pdf.Error())
		}
	}
	return pdf.Output(w)
}

func newPDF(meta Meta) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	if meta.Title != "" {
		pdf.SetTitle(meta.Title, true)
	}
	if meta.Author != "" {
		pdf.SetAuthor(meta.Author, true)
	}
	if meta.Subject != "" {
		pdf.SetSubject(meta.Subject, true)
	}
	pdf.SetCreator("proposals", true)
	return pdf
}
