package export

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoPages      = errors.New("no pages to export")
	ErrPageMismatch = errors.New("page images do not match the document")
	ErrRasterize    = errors.New("page image could not be rendered")
)

// A4 in millimetres.
const (
	pageWidthMM  = 210.0
	pageHeightMM = 297.0
	mmPerPx      = 25.4 / 96
)

// Meta is written into the PDF info dictionary.
type Meta struct {
	Title   string
	Author  string
	Subject string
}

// Raster is the rendered image of one page, as produced by the frontend.
type Raster struct {
	PageID  string `json:"pageId"`
	DataURL string `json:"dataUrl"`
}

// decodeDataURL splits a base64 data URL into the fpdf image type and bytes.
func decodeDataURL(u string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: not a data URL", ErrRasterize)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", nil, fmt.Errorf("%w: data URL is not base64", ErrRasterize)
	}

	var imageType string
	switch strings.TrimSuffix(header, ";base64") {
	case "image/png":
		imageType = "PNG"
	case "image/jpeg", "image/jpg":
		imageType = "JPG"
	default:
		return "", nil, fmt.Errorf("%w: unsupported image type %q", ErrRasterize, header)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%w: empty image", ErrRasterize)
	}
	return imageType, data, nil
}
