package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfcpumodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/tgaillard/pluscan/internal/model"
)

// Hard ceiling on accumulated text, règlements never legitimately exceed it
const maxTextBytes = 10 << 20

// ExtractText turns a downloaded document into raw text. PDFs go through
// a pdfcpu structural validation then page-by-page plain-text extraction;
// HTML pages (some communes publish the règlement as a web page) are
// stripped of markup instead. Text shorter than minChars means the
// document has no usable text layer (scanned images, mostly) and yields a
// typed *model.TextExtractionError.
func ExtractText(doc *Document, minChars int) (string, error) {
	var text string
	var err error

	switch {
	case doc.IsHTML():
		text, err = htmlToText(doc.Bytes)
	default:
		text, err = pdfToText(doc.Bytes)
	}
	if err != nil {
		return "", &model.TextExtractionError{URL: doc.FinalURL, Err: err}
	}

	if len(strings.TrimSpace(text)) < minChars {
		return "", &model.TextExtractionError{
			URL: doc.FinalURL,
			Err: fmt.Errorf("extracted text too short (%d chars, need %d): likely a scanned document without a text layer", len(text), minChars),
		}
	}

	return text, nil
}

func pdfToText(data []byte) (string, error) {
	if err := validatePDF(data); err != nil {
		return "", fmt.Errorf("invalid PDF: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			// A single broken page should not sink the document
			continue
		}

		if builder.Len()+len(content) > maxTextBytes {
			break
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}

	if builder.Len() == 0 {
		return "", fmt.Errorf("no text content in any page")
	}
	return builder.String(), nil
}

// validatePDF runs pdfcpu's relaxed structural validation over the bytes
// before the text extractor touches them.
func validatePDF(data []byte) error {
	conf := pdfcpumodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfcpumodel.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return fmt.Errorf("read context: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if ctx.PageCount == 0 {
		return fmt.Errorf("document has no pages")
	}
	return nil
}
