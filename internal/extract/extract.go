package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	pdf "github.com/ledongthuc/pdf"

	"screenmatch/internal/errors"
	"screenmatch/internal/utils"
)

// Format identifies how a document's bytes are decoded into text.
type Format string

const (
	FormatPdf         Format = "pdf"
	FormatDocx        Format = "docx"
	FormatPlainText   Format = "plaintext"
	FormatUnsupported Format = "unsupported"
)

// DetectFormat maps a filename extension to a Format. The extension is the
// only signal used; the decision is made once, before any bytes are decoded.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPdf
	case ".docx":
		return FormatDocx
	case ".txt", ".text", ".md":
		return FormatPlainText
	default:
		return FormatUnsupported
	}
}

// Extractor converts uploaded document bytes into plain text.
type Extractor struct {
	maxFileSize int64
}

// New creates an Extractor. maxFileSize <= 0 disables the size check.
func New(maxFileSize int64) *Extractor {
	return &Extractor{maxFileSize: maxFileSize}
}

// Extract decodes data according to the filename's extension and returns the
// document's text. All failures are typed: unsupported extensions, undecodable
// bytes, and documents with no extractable text each get their own code so
// callers can report them without aborting sibling work.
func (e *Extractor) Extract(data []byte, filename string) (string, error) {
	if e.maxFileSize > 0 && int64(len(data)) > e.maxFileSize {
		return "", errors.NewValidationError(
			errors.ErrCodeInvalidRequest,
			fmt.Sprintf("file exceeds maximum size of %s", utils.FormatFileSize(e.maxFileSize)),
			nil,
		).WithContext("filename", filename).WithContext("size", len(data))
	}

	var (
		text string
		err  error
	)
	switch format := DetectFormat(filename); format {
	case FormatPdf:
		text, err = extractPDF(data)
	case FormatDocx:
		text, err = extractDocx(data)
	case FormatPlainText:
		text, err = extractPlainText(data)
	default:
		return "", errors.NewExtractionError(
			errors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported file format %q", filepath.Ext(filename)),
			nil,
		).WithContext("filename", filename)
	}
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			return "", appErr.WithContext("filename", filename)
		}
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", errors.NewExtractionError(
			errors.ErrCodeEmptyDocument,
			"document contains no extractable text",
			nil,
		).WithContext("filename", filename)
	}
	return text, nil
}

func extractPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.NewExtractionError(
			errors.ErrCodeEncodingError,
			"file is not valid UTF-8 text",
			nil,
		)
	}
	return string(data), nil
}

// extractPDF extracts text page by page. A page that fails to decode is
// skipped; the document only fails when no page yields any text.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewExtractionError(
			errors.ErrCodeEncodingError,
			"failed to open PDF document",
			err,
		)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		text, pageErr := extractPDFPage(reader, i)
		if pageErr != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return "", errors.NewExtractionError(
			errors.ErrCodeEmptyDocument,
			"no text could be extracted from any PDF page",
			nil,
		)
	}
	return strings.Join(pages, "\n\n"), nil
}

// extractPDFPage isolates the library call so a malformed page cannot take
// down the whole document.
func extractPDFPage(reader *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic extracting page %d: %v", pageNum, r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d is null", pageNum)
	}
	return page.GetPlainText(nil)
}

// extractDocx opens the file as a ZIP package and decodes the main document
// part. The raw package bytes are never handed to the text path.
func extractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewExtractionError(
			errors.ErrCodeEncodingError,
			"file is not a valid DOCX package",
			err,
		)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, openErr := f.Open()
			if openErr != nil {
				return "", errors.NewExtractionError(
					errors.ErrCodeEncodingError,
					"failed to open word/document.xml",
					openErr,
				)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", errors.NewExtractionError(
					errors.ErrCodeEncodingError,
					"failed to read word/document.xml",
					err,
				)
			}
			break
		}
	}
	if len(docXML) == 0 {
		return "", errors.NewExtractionError(
			errors.ErrCodeEncodingError,
			"DOCX package has no word/document.xml",
			nil,
		)
	}
	return docxTextFromXML(docXML)
}

// docxTextFromXML walks the WordprocessingML token stream: text runs are
// collected, paragraphs end with a newline, tabs and breaks map to their
// whitespace equivalents.
func docxTextFromXML(docXML []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(docXML))

	var sb strings.Builder
	var inText bool
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.NewExtractionError(
				errors.ErrCodeEncodingError,
				"malformed XML in DOCX document",
				err,
			)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
