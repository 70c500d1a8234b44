// Package export turns successful extraction results into files that can be
// sent back to the chat as documents.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/pretty"
	"github.com/xuri/excelize/v2"

	"github.com/tinyland-inc/dokbot/pkg/extractor"
	"github.com/tinyland-inc/dokbot/pkg/format"
	"github.com/tinyland-inc/dokbot/pkg/logger"
	"github.com/tinyland-inc/dokbot/pkg/workdir"
)

type Format string

const (
	FormatTXT  Format = "txt"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported export formats.
var Formats = []Format{FormatTXT, FormatJSON, FormatXLSX}

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrNoParsedData      = errors.New("no parsed data to export")
)

const (
	fileTimestamp   = "20060102_150405"
	headerTimestamp = "02-01-2006 15:04:05"
	sheetName       = "Hasil"
)

// ParseFormat accepts a format token case-insensitively.
func ParseFormat(s string) (Format, bool) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, true
		}
	}
	return "", false
}

// Artifact is a file written by Build.
type Artifact struct {
	Path         string
	Format       Format
	OwnerName    string
	DocumentType extractor.DocumentType
	Timestamp    time.Time
}

// Caption is the text sent alongside the document.
func (a *Artifact) Caption() string {
	return fmt.Sprintf("Hasil ekstraksi %s - %s (%s)", a.DocumentType.Label(), a.OwnerName, strings.ToUpper(string(a.Format)))
}

// Confirmation is the chat message sent after the document.
func (a *Artifact) Confirmation() string {
	return fmt.Sprintf("✅ File %s hasil ekstraksi %s untuk %s telah dikirim.", strings.ToUpper(string(a.Format)), a.DocumentType.Label(), a.OwnerName)
}

// Builder writes export files into the working directory.
type Builder struct {
	dir *workdir.Dir
	now func() time.Time
}

func NewBuilder(dir *workdir.Dir) *Builder {
	return &Builder{dir: dir, now: time.Now}
}

// OwnerName returns the document owner's name, or Untitled when the result
// did not succeed or carries no name.
func OwnerName(res *extractor.Result, docType extractor.DocumentType) string {
	parsed := res.Parsed()
	if parsed.Status() != extractor.ParsedStatusSuccess {
		return Untitled
	}
	name := strings.TrimSpace(parsed.Get(docType.OwnerPath()))
	if name == "" {
		return Untitled
	}
	return name
}

// Build writes res as a file of the given format.
func (b *Builder) Build(res *extractor.Result, docType extractor.DocumentType, f Format) (*Artifact, error) {
	nf, ok := ParseFormat(string(f))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	f = nf
	if !res.Succeeded() {
		return nil, fmt.Errorf("%w: extraction did not succeed", ErrNoParsedData)
	}
	parsed := res.Parsed()
	if !parsed.Exists() {
		return nil, fmt.Errorf("%w: response has no parsed document", ErrNoParsedData)
	}

	ts := b.now()
	owner := OwnerName(res, docType)
	name := fmt.Sprintf("%s_%s_%s.%s", docType, SanitizeName(owner), ts.Format(fileTimestamp), f)

	var (
		data []byte
		err  error
	)
	switch f {
	case FormatJSON:
		data = pretty.PrettyOptions([]byte(parsed.Raw()), &pretty.Options{Indent: "  ", Width: 80})
	case FormatTXT:
		data = []byte(textExport(docType, owner, ts, format.Format(docType, res)))
	case FormatXLSX:
		data, err = sheetExport(parsed)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s export: %w", f, err)
	}

	path, err := b.dir.WriteFile(name, data)
	if err != nil {
		return nil, fmt.Errorf("write %s export: %w", f, err)
	}

	logger.InfoCF("export", "Export file created", map[string]any{
		"document_type": string(docType),
		"format":        string(f),
		"path":          path,
		"bytes":         len(data),
	})
	return &Artifact{
		Path:         path,
		Format:       f,
		OwnerName:    owner,
		DocumentType: docType,
		Timestamp:    ts,
	}, nil
}

func textExport(docType extractor.DocumentType, owner string, ts time.Time, rendered string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dokumen: %s\n", docType.Label())
	fmt.Fprintf(&b, "Nama: %s\n", owner)
	fmt.Fprintf(&b, "Diekstrak pada: %s\n", ts.Format(headerTimestamp))
	b.WriteString(strings.Repeat("=", 40) + "\n\n")
	b.WriteString(StripMarkup(rendered))
	return b.String()
}

func sheetExport(parsed extractor.Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	for i, h := range []string{"Field", "Value"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	for i, e := range parsed.Flatten() {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, e.Path)
		cell, _ = excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(sheetName, cell, e.Value)
	}
	_ = f.SetColWidth(sheetName, "A", "A", 32)
	_ = f.SetColWidth(sheetName, "B", "B", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
