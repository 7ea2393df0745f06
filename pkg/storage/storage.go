package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dtnitsch/contact-scout/models"
)

// DateLayout is how record timestamps appear in the CSV.
const DateLayout = "2006-01-02 15:04"

// Header is the CSV column order.
var Header = []string{"date", "domain", "page", "emails", "form_found_page"}

type Storage struct{}

// SaveFile writes content to filePath, creating parent directories and truncating
// any existing file.
func (s *Storage) SaveFile(filePath string, content []byte) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}
	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

// CSVSink writes records to a CSV file, replacing it on every call.
type CSVSink struct {
	Path    string
	Storage *Storage
}

func NewCSVSink(path string) *CSVSink {
	if path == "" {
		path = models.DefaultOutputPath
	}
	return &CSVSink{Path: path, Storage: &Storage{}}
}

func (c *CSVSink) Write(records []models.ContactRecord) error {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, records); err != nil {
		return err
	}
	s := c.Storage
	if s == nil {
		s = &Storage{}
	}
	return s.SaveFile(c.Path, buf.Bytes())
}

// EncodeCSV writes the header and one row per record.
func EncodeCSV(w io.Writer, records []models.ContactRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range records {
		form := ""
		if r.FormFoundPage {
			form = "True"
		}
		row := []string{r.Date.Format(DateLayout), r.Domain, r.Page, r.Email, form}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
