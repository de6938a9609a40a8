// Package roster turns uploaded or hosted spreadsheets into a list of names.
package roster

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/xuri/excelize/v2"
)

// HeaderLabel is the optional first cell that names the column
const HeaderLabel = "name"

var (
	// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX
	ErrUnsupportedFormat = errors.New("unsupported roster format")
	// ErrNoSheets is returned for workbooks without any worksheet
	ErrNoSheets = errors.New("workbook has no sheets")
	// ErrMissingURL is returned when Fetch is called without a location
	ErrMissingURL = errors.New("roster url is required")
	// ErrSchemeNotAllowed is returned for URLs outside the fetcher's schemes
	ErrSchemeNotAllowed = errors.New("roster url scheme is not allowed")
)

// WebSchemes limits a fetcher to remote http(s) rosters
var WebSchemes = []string{"http", "https"}

// zipMagic starts every xlsx workbook
var zipMagic = []byte("PK\x03\x04")

// StripHeader drops a leading "name" header cell if present
func StripHeader(names []string) []string {
	if len(names) > 0 && strings.EqualFold(strings.TrimSpace(names[0]), HeaderLabel) {
		return names[1:]
	}
	return names
}

// Read parses a roster, choosing the parser from the file extension.
// Unknown or missing extensions are read as CSV.
func Read(filename string, r io.Reader) ([]string, error) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	case ".xls":
		return nil, eris.Wrapf(ErrUnsupportedFormat, "%s: legacy .xls workbooks must be saved as .xlsx", filename)
	default:
		return ReadCSV(r)
	}
}

// ReadCSV returns the first column of every non-empty row
func ReadCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var names []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "failed to read roster csv")
		}
		names = appendCell(names, record)
	}
	return StripHeader(names), nil
}

// ReadXLSX returns the first column of the first sheet
func ReadXLSX(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "failed to open roster workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read sheet %q", sheets[0])
	}

	var names []string
	for _, row := range rows {
		names = appendCell(names, row)
	}
	return StripHeader(names), nil
}

func appendCell(names []string, row []string) []string {
	if len(row) == 0 {
		return names
	}
	cell := strings.TrimSpace(row[0])
	if cell == "" {
		return names
	}
	return append(names, cell)
}

// DownloadError reports a roster that could not be retrieved
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return "failed to download roster from " + e.URL + ": " + e.Err.Error()
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Fetcher downloads rosters through afs. Schemes lists the URL schemes it
// accepts; an empty list accepts every scheme afs knows, local files included.
type Fetcher struct {
	FS      afs.Service
	Timeout time.Duration
	Schemes []string
}

// NewFetcher creates a fetcher backed by the default afs service
func NewFetcher(timeout time.Duration, schemes ...string) *Fetcher {
	return &Fetcher{FS: afs.New(), Timeout: timeout, Schemes: schemes}
}

// Allowed reports whether URL may be fetched
func (f *Fetcher) Allowed(URL string) bool {
	if len(f.Schemes) == 0 {
		return true
	}
	// nested locations such as file:///a.zip/zip://localhost/b.csv
	if url.SchemeExtensionURL(URL) != "" {
		return false
	}
	scheme := strings.ToLower(url.Scheme(URL, file.Scheme))
	for _, allowed := range f.Schemes {
		if strings.EqualFold(allowed, scheme) {
			return true
		}
	}
	return false
}

// Fetch downloads the roster at URL and parses it
func (f *Fetcher) Fetch(ctx context.Context, URL string) ([]string, error) {
	URL = strings.TrimSpace(URL)
	if URL == "" {
		return nil, ErrMissingURL
	}
	if !f.Allowed(URL) {
		return nil, eris.Wrapf(ErrSchemeNotAllowed, "%s", URL)
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	data, err := f.FS.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, &DownloadError{URL: URL, Err: err}
	}

	name := URL
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	// export links such as .../export?format=xlsx carry no extension
	if bytes.HasPrefix(data, zipMagic) {
		return ReadXLSX(bytes.NewReader(data))
	}
	return Read(name, bytes.NewReader(data))
}
