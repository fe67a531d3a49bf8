package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mention-monitor/mention-bot/internal/models"
	"github.com/mention-monitor/mention-bot/internal/storage"
)

const (
	fileTimeLayout = "20060102_150405"
	exportPrefix   = "mentions_"
)

// CSVColumns is the fixed column set of the CSV export
var CSVColumns = []string{
	"platform", "id", "author", "text", "url", "timestamp",
	"engagement_score", "sentiment_label", "sentiment_score",
}

// jsonDocument is the layout of the JSON export: report metadata and
// summary at the top level, followed by every mention of the run
type jsonDocument struct {
	*models.RunReport
	Mentions []models.Mention `json:"mentions"`
}

// Exporter writes run snapshots to a storage backend
type Exporter struct {
	store storage.StorageInterface
}

// NewExporter creates an exporter writing to store
func NewExporter(store storage.StorageInterface) *Exporter {
	return &Exporter{store: store}
}

// FileNames returns the JSON and CSV file names for a run started at t
func FileNames(t time.Time) (jsonName, csvName string) {
	stamp := t.Format(fileTimeLayout)
	return fmt.Sprintf("%s%s.json", exportPrefix, stamp), fmt.Sprintf("%s%s.csv", exportPrefix, stamp)
}

// IsExportName reports whether name is a JSON or CSV export file name
func IsExportName(name string) bool {
	if !strings.HasPrefix(name, exportPrefix) || strings.ContainsAny(name, `/\`) {
		return false
	}
	ext := path.Ext(name)
	return ext == ".json" || ext == ".csv"
}

// ExportJSON writes the report and all mention records as one JSON document
func (e *Exporter) ExportJSON(report *models.RunReport, mentions []models.Mention, name string) error {
	data, err := EncodeJSON(report, mentions)
	if err != nil {
		return &models.ExportError{Path: name, Err: err}
	}

	if err := e.store.Store(name, data); err != nil {
		return &models.ExportError{Path: e.store.Location(name), Err: err}
	}

	return nil
}

// ExportCSV writes one row per mention
func (e *Exporter) ExportCSV(mentions []models.Mention, name string) error {
	data, err := EncodeCSV(mentions)
	if err != nil {
		return &models.ExportError{Path: name, Err: err}
	}

	if err := e.store.Store(name, data); err != nil {
		return &models.ExportError{Path: e.store.Location(name), Err: err}
	}

	return nil
}

// Exports lists the export files held by the store, oldest first
func (e *Exporter) Exports() ([]string, error) {
	names, err := e.store.List(exportPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}

	exports := make([]string, 0, len(names))
	for _, name := range names {
		if IsExportName(name) {
			exports = append(exports, name)
		}
	}
	sort.Strings(exports)

	return exports, nil
}

// Read returns the content of a previous export
func (e *Exporter) Read(name string) ([]byte, error) {
	if !IsExportName(name) {
		return nil, fmt.Errorf("%q is not an export file", name)
	}
	return e.store.Retrieve(name)
}

// Prune deletes the exports of all but the newest keep runs and returns
// the names it removed. Both files of a run share its timestamp.
func (e *Exporter) Prune(keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}

	names, err := e.Exports()
	if err != nil {
		return nil, err
	}

	var stamps []string
	for _, name := range names {
		stamp := strings.TrimSuffix(name, path.Ext(name))
		if len(stamps) == 0 || stamps[len(stamps)-1] != stamp {
			stamps = append(stamps, stamp)
		}
	}
	if len(stamps) <= keep {
		return nil, nil
	}

	expired := make(map[string]bool)
	for _, stamp := range stamps[:len(stamps)-keep] {
		expired[stamp] = true
	}

	var removed []string
	var errs []error
	for _, name := range names {
		if !expired[strings.TrimSuffix(name, path.Ext(name))] {
			continue
		}
		if err := e.store.Delete(name); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, name)
	}

	return removed, errors.Join(errs...)
}

// Location reports where an exported file was written
func (e *Exporter) Location(name string) string {
	return e.store.Location(name)
}

// EncodeJSON renders the JSON export document
func EncodeJSON(report *models.RunReport, mentions []models.Mention) ([]byte, error) {
	if mentions == nil {
		mentions = []models.Mention{}
	}

	data, err := json.MarshalIndent(jsonDocument{RunReport: report, Mentions: mentions}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	return data, nil
}

// EncodeCSV renders the CSV export with a header row
func EncodeCSV(mentions []models.Mention) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(CSVColumns); err != nil {
		return nil, err
	}

	for _, m := range mentions {
		record := []string{
			string(m.Platform),
			m.ID,
			m.Author,
			m.Text,
			m.URL,
			m.Timestamp.UTC().Format(time.RFC3339),
			strconv.Itoa(m.EngagementScore),
			string(m.SentimentLabel),
			strconv.FormatFloat(m.SentimentScore, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}

	return buf.Bytes(), nil
}
