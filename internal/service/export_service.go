package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campuskit/eventdesk/internal/models"
	appErrors "github.com/campuskit/eventdesk/pkg/errors"
	"github.com/campuskit/eventdesk/pkg/export"
)

// ExportFormat names a supported export encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

var exportHeaders = []string{
	"ID", "Event", "Committee", "Submitted By", "Venue",
	"From", "To", "Time Slot", "Mentor", "Handler", "Status",
}

type exportEventLister interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, error)
}

type exportArchive interface {
	Save(filename string, data []byte) (string, error)
}

// ExportService renders the event register as CSV or PDF for administrators.
// With an archive configured, every rendered export is also kept on disk;
// archive failures are logged and never fail the download.
type ExportService struct {
	events  exportEventLister
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	archive exportArchive
	logger  *zap.Logger
}

// NewExportService constructs the service. A nil archive disables archiving.
func NewExportService(events exportEventLister, archive exportArchive, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		events:  events,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		archive: archive,
		logger:  logger,
	}
}

// ExportResult bundles the rendered bytes with response metadata.
type ExportResult struct {
	ContentType string
	Filename    string
	Data        []byte
}

// ExportEvents renders every event matching the filter in the requested
// format.
func (s *ExportService) ExportEvents(ctx context.Context, format ExportFormat, filter models.EventFilter) (*ExportResult, error) {
	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events for export")
	}
	dataset := buildEventDataset(events)

	var result *ExportResult
	switch format {
	case ExportFormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		result = &ExportResult{ContentType: "text/csv", Filename: "events.csv", Data: data}
	case ExportFormatPDF:
		data, err := s.pdf.Render(dataset, "Event Requests")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		result = &ExportResult{ContentType: "application/pdf", Filename: "events.pdf", Data: data}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	if s.archive != nil {
		name := time.Now().UTC().Format("20060102T150405") + "-" + result.Filename
		if _, err := s.archive.Save(name, result.Data); err != nil {
			s.logger.Warn("failed to archive export", zap.String("filename", name), zap.Error(err))
		}
	}
	return result, nil
}

func buildEventDataset(events []models.EventDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, map[string]string{
			"ID":           strconv.FormatInt(e.ID, 10),
			"Event":        e.EventName,
			"Committee":    e.CommitteeName,
			"Submitted By": e.SubmittedBy,
			"Venue":        e.Venue,
			"From":         e.DateFrom.Format("2006-01-02"),
			"To":           e.DateTo.Format("2006-01-02"),
			"Time Slot":    e.TimeSlot,
			"Mentor":       string(e.MentorStatus),
			"Handler":      string(e.HandlerStatus),
			"Status":       string(e.Status),
		})
	}
	return export.Dataset{Headers: append([]string(nil), exportHeaders...), Rows: rows}
}

// ParseExportFormat normalises a query value into a known format.
func ParseExportFormat(value string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(value))) {
	case ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
}
