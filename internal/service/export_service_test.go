package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campuskit/eventdesk/internal/models"
	appErrors "github.com/campuskit/eventdesk/pkg/errors"
)

type exportListerStub struct {
	events []models.EventDetail
	filter models.EventFilter
}

func (s *exportListerStub) List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, error) {
	s.filter = filter
	return s.events, nil
}

type archiveStub struct {
	saved map[string][]byte
	fail  bool
}

func (s *archiveStub) Save(filename string, data []byte) (string, error) {
	if s.fail {
		return "", appErrors.ErrInternal
	}
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	s.saved[filename] = data
	return "/archive/" + filename, nil
}

func exportDetail() models.EventDetail {
	e := models.EventDetail{SubmittedBy: "amira", CommitteeName: "Robotics Club"}
	e.ID = 7
	e.EventName = "Tech Fair"
	e.Venue = "Library"
	e.DateFrom = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	e.DateTo = time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	e.TimeSlot = "09:00-12:00"
	e.MentorStatus = models.DecisionApproved
	e.HandlerStatus = models.DecisionPending
	e.Status = models.EventStatusPending
	return e
}

func TestExportServiceRendersCSV(t *testing.T) {
	lister := &exportListerStub{events: []models.EventDetail{exportDetail()}}
	svc := NewExportService(lister, nil, nil)

	result, err := svc.ExportEvents(context.Background(), ExportFormatCSV, models.EventFilter{})
	require.NoError(t, err)
	require.Equal(t, "text/csv", result.ContentType)
	require.Equal(t, "events.csv", result.Filename)
	require.Zero(t, lister.filter.Limit)

	records, err := csv.NewReader(bytes.NewReader(result.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, exportHeaders, records[0])
	require.Equal(t, "Tech Fair", records[1][1])
	require.Equal(t, "2024-03-10", records[1][5])
	require.Equal(t, string(models.DecisionApproved), records[1][8])
}

func TestExportServiceRendersPDF(t *testing.T) {
	lister := &exportListerStub{events: []models.EventDetail{exportDetail()}}
	svc := NewExportService(lister, nil, nil)

	result, err := svc.ExportEvents(context.Background(), ExportFormatPDF, models.EventFilter{})
	require.NoError(t, err)
	require.Equal(t, "application/pdf", result.ContentType)
	require.Equal(t, "events.pdf", result.Filename)
	require.True(t, bytes.HasPrefix(result.Data, []byte("%PDF")))
}

func TestExportServiceArchivesCopy(t *testing.T) {
	lister := &exportListerStub{events: []models.EventDetail{exportDetail()}}
	archive := &archiveStub{}
	svc := NewExportService(lister, archive, nil)

	result, err := svc.ExportEvents(context.Background(), ExportFormatCSV, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, archive.saved, 1)
	for name, data := range archive.saved {
		require.Contains(t, name, "events.csv")
		require.Equal(t, result.Data, data)
	}
}

func TestExportServiceArchiveFailureDoesNotBlockDownload(t *testing.T) {
	lister := &exportListerStub{events: []models.EventDetail{exportDetail()}}
	svc := NewExportService(lister, &archiveStub{fail: true}, nil)

	result, err := svc.ExportEvents(context.Background(), ExportFormatCSV, models.EventFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, result.Data)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(&exportListerStub{}, nil, nil)

	_, err := svc.ExportEvents(context.Background(), ExportFormat("xml"), models.EventFilter{})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestParseExportFormat(t *testing.T) {
	format, err := ParseExportFormat(" PDF ")
	require.NoError(t, err)
	require.Equal(t, ExportFormatPDF, format)

	_, err = ParseExportFormat("doc")
	require.Error(t, err)
}
