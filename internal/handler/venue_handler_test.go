package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/eventdesk/internal/dto"
	"github.com/campuskit/eventdesk/internal/models"
	appErrors "github.com/campuskit/eventdesk/pkg/errors"
	"github.com/campuskit/eventdesk/pkg/response"
)

type venueServiceMock struct {
	resp    *dto.VenueCheckResponse
	err     error
	lastReq dto.VenueCheckRequest
}

func (m *venueServiceMock) CheckAvailability(ctx context.Context, req dto.VenueCheckRequest) (*dto.VenueCheckResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

func TestVenueHandlerCheckAvailability(t *testing.T) {
	mockSvc := &venueServiceMock{resp: &dto.VenueCheckResponse{
		Available: false,
		Conflicts: []models.VenueConflict{{EventID: 3, EventName: "Cultural Night"}},
	}}
	handler := NewVenueHandler(mockSvc)

	payload := `{"venue":"Library","date_from":"2024-03-01","date_to":"2024-03-05"}`
	c, w := testContext(t, http.MethodPost, "/venues/check-availability", payload, mentorTestClaims())

	handler.CheckAvailability(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Library", mockSvc.lastReq.Venue)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	body, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var result dto.VenueCheckResponse
	require.NoError(t, json.Unmarshal(body, &result))
	assert.False(t, result.Available)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "Cultural Night", result.Conflicts[0].EventName)
}

func TestVenueHandlerCheckAvailabilityInvalidBody(t *testing.T) {
	handler := NewVenueHandler(&venueServiceMock{})
	c, w := testContext(t, http.MethodPost, "/venues/check-availability", `{"venue":`, mentorTestClaims())

	handler.CheckAvailability(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVenueHandlerCheckAvailabilityServiceError(t *testing.T) {
	handler := NewVenueHandler(&venueServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "date_from must not be after date_to")})
	c, w := testContext(t, http.MethodPost, "/venues/check-availability", `{"venue":"Library","date_from":"2024-03-10","date_to":"2024-03-05"}`, mentorTestClaims())

	handler.CheckAvailability(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
