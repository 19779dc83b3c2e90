package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrlabs/amrd/pkg/models"
	"github.com/amrlabs/amrd/pkg/testutils"
)

type stubParser struct {
	lastInput *models.AMRBatchInput
}

func (p *stubParser) Process(_ context.Context, input *models.AMRBatchInput) (*models.AMRBatchResponse, error) {
	p.lastInput = input
	graphs := make([]string, len(input.Sentences))
	for i := range graphs {
		graphs[i] = "(p / parse-01)"
	}
	return &models.AMRBatchResponse{AMRParse: graphs}, nil
}

type alignmentRejectingParser struct{}

func (p *alignmentRejectingParser) Process(_ context.Context, _ *models.AMRBatchInput) (*models.AMRBatchResponse, error) {
	return nil, models.NewAlignmentError("token span escapes sentence span")
}

func postParse(t *testing.T, parser models.BatchParser, body any) *httptest.ResponseRecorder {
	t.Helper()
	appState := &models.AppState{
		Parser: parser,
		Config: testutils.NewTestConfig(),
	}
	router := setupRouter(appState)

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/parse", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestPostParseRoute(t *testing.T) {
	parser := &stubParser{}
	input := testutils.GenerateBatchInput(3, 4)

	res := postParse(t, parser, input)
	require.Equal(t, http.StatusOK, res.Code)

	var response models.AMRBatchResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Len(t, response.AMRParse, 3)
	require.NotNil(t, parser.lastInput)
	assert.Len(t, parser.lastInput.Sentences, 3)
}

func TestPostParseRouteRejectsEmptyBatch(t *testing.T) {
	parser := &stubParser{}

	res := postParse(t, parser, &models.AMRBatchInput{})
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Nil(t, parser.lastInput)
}

func TestPostParseRouteRejectsMalformedJSON(t *testing.T) {
	appState := &models.AppState{
		Parser: &stubParser{},
		Config: testutils.NewTestConfig(),
	}
	router := setupRouter(appState)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/parse", bytes.NewReader([]byte("{not json")))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestPostParseRouteAlignmentErrorIs400(t *testing.T) {
	input := testutils.GenerateBatchInput(1, 3)

	res := postParse(t, &alignmentRejectingParser{}, input)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "alignment error")
}
