package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agridocs/internal/domain"
	"agridocs/internal/handler"
	"agridocs/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeExtractionService struct {
	extractResp  *service.ExtractResponse
	extractErr   error
	latest       *domain.ExtractionRecord
	latestErr    error
	history      []domain.ExtractionRecord
	historyTotal int

	gotRequest *service.ExtractRequest
	gotOffset  int
	gotLimit   int
}

func (f *fakeExtractionService) Extract(ctx context.Context, req *service.ExtractRequest) (*service.ExtractResponse, error) {
	f.gotRequest = req
	return f.extractResp, f.extractErr
}

func (f *fakeExtractionService) GetLatest(ctx context.Context, documentID string) (*domain.ExtractionRecord, error) {
	return f.latest, f.latestErr
}

func (f *fakeExtractionService) History(ctx context.Context, documentID string, offset, limit int) ([]domain.ExtractionRecord, int, error) {
	f.gotOffset = offset
	f.gotLimit = limit
	return f.history, f.historyTotal, nil
}

func postJSON(t *testing.T, h gin.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/extractions", bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	h(c)
	return w
}

func TestExtractionHandler_Extract_Success(t *testing.T) {
	svc := &fakeExtractionService{
		extractResp: &service.ExtractResponse{Success: true, DocumentID: "doc-1"},
	}
	h := handler.NewExtractionHandler(svc)

	w := postJSON(t, h.Extract, map[string]string{
		"documentId": "doc-1",
		"fileUrl":    "https://files.example.com/a.pdf",
		"fileName":   "a.pdf",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	require.NotNil(t, svc.gotRequest)
	assert.Equal(t, "doc-1", svc.gotRequest.DocumentID)
	assert.Equal(t, "https://files.example.com/a.pdf", svc.gotRequest.FileURL)
}

func TestExtractionHandler_Extract_MissingDocumentID(t *testing.T) {
	svc := &fakeExtractionService{extractErr: domain.ErrMissingDocumentID}
	h := handler.NewExtractionHandler(svc)

	w := postJSON(t, h.Extract, map[string]string{"fileUrl": "https://files.example.com/a.pdf"})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_DOCUMENT_ID", resp.Error.Code)
}

func TestExtractionHandler_Extract_MalformedBody(t *testing.T) {
	h := handler.NewExtractionHandler(&fakeExtractionService{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/extractions", bytes.NewReader([]byte("{not json")))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Extract(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestExtractionHandler_Extract_DisallowedURL(t *testing.T) {
	svc := &fakeExtractionService{extractErr: domain.ErrDisallowedURL}
	h := handler.NewExtractionHandler(svc)

	w := postJSON(t, h.Extract, map[string]string{
		"documentId": "doc-1",
		"fileUrl":    "https://evil.example.net/a.pdf",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DISALLOWED_URL", resp.Error.Code)
}

func TestExtractionHandler_GetLatest_NotFound(t *testing.T) {
	svc := &fakeExtractionService{latestErr: domain.ErrRecordNotFound}
	h := handler.NewExtractionHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/extractions/doc-miss", nil)
	c.Params = gin.Params{{Key: "documentId", Value: "doc-miss"}}
	h.GetLatest(c)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RECORD_NOT_FOUND", resp.Error.Code)
}

func TestExtractionHandler_History_PaginationClamping(t *testing.T) {
	svc := &fakeExtractionService{history: []domain.ExtractionRecord{}, historyTotal: 0}
	h := handler.NewExtractionHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/extractions/doc-1/history?offset=-5&limit=500", nil)
	c.Params = gin.Params{{Key: "documentId", Value: "doc-1"}}
	h.History(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, svc.gotOffset)
	assert.Equal(t, 20, svc.gotLimit)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 20, resp.Meta.Limit)
}

func TestExtractionHandler_History_Meta(t *testing.T) {
	svc := &fakeExtractionService{
		history:      []domain.ExtractionRecord{{DocumentID: "doc-1"}, {DocumentID: "doc-1"}},
		historyTotal: 7,
	}
	h := handler.NewExtractionHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/extractions/doc-1/history?offset=2&limit=2", nil)
	c.Params = gin.Params{{Key: "documentId", Value: "doc-1"}}
	h.History(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 7, resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Offset)
	assert.Equal(t, 2, resp.Meta.Limit)
}
