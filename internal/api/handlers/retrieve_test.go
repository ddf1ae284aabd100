package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/botwise/internal/domain"
	"github.com/cloo-solutions/botwise/internal/retrieval"
)

type MockRetrievalRunner struct {
	mock.Mock
}

func (m *MockRetrievalRunner) Retrieve(ctx context.Context, orgID, botID, query string) (*retrieval.Result, error) {
	args := m.Called(ctx, orgID, botID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retrieval.Result), args.Error(1)
}

func TestRetrieveHandler_Found(t *testing.T) {
	mockSvc := new(MockRetrievalRunner)
	handler := NewRetrieveHandler(mockSvc)

	result := &retrieval.Result{
		ChunkID:    "chunk-1",
		ResourceID: "res-1",
		Content:    "Reset your password from the account page.",
		Similarity: 0.91,
		Message:    retrieval.MessageFound,
	}
	mockSvc.On("Retrieve", mock.Anything, "org-123", "bot-123", "how do I reset my password").Return(result, nil)

	body := `{"bot_id":"bot-123","query":"how do I reset my password"}`
	req := authedRequest(http.MethodPost, "/retrieve", body, "org-123")
	w := httptest.NewRecorder()

	handler.Retrieve(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["found"])
	assert.Equal(t, "Reset your password from the account page.", data["content"])
	assert.InDelta(t, 0.91, data["similarity"].(float64), 1e-9)
	mockSvc.AssertExpectations(t)
}

func TestRetrieveHandler_BelowThreshold(t *testing.T) {
	mockSvc := new(MockRetrievalRunner)
	handler := NewRetrieveHandler(mockSvc)

	result := &retrieval.Result{
		ChunkID:    "chunk-1",
		ResourceID: "res-1",
		Content:    "closest we have",
		Similarity: 0.42,
		Message:    retrieval.MessageBelowThreshold,
	}
	mockSvc.On("Retrieve", mock.Anything, "org-123", "bot-123", "unrelated question").Return(result, nil)

	body := `{"bot_id":"bot-123","query":"unrelated question"}`
	req := authedRequest(http.MethodPost, "/retrieve", body, "org-123")
	w := httptest.NewRecorder()

	handler.Retrieve(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["found"])
	assert.Equal(t, retrieval.MessageBelowThreshold, data["message"])
	mockSvc.AssertExpectations(t)
}

func TestRetrieveHandler_PipelineFailureIsNotTransportError(t *testing.T) {
	mockSvc := new(MockRetrievalRunner)
	handler := NewRetrieveHandler(mockSvc)

	retErr := &retrieval.Error{Reason: retrieval.ReasonNoCandidates}
	mockSvc.On("Retrieve", mock.Anything, "org-123", "bot-123", "anything").Return(nil, retErr)

	body := `{"bot_id":"bot-123","query":"anything"}`
	req := authedRequest(http.MethodPost, "/retrieve", body, "org-123")
	w := httptest.NewRecorder()

	handler.Retrieve(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, false, data["found"])
	assert.Equal(t, "no-candidates", data["reason"])
	mockSvc.AssertExpectations(t)
}

func TestRetrieveHandler_EmbeddingFailure(t *testing.T) {
	mockSvc := new(MockRetrievalRunner)
	handler := NewRetrieveHandler(mockSvc)

	retErr := &retrieval.Error{Reason: retrieval.ReasonEmbeddingUnavailable, Err: errors.New("openai timeout")}
	mockSvc.On("Retrieve", mock.Anything, "org-123", "bot-123", "anything").Return(nil, retErr)

	body := `{"bot_id":"bot-123","query":"anything"}`
	req := authedRequest(http.MethodPost, "/retrieve", body, "org-123")
	w := httptest.NewRecorder()

	handler.Retrieve(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "embedding-unavailable")
	assert.NotContains(t, w.Body.String(), "openai timeout")
	mockSvc.AssertExpectations(t)
}

func TestRetrieveHandler_CrossOrgBot(t *testing.T) {
	mockSvc := new(MockRetrievalRunner)
	handler := NewRetrieveHandler(mockSvc)

	mockSvc.On("Retrieve", mock.Anything, "org-123", "bot-other", "anything").Return(nil, domain.ErrBotForbidden)

	body := `{"bot_id":"bot-other","query":"anything"}`
	req := authedRequest(http.MethodPost, "/retrieve", body, "org-123")
	w := httptest.NewRecorder()

	handler.Retrieve(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestRetrieveHandler_MissingBotID(t *testing.T) {
	mockSvc := new(MockRetrievalRunner)
	handler := NewRetrieveHandler(mockSvc)

	body := `{"query":"anything"}`
	req := authedRequest(http.MethodPost, "/retrieve", body, "org-123")
	w := httptest.NewRecorder()

	handler.Retrieve(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Retrieve")
}

func TestRetrieveHandler_Unauthorized(t *testing.T) {
	mockSvc := new(MockRetrievalRunner)
	handler := NewRetrieveHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/retrieve", nil)
	w := httptest.NewRecorder()

	handler.Retrieve(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockSvc.AssertNotCalled(t, "Retrieve")
}
