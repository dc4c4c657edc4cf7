package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zhejian/link-shortener/internal/api"
	"github.com/zhejian/link-shortener/internal/model"
	"github.com/zhejian/link-shortener/internal/service"
)

// MockSessionService mocks the service layer
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Create(ctx context.Context) (*model.SessionState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SessionState), args.Error(1)
}

func (m *MockSessionService) Get(ctx context.Context, id string) (*model.SessionState, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SessionState), args.Error(1)
}

func (m *MockSessionService) SetInput(ctx context.Context, id, input string) (*model.SessionState, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SessionState), args.Error(1)
}

func (m *MockSessionService) Submit(ctx context.Context, id string, input *string) (*model.SubmitResponse, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubmitResponse), args.Error(1)
}

func (m *MockSessionService) Copy(ctx context.Context, id string) (*model.SessionState, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SessionState), args.Error(1)
}

func (m *MockSessionService) CopyHistoryEntry(ctx context.Context, id string, index int) (*model.SessionState, error) {
	args := m.Called(ctx, id, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SessionState), args.Error(1)
}

func (m *MockSessionService) Clipboard(ctx context.Context, id string) (*model.ClipboardResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClipboardResponse), args.Error(1)
}

func (m *MockSessionService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCache for health check
type MockCache struct {
	shouldFail bool
}

func (m *MockCache) Ping(ctx context.Context) error {
	if m.shouldFail {
		return assert.AnError
	}
	return nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(svc service.SessionServiceInterface, cache api.CacheInterface) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return api.NewHandler(svc, cache, logger).SetupRouter()
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func readyState() *model.SessionState {
	return &model.SessionState{
		ID:     "s1",
		Phase:  model.PhaseReady,
		Input:  "https://example.com",
		Result: "short.link/abc123",
		History: []model.Conversion{
			{Original: "https://example.com", Alias: "short.link/abc123"},
		},
	}
}

func TestHandler_HealthCheck(t *testing.T) {
	t.Run("reports cache disabled for the memory clipboard", func(t *testing.T) {
		router := newRouter(new(MockSessionService), nil)

		w := do(router, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "ok", response["status"])
		deps := response["dependencies"].(map[string]interface{})
		assert.Equal(t, "disabled", deps["cache"])
	})

	t.Run("returns ok when cache is healthy", func(t *testing.T) {
		router := newRouter(new(MockSessionService), &MockCache{shouldFail: false})

		w := do(router, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		deps := response["dependencies"].(map[string]interface{})
		assert.Equal(t, "up", deps["cache"])
	})

	t.Run("returns degraded when cache is down", func(t *testing.T) {
		router := newRouter(new(MockSessionService), &MockCache{shouldFail: true})

		w := do(router, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "degraded", response["status"])
		deps := response["dependencies"].(map[string]interface{})
		assert.Equal(t, "down", deps["cache"])
	})
}

func TestHandler_CreateSession(t *testing.T) {
	t.Run("returns 201 with the new session", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("Create", mock.Anything).Return(&model.SessionState{ID: "s1", Phase: model.PhaseIdle, History: []model.Conversion{}}, nil)
		router := newRouter(svc, nil)

		w := do(router, http.MethodPost, "/api/v1/sessions", "")
		assert.Equal(t, http.StatusCreated, w.Code)

		var state model.SessionState
		require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
		assert.Equal(t, "s1", state.ID)
		assert.Equal(t, model.PhaseIdle, state.Phase)
		svc.AssertExpectations(t)
	})

	t.Run("returns 500 on unexpected error", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("Create", mock.Anything).Return(nil, assert.AnError)
		router := newRouter(svc, nil)

		w := do(router, http.MethodPost, "/api/v1/sessions", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decodeError(t, w).Message)
	})
}

func TestHandler_GetSession(t *testing.T) {
	t.Run("returns 200 with state", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("Get", mock.Anything, "s1").Return(readyState(), nil)
		router := newRouter(svc, nil)

		w := do(router, http.MethodGet, "/api/v1/sessions/s1", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var state model.SessionState
		require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
		assert.Equal(t, "short.link/abc123", state.Result)
		require.Len(t, state.History, 1)
	})

	t.Run("returns 404 for unknown session", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("Get", mock.Anything, "missing").Return(nil, service.ErrSessionNotFound)
		router := newRouter(svc, nil)

		w := do(router, http.MethodGet, "/api/v1/sessions/missing", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Session not found", decodeError(t, w).Message)
	})
}

func TestHandler_SetInput(t *testing.T) {
	t.Run("forwards the typed value", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("SetInput", mock.Anything, "s1", "https://example.com").
			Return(&model.SessionState{ID: "s1", Input: "https://example.com", CanSubmit: true}, nil)
		router := newRouter(svc, nil)

		w := do(router, http.MethodPut, "/api/v1/sessions/s1/input", `{"input": "https://example.com"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		var state model.SessionState
		require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
		assert.True(t, state.CanSubmit)
		svc.AssertExpectations(t)
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		svc := new(MockSessionService)
		router := newRouter(svc, nil)

		w := do(router, http.MethodPut, "/api/v1/sessions/s1/input", `{invalid`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "SetInput", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("returns 410 for closed session", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("SetInput", mock.Anything, "s1", "x").Return(nil, service.ErrSessionClosed)
		router := newRouter(svc, nil)

		w := do(router, http.MethodPut, "/api/v1/sessions/s1/input", `{"input": "x"}`)
		assert.Equal(t, http.StatusGone, w.Code)
	})
}

func TestHandler_Submit(t *testing.T) {
	t.Run("returns 202 when generation starts", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("Submit", mock.Anything, "s1", mock.MatchedBy(func(in *string) bool {
			return in != nil && *in == "https://example.com/a/very/long/path"
		})).Return(&model.SubmitResponse{
			Accepted: true,
			State:    model.SessionState{ID: "s1", Phase: model.PhaseGenerating, Generating: true},
		}, nil)
		router := newRouter(svc, nil)

		w := do(router, http.MethodPost, "/api/v1/sessions/s1/submit", `{"input": "https://example.com/a/very/long/path"}`)
		assert.Equal(t, http.StatusAccepted, w.Code)

		var resp model.SubmitResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, resp.Accepted)
		assert.Equal(t, model.PhaseGenerating, resp.State.Phase)
		svc.AssertExpectations(t)
	})

	t.Run("submits stored input without a body", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("Submit", mock.Anything, "s1", (*string)(nil)).Return(&model.SubmitResponse{
			Accepted: true,
			State:    model.SessionState{ID: "s1", Phase: model.PhaseGenerating},
		}, nil)
		router := newRouter(svc, nil)

		w := do(router, http.MethodPost, "/api/v1/sessions/s1/submit", "")
		assert.Equal(t, http.StatusAccepted, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("returns 200 when submission is refused", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("Submit", mock.Anything, "s1", mock.Anything).Return(&model.SubmitResponse{
			Accepted: false,
			State:    model.SessionState{ID: "s1", Phase: model.PhaseIdle, Input: "not a url"},
		}, nil)
		router := newRouter(svc, nil)

		w := do(router, http.MethodPost, "/api/v1/sessions/s1/submit", `{"input": "not a url"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp model.SubmitResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.False(t, resp.Accepted)
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		svc := new(MockSessionService)
		router := newRouter(svc, nil)

		w := do(router, http.MethodPost, "/api/v1/sessions/s1/submit", `{"input": 42}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandler_Copy(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"copies result", nil, http.StatusOK},
		{"nothing to copy", service.ErrNoResult, http.StatusConflict},
		{"clipboard failure", fmt.Errorf("%w: %w", service.ErrClipboardFailure, assert.AnError), http.StatusServiceUnavailable},
		{"unknown session", service.ErrSessionNotFound, http.StatusNotFound},
		{"closed session", service.ErrSessionClosed, http.StatusGone},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockSessionService)
			if tt.err != nil {
				svc.On("Copy", mock.Anything, "s1").Return(nil, tt.err)
			} else {
				state := readyState()
				state.Copied = true
				svc.On("Copy", mock.Anything, "s1").Return(state, nil)
			}
			router := newRouter(svc, nil)

			w := do(router, http.MethodPost, "/api/v1/sessions/s1/copy", "")
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.err == nil {
				var state model.SessionState
				require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
				assert.True(t, state.Copied)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_CopyHistoryEntry(t *testing.T) {
	t.Run("copies the requested row", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("CopyHistoryEntry", mock.Anything, "s1", 2).Return(readyState(), nil)
		router := newRouter(svc, nil)

		w := do(router, http.MethodPost, "/api/v1/sessions/s1/history/2/copy", "")
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("returns 400 for non-numeric index", func(t *testing.T) {
		svc := new(MockSessionService)
		router := newRouter(svc, nil)

		w := do(router, http.MethodPost, "/api/v1/sessions/s1/history/first/copy", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CopyHistoryEntry", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("returns 404 for missing row", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("CopyHistoryEntry", mock.Anything, "s1", 7).Return(nil, service.ErrEntryNotFound)
		router := newRouter(svc, nil)

		w := do(router, http.MethodPost, "/api/v1/sessions/s1/history/7/copy", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "History entry not found", decodeError(t, w).Message)
	})
}

func TestHandler_Clipboard(t *testing.T) {
	svc := new(MockSessionService)
	svc.On("Clipboard", mock.Anything, "s1").Return(&model.ClipboardResponse{Text: "short.link/abc123"}, nil)
	router := newRouter(svc, nil)

	w := do(router, http.MethodGet, "/api/v1/sessions/s1/clipboard", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.ClipboardResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "short.link/abc123", resp.Text)
}

func TestHandler_DeleteSession(t *testing.T) {
	t.Run("returns 204", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("Delete", mock.Anything, "s1").Return(nil)
		router := newRouter(svc, nil)

		w := do(router, http.MethodDelete, "/api/v1/sessions/s1", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("returns 404 for unknown session", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("Delete", mock.Anything, "missing").Return(service.ErrSessionNotFound)
		router := newRouter(svc, nil)

		w := do(router, http.MethodDelete, "/api/v1/sessions/missing", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
