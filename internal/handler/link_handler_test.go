package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "tinylink/internal/errors"
	"tinylink/internal/model"
)

type mockLinkService struct {
	links    map[string]*model.LinkResponse
	failWith error
}

func newMockLinkService() *mockLinkService {
	return &mockLinkService{
		links: make(map[string]*model.LinkResponse),
	}
}

func (m *mockLinkService) Create(ctx context.Context, req *model.CreateLinkRequest) (*model.LinkResponse, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}

	code := req.Code
	if code == "" {
		code = "abc123"
	}

	response := &model.LinkResponse{
		Code:      code,
		TargetURL: req.TargetURL,
		ShortURL:  "http://localhost:8080/" + code,
		Clicks:    0,
		CreatedAt: time.Now(),
	}

	m.links[code] = response
	return response, nil
}

func (m *mockLinkService) List(ctx context.Context) ([]*model.LinkResponse, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}

	responses := make([]*model.LinkResponse, 0, len(m.links))
	for _, link := range m.links {
		responses = append(responses, link)
	}

	sort.Slice(responses, func(i, j int) bool {
		return responses[i].CreatedAt.After(responses[j].CreatedAt)
	})

	return responses, nil
}

func (m *mockLinkService) GetStats(ctx context.Context, code string) (*model.LinkResponse, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}

	response, exists := m.links[code]
	if !exists {
		return nil, apperrors.ErrLinkNotFound
	}

	return response, nil
}

func (m *mockLinkService) Delete(ctx context.Context, code string) error {
	if m.failWith != nil {
		return m.failWith
	}

	if _, exists := m.links[code]; !exists {
		return apperrors.ErrLinkNotFound
	}

	delete(m.links, code)
	return nil
}

func (m *mockLinkService) Redirect(ctx context.Context, code string) (string, error) {
	if m.failWith != nil {
		return "", m.failWith
	}

	response, exists := m.links[code]
	if !exists {
		return "", apperrors.ErrLinkNotFound
	}

	response.Clicks++
	now := time.Now()
	response.LastClicked = &now
	return response.TargetURL, nil
}

func setupRouter(svc LinkService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewLinkHandler(svc)
	router := gin.New()

	api := router.Group("/api")
	{
		api.POST("/links", h.CreateLink)
		api.GET("/links", h.ListLinks)
		api.GET("/links/:code", h.GetLinkStats)
		api.DELETE("/links/:code", h.DeleteLink)
	}
	router.GET("/:code", h.Redirect)

	return router
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	return body
}

func TestLinkHandler_CreateLink(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		failWith       error
		expectedStatus int
		expectedSymbol string
	}{
		{
			name:           "valid request",
			requestBody:    map[string]string{"targetUrl": "https://example.com"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "valid request with custom code",
			requestBody:    map[string]string{"targetUrl": "https://example.com", "code": "ABC123"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid JSON",
			requestBody:    "not json at all",
			expectedStatus: http.StatusBadRequest,
			expectedSymbol: apperrors.CodeMissingTargetURL,
		},
		{
			name:           "missing target URL",
			requestBody:    map[string]string{},
			failWith:       apperrors.NewValidationError("targetUrl", apperrors.CodeMissingTargetURL, "Target URL is required"),
			expectedStatus: http.StatusBadRequest,
			expectedSymbol: apperrors.CodeMissingTargetURL,
		},
		{
			name:           "invalid URL",
			requestBody:    map[string]string{"targetUrl": "not-a-url"},
			failWith:       apperrors.NewValidationError("targetUrl", apperrors.CodeInvalidURLFormat, "Invalid URL format"),
			expectedStatus: http.StatusBadRequest,
			expectedSymbol: apperrors.CodeInvalidURLFormat,
		},
		{
			name:           "invalid custom code",
			requestBody:    map[string]string{"targetUrl": "https://example.com", "code": "ab1"},
			failWith:       apperrors.NewValidationError("code", apperrors.CodeInvalidCode, "Custom code must be 6-8 alphanumeric characters"),
			expectedStatus: http.StatusBadRequest,
			expectedSymbol: apperrors.CodeInvalidCode,
		},
		{
			name:           "custom code taken",
			requestBody:    map[string]string{"targetUrl": "https://example.com", "code": "ABC123"},
			failWith:       apperrors.ErrCodeExists,
			expectedStatus: http.StatusConflict,
			expectedSymbol: apperrors.CodeExists,
		},
		{
			name:           "generated code collision",
			requestBody:    map[string]string{"targetUrl": "https://example.com"},
			failWith:       apperrors.ErrCodeCollision,
			expectedStatus: http.StatusInternalServerError,
			expectedSymbol: apperrors.CodeGenerationFailed,
		},
		{
			name:           "store failure",
			requestBody:    map[string]string{"targetUrl": "https://example.com"},
			failWith:       apperrors.NewBusinessError(apperrors.CodeInternal, "failed to create link", errors.New("connection reset")),
			expectedStatus: http.StatusInternalServerError,
			expectedSymbol: apperrors.CodeInternal,
		},
		{
			name:           "unexpected failure",
			requestBody:    map[string]string{"targetUrl": "https://example.com"},
			failWith:       errors.New("database gone"),
			expectedStatus: http.StatusInternalServerError,
			expectedSymbol: apperrors.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := newMockLinkService()
			mockService.failWith = tt.failWith
			router := setupRouter(mockService)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatalf("Failed to marshal request body: %v", err)
				}
			}

			req := httptest.NewRequest("POST", "/api/links", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("CreateLink() status = %d, want %d", w.Code, tt.expectedStatus)
			}

			response := decodeBody(t, w)

			if tt.expectedSymbol != "" {
				if response["code"] != tt.expectedSymbol {
					t.Errorf("CreateLink() error code = %v, want %s", response["code"], tt.expectedSymbol)
				}
				if _, exists := response["error"]; !exists {
					t.Error("CreateLink() error body missing 'error' field")
				}
				return
			}

			for _, field := range []string{"code", "targetUrl", "shortUrl", "clicks", "createdAt"} {
				if _, exists := response[field]; !exists {
					t.Errorf("CreateLink() response missing field: %s", field)
				}
			}

			// lastClicked не отдается, пока не было ни одного редиректа
			if _, exists := response["lastClicked"]; exists {
				t.Error("CreateLink() response should not contain lastClicked")
			}
		})
	}
}

func TestLinkHandler_StoreErrorDoesNotLeakCause(t *testing.T) {
	// Текст ошибки БД не должен попадать в ответ клиенту
	mockService := newMockLinkService()
	mockService.failWith = apperrors.NewBusinessError(apperrors.CodeInternal, "failed to get link",
		errors.New("pq: connection refused at 10.0.0.5"))
	router := setupRouter(mockService)

	req := httptest.NewRequest("GET", "/api/links/ABC123", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("GetLinkStats() status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	response := decodeBody(t, w)

	if response["code"] != apperrors.CodeInternal {
		t.Errorf("GetLinkStats() error code = %v, want %s", response["code"], apperrors.CodeInternal)
	}

	if response["error"] != "Internal server error" {
		t.Errorf("GetLinkStats() error message = %v, want generic message", response["error"])
	}
}

func TestLinkHandler_ListLinks(t *testing.T) {
	mockService := newMockLinkService()

	now := time.Now()
	mockService.links["AAA111"] = &model.LinkResponse{
		Code:      "AAA111",
		TargetURL: "https://example.com/a",
		ShortURL:  "http://localhost:8080/AAA111",
		CreatedAt: now.Add(-2 * time.Hour),
	}
	mockService.links["BBB222"] = &model.LinkResponse{
		Code:      "BBB222",
		TargetURL: "https://example.com/b",
		ShortURL:  "http://localhost:8080/BBB222",
		CreatedAt: now.Add(-time.Hour),
	}

	router := setupRouter(mockService)

	req := httptest.NewRequest("GET", "/api/links", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("ListLinks() status = %d, want %d", w.Code, http.StatusOK)
	}

	var responses []model.LinkResponse
	if err := json.Unmarshal(w.Body.Bytes(), &responses); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(responses) != 2 {
		t.Fatalf("ListLinks() returned %d links, want 2", len(responses))
	}

	if responses[0].Code != "BBB222" || responses[1].Code != "AAA111" {
		t.Errorf("ListLinks() order = [%s, %s], want [BBB222, AAA111]", responses[0].Code, responses[1].Code)
	}
}

func TestLinkHandler_GetLinkStats(t *testing.T) {
	mockService := newMockLinkService()
	mockService.links["ABC123"] = &model.LinkResponse{
		Code:      "ABC123",
		TargetURL: "https://example.com",
		ShortURL:  "http://localhost:8080/ABC123",
		Clicks:    5,
		CreatedAt: time.Now(),
	}

	router := setupRouter(mockService)

	t.Run("existing link", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/links/ABC123", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("GetLinkStats() status = %d, want %d", w.Code, http.StatusOK)
		}

		var response model.LinkResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response.Code != "ABC123" {
			t.Errorf("GetLinkStats() response.Code = %s, want ABC123", response.Code)
		}

		if response.Clicks != 5 {
			t.Errorf("GetLinkStats() response.Clicks = %d, want 5", response.Clicks)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/links/UNKNOWN1", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("GetLinkStats() status = %d, want %d", w.Code, http.StatusNotFound)
		}

		response := decodeBody(t, w)
		if response["code"] != apperrors.CodeLinkNotFound {
			t.Errorf("GetLinkStats() error code = %v, want %s", response["code"], apperrors.CodeLinkNotFound)
		}
	})
}

func TestLinkHandler_DeleteLink(t *testing.T) {
	mockService := newMockLinkService()
	mockService.links["ABC123"] = &model.LinkResponse{
		Code:      "ABC123",
		TargetURL: "https://example.com",
		CreatedAt: time.Now(),
	}

	router := setupRouter(mockService)

	t.Run("existing link", func(t *testing.T) {
		req := httptest.NewRequest("DELETE", "/api/links/ABC123", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("DeleteLink() status = %d, want %d", w.Code, http.StatusNoContent)
		}

		if w.Body.Len() != 0 {
			t.Errorf("DeleteLink() body = %q, want empty", w.Body.String())
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		req := httptest.NewRequest("DELETE", "/api/links/UNKNOWN1", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("DeleteLink() status = %d, want %d", w.Code, http.StatusNotFound)
		}

		response := decodeBody(t, w)
		if response["code"] != apperrors.CodeLinkNotFound {
			t.Errorf("DeleteLink() error code = %v, want %s", response["code"], apperrors.CodeLinkNotFound)
		}
	})
}

func TestLinkHandler_Redirect(t *testing.T) {
	mockService := newMockLinkService()
	mockService.links["ABC123"] = &model.LinkResponse{
		Code:      "ABC123",
		TargetURL: "https://example.com/page",
		CreatedAt: time.Now(),
	}

	router := setupRouter(mockService)

	t.Run("successful redirect", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/ABC123", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusFound {
			t.Errorf("Redirect() status = %d, want %d", w.Code, http.StatusFound)
		}

		location := w.Header().Get("Location")
		if location != "https://example.com/page" {
			t.Errorf("Redirect() Location = %s, want https://example.com/page", location)
		}

		// Клик учтен до ответа: статистика видна сразу после редиректа
		if mockService.links["ABC123"].Clicks != 1 {
			t.Errorf("Redirect() Clicks = %d, want 1", mockService.links["ABC123"].Clicks)
		}
	})

	t.Run("repeat redirect increments again", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/ABC123", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusFound {
			t.Errorf("Redirect() status = %d, want %d", w.Code, http.StatusFound)
		}

		if mockService.links["ABC123"].Clicks != 2 {
			t.Errorf("Redirect() Clicks = %d, want 2", mockService.links["ABC123"].Clicks)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/UNKNOWN1", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Redirect() status = %d, want %d", w.Code, http.StatusNotFound)
		}

		response := decodeBody(t, w)
		if response["code"] != apperrors.CodeLinkNotFound {
			t.Errorf("Redirect() error code = %v, want %s", response["code"], apperrors.CodeLinkNotFound)
		}
	})
}
