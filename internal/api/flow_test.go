package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/pdf-chat/internal/document"
	"github.com/Rrens/pdf-chat/internal/document/pdftest"
	"github.com/Rrens/pdf-chat/internal/domain"
	"github.com/Rrens/pdf-chat/internal/llm"
	"github.com/Rrens/pdf-chat/internal/repository/memory"
	"github.com/Rrens/pdf-chat/internal/service"
)

// recordingProvider answers every prompt and keeps what it was sent
type recordingProvider struct {
	mu      sync.Mutex
	prompts []string
}

func (p *recordingProvider) Name() string              { return "recording" }
func (p *recordingProvider) AvailableModels() []string { return []string{"echo"} }
func (p *recordingProvider) DefaultModel() string      { return "echo" }
func (p *recordingProvider) IsConfigured() bool        { return true }

func (p *recordingProvider) Generate(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, req.Prompt)
	return &llm.Response{Text: fmt.Sprintf(" answer %d \n", len(p.prompts)), Model: model}, nil
}

func (p *recordingProvider) lastPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.prompts) == 0 {
		return ""
	}
	return p.prompts[len(p.prompts)-1]
}

func newFlowRouter(t *testing.T) (http.Handler, *recordingProvider) {
	t.Helper()

	cfg := testConfig()
	cfg.LLM.DefaultProvider = "recording"

	provider := &recordingProvider{}
	llmRouter := llm.NewRouter(cfg.LLM.DefaultProvider)
	llmRouter.RegisterProvider(provider)

	store := memory.NewSessionStore(domain.StoreOptions{TTL: time.Hour, HistoryWindow: 8}, 0, 0)
	chat := service.NewChatService(
		store,
		document.NewExtractor(document.DefaultMaxChars),
		service.NewAnswerService(llmRouter, cfg.LLM, nil),
		service.ChatOptions{UploadDir: t.TempDir(), HistoryWindow: 8, MaxMessageLength: 8000},
		nil,
	)

	return NewRouter(cfg, Dependencies{Chat: chat, Store: store, LLM: llmRouter}), provider
}

func uploadPDF(t *testing.T, h http.Handler, pages ...string) string {
	t.Helper()

	content, err := os.ReadFile(pdftest.Write(t, pages...))
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("pdf", "report.pdf")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload_pdf", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "PDF uploaded and processed", resp.Message)
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(h, req)
}

func TestNewRouter_UploadChatResetFlow(t *testing.T) {
	h, provider := newFlowRouter(t)

	sessionID := uploadPDF(t, h, "Hello", "World", "End")

	rec := postJSON(h, "/chat", `{"session_id":"`+sessionID+`","message":"  What is this?  "}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"answer":"answer 1","history_len":2}`, rec.Body.String())
	assert.Contains(t, provider.lastPrompt(), "PDF CONTENT:\nHello\nWorld\nEnd\n")
	assert.True(t, strings.HasSuffix(provider.lastPrompt(), "User: What is this?\nAssistant:"))

	rec = postJSON(h, "/chat", `{"session_id":"`+sessionID+`","message":"And then?"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"answer":"answer 2","history_len":4}`, rec.Body.String())
	assert.Contains(t, provider.lastPrompt(), "User: What is this?\nAssistant: answer 1\nUser: And then?\nAssistant:")

	rec = postJSON(h, "/chat", `{"session_id":"`+sessionID+`","message":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Empty message"}`, rec.Body.String())

	rec = postJSON(h, "/reset_session", `{"session_id":"`+sessionID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Session reset"}`, rec.Body.String())

	rec = postJSON(h, "/chat", `{"session_id":"`+sessionID+`","message":"Still there?"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid or missing session_id. Upload a PDF first."}`, rec.Body.String())

	rec = postJSON(h, "/reset_session", `{"session_id":"`+sessionID+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Invalid session"}`, rec.Body.String())
}

func TestNewRouter_ChatUsesOwnSessionDocument(t *testing.T) {
	h, provider := newFlowRouter(t)

	first := uploadPDF(t, h, "Alphadoc")
	second := uploadPDF(t, h, "Betadoc")
	require.NotEqual(t, first, second)

	rec := postJSON(h, "/chat", `{"session_id":"`+second+`","message":"Summary?"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, provider.lastPrompt(), "Betadoc")
	assert.NotContains(t, provider.lastPrompt(), "Alphadoc")
}
