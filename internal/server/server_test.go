package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

type fakePipeline struct {
	docs      []models.Document
	processFn func() (*models.IndexManifest, error)
	queryFn   func(q string) (*models.PromptResponse, error)
	manifest  *models.IndexManifest
}

func (f *fakePipeline) Process(_ context.Context, docs []models.Document) (*models.IndexManifest, error) {
	f.docs = docs
	return f.processFn()
}

func (f *fakePipeline) Query(_ context.Context, q string) (*models.PromptResponse, error) {
	return f.queryFn(q)
}

func (f *fakePipeline) Manifest(context.Context) (*models.IndexManifest, error) {
	if f.manifest == nil {
		return nil, models.ErrMissingIndex
	}
	return f.manifest, nil
}

func newTestServer(p Pipeline) *Server {
	return NewServer(config.ServerConfig{Addr: ":0", BodyLimitMB: 4}, p)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func askRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthy(t *testing.T) {
	s := newTestServer(&fakePipeline{})
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/check/healthy", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := decode[map[string]string](t, resp); got["result"] != "ok" {
		t.Errorf("body = %v", got)
	}
}

func TestAsk(t *testing.T) {
	p := &fakePipeline{queryFn: func(q string) (*models.PromptResponse, error) {
		return &models.PromptResponse{
			Query:   q,
			Content: "Paris.",
			Sources: []models.SearchResult{{Chunk: models.Chunk{ChunkID: 2, Content: "Paris is the capital."}, Similarity: 0.9}},
		}, nil
	}}
	s := newTestServer(p)

	resp, err := s.App().Test(askRequest(`{"question":"  capital of France?  "}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got := decode[AskResponse](t, resp)
	if got.Question != "capital of France?" {
		t.Errorf("Question = %q", got.Question)
	}
	if got.Answer != "Paris."+models.Disclaimer {
		t.Errorf("Answer = %q, want answer with disclaimer", got.Answer)
	}
	if len(got.Sources) != 1 || got.Sources[0].ChunkID != 2 {
		t.Errorf("Sources = %+v", got.Sources)
	}
}

func TestAsk_Validation(t *testing.T) {
	s := newTestServer(&fakePipeline{})

	resp, err := s.App().Test(askRequest(`{"question":"   "}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	got := decode[ValidationError](t, resp)
	if _, ok := got.Errors["Question"]; !ok {
		t.Errorf("Errors = %v, want Question", got.Errors)
	}

	resp, err = s.App().Test(askRequest(`{not json`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAsk_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"missing index", models.ErrMissingIndex, http.StatusNotFound},
		{"mismatch", models.ErrIndexMismatch, http.StatusConflict},
		{"empty question", models.ErrEmptyQuestion, http.StatusUnprocessableEntity},
		{"service", &models.ServiceError{Service: "generation", Model: "m", Err: errors.New("down")}, http.StatusBadGateway},
		{"config", &models.ConfigError{Field: "embed_llm.key", Reason: "is required"}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakePipeline{queryFn: func(string) (*models.PromptResponse, error) {
				return nil, tt.err
			}})
			resp, err := s.App().Test(askRequest(`{"question":"q"}`))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.code {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.code)
			}
			got := decode[Error](t, resp)
			if got.Code != tt.code || got.Message != models.UserMessage(tt.err) {
				t.Errorf("body = %+v", got)
			}
		})
	}
}

func TestDocuments(t *testing.T) {
	p := &fakePipeline{processFn: func() (*models.IndexManifest, error) {
		return &models.IndexManifest{BuildID: "b1", ChunkCount: 2, Documents: []string{"a.pdf", "b.txt"}}, nil
	}}
	s := newTestServer(p)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range map[string]string{"a.pdf": "%PDF-1.4", "b.txt": "hello"} {
		w, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(content))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if got := decode[models.IndexManifest](t, resp); got.BuildID != "b1" {
		t.Errorf("manifest = %+v", got)
	}
	if len(p.docs) != 2 {
		t.Fatalf("processed %d docs, want 2", len(p.docs))
	}
	for _, d := range p.docs {
		if d.Name == "b.txt" && string(d.Data) != "hello" {
			t.Errorf("b.txt data = %q", d.Data)
		}
	}
}

func TestDocuments_Errors(t *testing.T) {
	s := newTestServer(&fakePipeline{processFn: func() (*models.IndexManifest, error) {
		return nil, models.ErrNoChunks
	}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("non-multipart status = %d, want 400", resp.StatusCode)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("note", "no files")
	mw.Close()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err = s.App().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("empty upload status = %d, want 422", resp.StatusCode)
	}
}

func TestIndex(t *testing.T) {
	p := &fakePipeline{}
	s := newTestServer(p)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/v1/index", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status before build = %d, want 404", resp.StatusCode)
	}

	p.manifest = &models.IndexManifest{BuildID: "b2", EmbeddingModel: "embedding-001"}
	resp, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/api/v1/index", nil))
	if err != nil {
		t.Fatal(err)
	}
	if got := decode[models.IndexManifest](t, resp); got.BuildID != "b2" {
		t.Errorf("manifest = %+v", got)
	}
}
