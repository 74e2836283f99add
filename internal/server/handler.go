package server

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/models"
)

// Pipeline is the part of the RAG service exposed over HTTP.
type Pipeline interface {
	Process(ctx context.Context, docs []models.Document) (*models.IndexManifest, error)
	Query(ctx context.Context, question string) (*models.PromptResponse, error)
	Manifest(ctx context.Context) (*models.IndexManifest, error)
}

type AskParams struct {
	Question string `json:"question" validate:"required"`
}

type AskResponse struct {
	Question string                `json:"question"`
	Answer   string                `json:"answer"`
	Sources  []models.SearchResult `json:"sources"`
}

var validate = validator.New()

// Validate returns the failed fields keyed by name, or nil.
func (p *AskParams) Validate() map[string]string {
	if err := validate.Struct(p); err != nil {
		errs := make(map[string]string)
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, e := range verrs {
				errs[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
			}
		} else {
			errs["request"] = err.Error()
		}
		return errs
	}
	return nil
}

type CheckHandler struct{}

func (h CheckHandler) HandleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"result": "ok"})
}

type RAGHandler struct {
	pipeline Pipeline
}

func NewRAGHandler(p Pipeline) *RAGHandler {
	return &RAGHandler{pipeline: p}
}

// HandleDocuments reads the multipart "files" field and rebuilds the index.
func (h *RAGHandler) HandleDocuments(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return ErrBadRequest("expected a multipart form with a \"files\" field")
	}

	headers := form.File["files"]
	docs := make([]models.Document, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return &models.ExtractionError{Document: fh.Filename, Err: err}
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return &models.ExtractionError{Document: fh.Filename, Err: err}
		}
		docs = append(docs, models.Document{Name: fh.Filename, Data: data})
	}
	log.Info().Int("files", len(docs)).Msg("Received documents")

	manifest, err := h.pipeline.Process(c.UserContext(), docs)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(manifest)
}

func (h *RAGHandler) HandleAsk(c *fiber.Ctx) error {
	var params AskParams
	if err := c.BodyParser(&params); err != nil {
		return ErrBadRequest("invalid JSON request")
	}
	params.Question = strings.TrimSpace(params.Question)
	if errs := params.Validate(); len(errs) > 0 {
		return NewValidationError(errs)
	}

	resp, err := h.pipeline.Query(c.UserContext(), params.Question)
	if err != nil {
		return err
	}
	return c.JSON(AskResponse{
		Question: resp.Query,
		Answer:   resp.Render(),
		Sources:  resp.Sources,
	})
}

func (h *RAGHandler) HandleIndex(c *fiber.Ctx) error {
	manifest, err := h.pipeline.Manifest(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(manifest)
}
