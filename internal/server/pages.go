package server

import (
	"bytes"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spacesedan/sentiscope/internal/apperrors"
	"github.com/spacesedan/sentiscope/internal/models"
	"github.com/spacesedan/sentiscope/internal/session"
)

const (
	MissingFileMessage     = "Please upload a file."
	UnknownDatasetMessage  = "This upload is unknown or has expired. Please upload the file again."
	UnexpectedErrorMessage = "Something went wrong, please try again."
)

func (s *Server) Index(c *gin.Context) {
	s.render(c, http.StatusOK, pageData{})
}

func (s *Server) AnalyzeText(c *gin.Context) {
	text := c.PostForm("text")
	data := pageData{Text: text}

	outcome, err := s.analyzer.Analyze(c.Request.Context(), text)
	if err != nil {
		_ = c.Error(err)
		if apperrors.IsValidation(err) {
			data.Warning = err.Error()
		} else {
			data.Error = userMessage(err)
		}
		s.render(c, statusOf(err), data)
		return
	}

	data.Single = newSingleView(outcome)
	s.render(c, http.StatusOK, data)
}

func (s *Server) Upload(c *gin.Context) {
	ds, err := s.readUpload(c)
	if err != nil {
		_ = c.Error(err)
		s.render(c, statusOf(err), pageData{Error: userMessage(err)})
		return
	}

	if err := s.store.Save(c.Request.Context(), ds); err != nil {
		_ = c.Error(err)
		s.render(c, http.StatusInternalServerError, pageData{Error: UnexpectedErrorMessage})
		return
	}

	s.render(c, http.StatusOK, pageData{Upload: newUploadView(ds)})
}

func (s *Server) AnalyzeBatch(c *gin.Context) {
	ctx := c.Request.Context()

	ds, err := s.store.Load(ctx, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		s.render(c, statusOf(err), pageData{Error: userMessage(err)})
		return
	}

	result, err := s.analyzer.AnalyzeDataset(ctx, ds)
	if err != nil {
		_ = c.Error(err)
		s.render(c, statusOf(err), pageData{
			Error:  userMessage(err),
			Upload: newUploadView(ds),
		})
		return
	}

	s.render(c, http.StatusOK, pageData{Batch: newBatchView(result)})
}

func (s *Server) readUpload(c *gin.Context) (models.Dataset, error) {
	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return models.Dataset{}, apperrors.Validation(MissingFileMessage)
		}
		return models.Dataset{}, apperrors.Validation("could not read upload: %v", err)
	}

	return s.readFile(header)
}

func (s *Server) readFile(header *multipart.FileHeader) (models.Dataset, error) {
	f, err := header.Open()
	if err != nil {
		return models.Dataset{}, apperrors.Parse("could not open upload", err)
	}
	defer f.Close()

	return s.reader.Read(header.Filename, f)
}

func (s *Server) render(c *gin.Context, status int, data pageData) {
	var buf bytes.Buffer
	if err := s.page.ExecuteTemplate(&buf, PAGE_TEMPLATE, data); err != nil {
		slog.Error("[Server] Failed to render page", slog.String("error", err.Error()))
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func statusOf(err error) int {
	if errors.Is(err, session.ErrNotFound) {
		return http.StatusNotFound
	}
	return apperrors.HTTPStatus(err)
}

// userMessage keeps internal failures off the page while typed errors are
// shown as they are.
func userMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return UnknownDatasetMessage
	case apperrors.IsValidation(err), apperrors.IsInference(err), apperrors.IsParse(err):
		return err.Error()
	default:
		return UnexpectedErrorMessage
	}
}
