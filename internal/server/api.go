package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spacesedan/sentiscope/internal/models"
)

type AnalyzeRequest struct {
	Text string `json:"text"`
}

type AnalyzeResponse struct {
	models.AnalysisOutcome
	DominantEmotion string `json:"dominant_emotion"`
}

func (s *Server) APIAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	outcome, err := s.analyzer.Analyze(c.Request.Context(), req.Text)
	if err != nil {
		s.abortJSON(c, err)
		return
	}

	c.JSON(http.StatusOK, AnalyzeResponse{
		AnalysisOutcome: outcome,
		DominantEmotion: outcome.DominantEmotion(),
	})
}

// APIBatch uploads and analyzes a file in one call
func (s *Server) APIBatch(c *gin.Context) {
	ds, err := s.readUpload(c)
	if err != nil {
		s.abortJSON(c, err)
		return
	}

	result, err := s.analyzer.AnalyzeDataset(c.Request.Context(), ds)
	if err != nil {
		s.abortJSON(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) Health(c *gin.Context) {
	status := s.health.Check(c.Request.Context())
	if !status.Healthy() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "models": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "models": status})
}

func (s *Server) abortJSON(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusOf(err), gin.H{"error": userMessage(err)})
}
