package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/askdb/internal/logger"
	"github.com/AI2HU/askdb/internal/models"
	"github.com/AI2HU/askdb/internal/vanna"
)

// RemoveTrainingDataRequest is the body of POST /api/v0/remove_training_data
type RemoveTrainingDataRequest struct {
	ID string `json:"id"`
}

// getTrainingData handles GET /api/v0/get_training_data
func (s *Server) getTrainingData(c *gin.Context) {
	df, err := s.trainingService.GetTrainingData(c.Request.Context())
	if err != nil {
		logger.Error("Failed to get training data: %v", err)
		s.errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	records, err := df.RecordsJSON()
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type": "df",
		"id":   "training_data",
		"df":   records,
	})
}

// removeTrainingData handles POST /api/v0/remove_training_data
func (s *Server) removeTrainingData(c *gin.Context) {
	var req RemoveTrainingDataRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.ID == "" {
		s.errorResponse(c, http.StatusBadRequest, "No id provided")
		return
	}

	removed, err := s.trainingService.RemoveTrainingData(c.Request.Context(), req.ID)
	if err != nil {
		logger.Error("Failed to remove training data %s: %v", req.ID, err)
	}
	if err != nil || !removed {
		s.errorResponse(c, http.StatusInternalServerError, "Couldn't remove training data")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// train handles POST /api/v0/train
func (s *Server) train(c *gin.Context) {
	var req models.TrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	id, err := s.trainingService.Train(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, vanna.ErrQuestionWithoutSQL):
			s.errorResponse(c, http.StatusBadRequest, "Please also provide a SQL query")
		case errors.Is(err, vanna.ErrEmptyTraining):
			s.errorResponse(c, http.StatusBadRequest, err.Error())
		default:
			logger.Error("Failed to train: %v", err)
			s.errorResponse(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}
