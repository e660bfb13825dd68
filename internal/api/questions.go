package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/askdb/internal/logger"
	"github.com/AI2HU/askdb/internal/services"
)

// generateQuestions handles GET /api/v0/generate_questions
func (s *Server) generateQuestions(c *gin.Context) {
	questions, err := s.questionService.GenerateQuestions(c.Request.Context())
	if err != nil {
		logger.Error("Failed to generate questions: %v", err)
		s.errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":      "question_list",
		"questions": questions,
		"header":    "Here are some questions you can ask:",
	})
}

// generateSQL handles GET /api/v0/generate_sql
func (s *Server) generateSQL(c *gin.Context) {
	question, ok := c.GetQuery("question")
	if !ok {
		s.errorResponse(c, http.StatusBadRequest, "No question provided")
		return
	}

	id, sql, err := s.questionService.GenerateSQL(c.Request.Context(), question)
	if err != nil {
		logger.Error("Failed to generate SQL: %v", err)
		s.errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type": "sql",
		"id":   id,
		"text": sql,
	})
}

// runSQL handles GET /api/v0/run_sql
func (s *Server) runSQL(c *gin.Context) {
	entry := cachedEntry(c)

	head, err := s.questionService.RunSQL(c.Request.Context(), entry.ID, *entry.SQL)
	if err != nil {
		logger.Error("Failed to run SQL for %s: %v", entry.ID, err)
		s.errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	records, err := head.RecordsJSON()
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type": "df",
		"id":   entry.ID,
		"df":   records,
	})
}

// downloadCSV handles GET /api/v0/download_csv
func (s *Server) downloadCSV(c *gin.Context) {
	entry := cachedEntry(c)

	body, err := entry.DataFrame.CSV()
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", entry.ID))
	c.Data(http.StatusOK, "text/csv", []byte(body))
}

// generatePlotlyFigure handles GET /api/v0/generate_plotly_figure
func (s *Server) generatePlotlyFigure(c *gin.Context) {
	entry := cachedEntry(c)

	fig, err := s.questionService.GenerateFigure(c.Request.Context(), entry.ID, *entry.Question, *entry.SQL, entry.DataFrame)
	if err != nil {
		logger.Error("Failed to generate figure for %s: %v", entry.ID, err)
		s.errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type": "plotly_figure",
		"id":   entry.ID,
		"fig":  fig,
	})
}

// generateFollowupQuestions handles GET /api/v0/generate_followup_questions
func (s *Server) generateFollowupQuestions(c *gin.Context) {
	entry := cachedEntry(c)

	questions, err := s.questionService.GenerateFollowups(c.Request.Context(), entry.ID, *entry.Question, *entry.SQL, entry.DataFrame)
	if err != nil {
		logger.Error("Failed to generate followup questions for %s: %v", entry.ID, err)
		s.errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":      "question_list",
		"id":        entry.ID,
		"questions": questions,
		"header":    "Here are some followup questions you can ask:",
	})
}

// loadQuestion handles GET /api/v0/load_question
func (s *Server) loadQuestion(c *gin.Context) {
	entry := cachedEntry(c)

	records, err := entry.DataFrame.Head(services.PreviewRows).RecordsJSON()
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":               "question_cache",
		"id":                 entry.ID,
		"question":           *entry.Question,
		"sql":                *entry.SQL,
		"df":                 records,
		"fig":                *entry.FigureJSON,
		"followup_questions": entry.FollowupQuestions,
	})
}

// getQuestionHistory handles GET /api/v0/get_question_history
func (s *Server) getQuestionHistory(c *gin.Context) {
	history, err := s.questionService.QuestionHistory(c.Request.Context())
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":      "question_history",
		"questions": history,
	})
}
