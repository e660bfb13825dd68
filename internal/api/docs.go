package api

import (
	_ "embed"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

var (
	openAPIOnce sync.Once
	openAPIDoc  map[string]any
	openAPIErr  error
)

// loadOpenAPI decodes the embedded document once
func loadOpenAPI() (map[string]any, error) {
	openAPIOnce.Do(func() {
		openAPIErr = yaml.Unmarshal(openAPISpec, &openAPIDoc)
	})
	return openAPIDoc, openAPIErr
}

// openAPIDocument handles GET /apidocs/openapi.json
func (s *Server) openAPIDocument(c *gin.Context) {
	doc, err := loadOpenAPI()
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "invalid API document: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, doc)
}
