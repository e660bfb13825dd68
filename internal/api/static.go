package api

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/askdb/internal/logger"
)

//go:embed static
var embeddedStatic embed.FS

// staticFS returns STATIC_DIR when it holds an index.html, the bundled page
// otherwise
func (s *Server) staticFS() http.FileSystem {
	if dir := s.config.StaticDir; dir != "" {
		if _, err := os.Stat(filepath.Join(dir, "index.html")); err == nil {
			return http.Dir(dir)
		}
		logger.Warning("No index.html in %s, serving the bundled front end", dir)
	}
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

func (s *Server) setupStatic() {
	files := s.staticFS()

	s.router.GET("/", func(c *gin.Context) {
		c.FileFromFS("/", files)
	})
	s.router.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			s.errorResponse(c, http.StatusNotFound, "Not found")
			return
		}
		f, err := files.Open(c.Request.URL.Path)
		if err != nil {
			s.errorResponse(c, http.StatusNotFound, "Not found")
			return
		}
		f.Close()
		c.FileFromFS(c.Request.URL.Path, files)
	})
}
