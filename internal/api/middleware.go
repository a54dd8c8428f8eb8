package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// frontendFallback serves files from staticDir for unmatched GET requests.
// Unknown API paths and other methods get a JSON 404.
func frontendFallback(staticDir string) gin.HandlerFunc {
	fileServer := http.FileServer(gin.Dir(staticDir, false))

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if staticDir == "" || isAPIPath(path) ||
			(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
			return
		}

		// Pretty page URLs such as /login map to login.html.
		if ext := filepath.Ext(path); ext == "" && path != "/" {
			candidate := filepath.Join(staticDir, filepath.FromSlash(strings.TrimPrefix(path, "/"))+".html")
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				c.File(candidate)
				return
			}
		}

		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}

func isAPIPath(path string) bool {
	return path == "/v1" || strings.HasPrefix(path, "/v1/") ||
		path == "/health" || path == "/metrics"
}
