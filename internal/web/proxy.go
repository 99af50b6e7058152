package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// proxyImage fetches a remote image and serves it from this origin so mail
// bodies can reference external images without mixed-origin trouble.
func (s *Server) proxyImage(c *gin.Context) {
	url := c.Query("url")
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid url"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, url, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid url"})
		return
	}

	resp, err := s.proxy.Do(req)
	if err != nil {
		s.logger.Warn("proxy fetch failed", "url", url, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "fetch error"})
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(resp.StatusCode, resp.ContentLength, contentType, resp.Body, map[string]string{
		"Cache-Control": "public, max-age=86400",
	})
}
