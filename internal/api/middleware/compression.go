package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// Minimum response size in bytes before gzip kicks in
	MinLength int
	// Gzip compression level (1-9)
	Level int
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinLength: 1024,
		Level:     gzip.DefaultCompression,
	}
}

// Compression returns a middleware that gzips JSON responses above the
// configured size and transparently inflates gzipped request bodies.
func Compression(cfg CompressionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Header.Get("Content-Encoding") == "gzip" {
			reader, err := gzip.NewReader(c.Request.Body)
			if err != nil {
				c.AbortWithStatus(http.StatusBadRequest)
				return
			}
			body, err := io.ReadAll(reader)
			reader.Close()
			if err != nil {
				c.AbortWithStatus(http.StatusBadRequest)
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		if !strings.Contains(c.Request.Header.Get("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		gw := &gzipResponseWriter{
			ResponseWriter: c.Writer,
			minLength:      cfg.MinLength,
			level:          cfg.Level,
			buf:            new(bytes.Buffer),
		}
		c.Writer = gw

		c.Header("Vary", "Accept-Encoding")

		c.Next()

		gw.flushBody()
	}
}

// gzipResponseWriter buffers the response so the compress-or-not decision can
// be made once the full size is known
type gzipResponseWriter struct {
	gin.ResponseWriter
	minLength int
	level     int
	buf       *bytes.Buffer
}

func (g *gzipResponseWriter) Write(data []byte) (int, error) {
	return g.buf.Write(data)
}

func (g *gzipResponseWriter) WriteString(s string) (int, error) {
	return g.buf.WriteString(s)
}

func (g *gzipResponseWriter) flushBody() error {
	content := g.buf.Bytes()

	if len(content) < g.minLength || !compressible(g.Header().Get("Content-Type")) {
		_, err := g.ResponseWriter.Write(content)
		return err
	}

	gz, err := gzip.NewWriterLevel(g.ResponseWriter, g.level)
	if err != nil {
		return err
	}
	g.Header().Set("Content-Encoding", "gzip")
	g.Header().Del("Content-Length")

	if _, err := gz.Write(content); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

func compressible(contentType string) bool {
	for _, prefix := range []string{"image/", "video/", "audio/"} {
		if strings.HasPrefix(contentType, prefix) {
			return false
		}
	}
	return true
}
