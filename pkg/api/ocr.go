package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"deskdir/pkg/ocr"
)

// readUpload returns the bytes of the multipart "file" field. On failure it
// has already written the response.
func (s *Server) readUpload(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload+1<<20)
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": s.tooLargeMessage()})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return nil, false
	}
	if file.Size > s.maxUpload {
		c.JSON(http.StatusBadRequest, gin.H{"error": s.tooLargeMessage()})
		return nil, false
	}
	f, err := file.Open()
	if err != nil {
		s.writeError(c, err, "read upload failed")
		return nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		s.writeError(c, err, "read upload failed")
		return nil, false
	}
	return data, true
}

func (s *Server) tooLargeMessage() string {
	return fmt.Sprintf("file too large (max %dMB)", s.maxUpload>>20)
}

func (s *Server) extractHandler(c *gin.Context) {
	if s.extractor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "OCR is not configured"})
		return
	}
	data, ok := s.readUpload(c)
	if !ok {
		return
	}
	res, err := s.extractor.Extract(c.Request.Context(), bytes.NewReader(data))
	if err != nil {
		s.writeOCRError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ids":     res.IDs,
		"count":   len(res.IDs),
		"rawText": res.RawText,
		"cached":  res.Cached,
	})
}

// preprocessHandler returns the binarized image so users can see what the
// recognizer is given.
func (s *Server) preprocessHandler(c *gin.Context) {
	data, ok := s.readUpload(c)
	if !ok {
		return
	}
	img, err := ocr.DecodeImage(data)
	if err != nil {
		s.writeOCRError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, ocr.Preprocess(img), imaging.PNG); err != nil {
		s.writeError(c, err, "encode failed")
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) writeOCRError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ocr.ErrDecode):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not decode image"})
	case errors.Is(err, ocr.ErrRecognition):
		s.log.Warnw("recognition failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "text recognition failed, try again"})
	default:
		s.writeError(c, err, "extraction failed")
	}
}
