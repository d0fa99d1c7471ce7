package handler

import (
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UploadHandler stores multipart uploads under a local directory and returns
// the stored path. No invariants live here; it is a thin I/O wrapper.
type UploadHandler struct {
	Dir string
}

func NewUploadHandler(dir string) *UploadHandler { return &UploadHandler{Dir: dir} }

// Upload accepts a single "file" form field. The stored name is randomized
// to avoid collisions and path traversal via the client-supplied filename.
func (h *UploadHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file required"})
	}
	src, err := fh.Open()
	if err != nil {
		return serverError(c, "open upload", err)
	}
	defer src.Close()

	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return serverError(c, "create upload dir", err)
	}
	name := uuid.NewString() + filepath.Ext(fh.Filename)
	path := filepath.Join(h.Dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return serverError(c, "create upload file", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return serverError(c, "write upload", err)
	}
	log.Printf("upload successful: %s (%d bytes)", path, fh.Size)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Upload Successful",
		"data":    echo.Map{"name": fh.Filename, "url": "/" + path},
	})
}
