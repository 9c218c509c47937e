// Package upload implements the image ingestion boundary: it turns a
// multipart file into a self-contained data URI the catalog can store
// in a product's image field. Nothing is written to disk.
package upload

import (
	"encoding/base64"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"ProductVault/pkg/kit"
)

// MaxImageBytes caps the accepted file size at 2 MiB.
const MaxImageBytes = 2 << 20

// multipart framing on top of the image payload
const formOverheadBytes = 16 << 10

var allowedExtensions = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

type Handler struct {
	Log *zap.Logger
}

type response struct {
	ImagePath string `json:"imagePath"`
	Filename  string `json:"filename"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes+formOverheadBytes)

	file, header, err := r.FormFile("image")
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "no file uploaded", nil)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	mimeType, ok := allowedExtensions[ext]
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid file type", map[string]any{
			"allowed": []string{".jpeg", ".jpg", ".png", ".webp"},
		})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "unreadable upload", nil)
		return
	}
	if len(data) > MaxImageBytes {
		kit.WriteError(w, r, http.StatusBadRequest, "file too large", map[string]any{
			"max_bytes": MaxImageBytes,
		})
		return
	}

	if h.Log != nil {
		h.Log.Info("image encoded",
			zap.String("filename", header.Filename),
			zap.Int("bytes", len(data)),
		)
	}

	kit.WriteJSON(w, http.StatusOK, response{
		ImagePath: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		Filename:  header.Filename,
	})
}
