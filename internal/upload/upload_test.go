package upload_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"ProductVault/internal/upload"
)

func multipartImage(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func post(t *testing.T, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h := &upload.Handler{Log: zap.NewNop()}
	h.ServeHTTP(rec, req)
	return rec
}

func TestUploadEncodesImage(t *testing.T) {
	content := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 1, 2, 3}
	body, ct := multipartImage(t, "image", "ball.png", content)

	rec := post(t, body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body)
	}

	var resp struct {
		ImagePath string `json:"imagePath"`
		Filename  string `json:"filename"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Filename != "ball.png" {
		t.Fatalf("filename = %q", resp.Filename)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(resp.ImagePath, prefix) {
		t.Fatalf("imagePath = %q, want %q prefix", resp.ImagePath, prefix)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(resp.ImagePath, prefix))
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !bytes.Equal(decoded, content) {
		t.Fatal("payload does not round-trip")
	}
}

func TestUploadExtensionCase(t *testing.T) {
	body, ct := multipartImage(t, "image", "photo.JPG", []byte{0xff, 0xd8, 0xff})

	rec := post(t, body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "data:image/jpeg;base64,") {
		t.Fatalf("body = %s", rec.Body)
	}
}

func TestUploadMissingFile(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("note", "no image here"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	rec := post(t, &buf, w.FormDataContentType())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestUploadRejectsBadExtension(t *testing.T) {
	for _, name := range []string{"raw.img", "doc.pdf", "noext", "archive.tar.gz"} {
		body, ct := multipartImage(t, "image", name, []byte("x"))

		rec := post(t, body, ct)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d, want 400", name, rec.Code)
		}
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	body, ct := multipartImage(t, "image", "big.png", make([]byte, upload.MaxImageBytes+1))

	rec := post(t, body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}
