package server

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/po-item-extractor/internal/config"
	"github.com/ginjaninja78/po-item-extractor/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// fakeSource returns the uploaded bytes as the document text.
type fakeSource struct{}

func (fakeSource) Extract(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	if len(data) == 0 {
		return "", "", fmt.Errorf("empty upload")
	}
	return string(data), "fake", nil
}

type upload struct {
	field, name, content string
}

func multipartBody(t *testing.T, uploads ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, u := range uploads {
		part, err := mw.CreateFormFile(u.field, u.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(u.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	staging := t.TempDir()
	cfg := config.Default()
	cfg.Server.StagingDir = staging
	return New(cfg, fakeSource{}, nil), staging
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestUpload(t *testing.T) {
	s, staging := newTestServer(t)

	body, contentType := multipartBody(t,
		upload{UploadField, "doc2.pdf", "Document Ref: 4500000002\n00010 Blue Widget 12.000 154.00"},
		upload{UploadField, "doc1.PDF", "Document Ref: 4500000001\n00010 Blue Widget 36.000 154.00\n20045 Steel Bolt\nDIY28045\n48"},
		upload{UploadField, "notes.txt", "00099 Ignored 5.000"},
		upload{UploadField, "broken.pdf", ""},
	)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Origin", "http://example.com")

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="po_analysis.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(report.SheetQuantitySummary)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Row Labels", "DIY Code", "broken", "4500000001", "4500000002", "Grand Total"}, rows[0])
	assert.Equal(t, []string{"Blue Widget", "", "0", "36", "12", "48"}, rows[1])
	assert.Equal(t, []string{"Steel Bolt", "DIY28045", "0", "48", "0", "48"}, rows[2])

	entries, err := os.ReadDir(staging)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging directory must be removed")
}

func TestUploadRejectsRequestsWithoutPDFs(t *testing.T) {
	s, staging := newTestServer(t)

	tests := []struct {
		name    string
		uploads []upload
	}{
		{"no files", nil},
		{"only non-PDF files", []upload{{UploadField, "notes.txt", "x"}}},
		{"wrong field", []upload{{"file", "a.pdf", "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.uploads...)
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", contentType)

			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	entries, err := os.ReadDir(staging)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadRejectsNonMultipart(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadTooLarge(t *testing.T) {
	s, _ := newTestServer(t)
	s.cfg.Server.MaxUploadMB = 1

	big := bytes.Repeat([]byte("0"), 2<<20)
	body, contentType := multipartBody(t, upload{UploadField, "big.pdf", string(big)})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadPathTraversalStaysInStaging(t *testing.T) {
	s, staging := newTestServer(t)

	body, contentType := multipartBody(t,
		upload{UploadField, "../../evil.pdf", "00010 Blue Widget 1.000"})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	_, err := os.Stat(filepath.Join(filepath.Dir(staging), "evil.pdf"))
	assert.True(t, os.IsNotExist(err))
}
