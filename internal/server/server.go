// =============================================================================
// PO Item Extractor - Upload Server
// =============================================================================
//
// This module serves the batch pipeline over HTTP.
//
// ROUTES:
//   POST /upload   multipart field "files" with one or more PDFs; responds
//                  with the analysis workbook as an attachment
//   GET  /healthz  liveness probe, responds "ok"
//
// Each upload is staged in its own directory, processed as one batch and
// removed afterwards, so requests share no state.
//
// =============================================================================

package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ginjaninja78/po-item-extractor/internal/config"
	"github.com/ginjaninja78/po-item-extractor/internal/logging"
	"github.com/ginjaninja78/po-item-extractor/internal/pipeline"
	"github.com/ginjaninja78/po-item-extractor/internal/report"
	"github.com/ginjaninja78/po-item-extractor/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const (
	// UploadField is the multipart field carrying the PDFs.
	UploadField = "files"

	// DownloadName is the file name offered to the client.
	DownloadName = "po_analysis.xlsx"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// memoryLimit is how much of a multipart body is kept in memory before
	// spilling to temporary files.
	memoryLimit = 32 << 20

	shutdownTimeout = 10 * time.Second
)

// Server is the upload server.
type Server struct {
	cfg    *config.MainConfig
	source pipeline.TextSource
	logger *zap.Logger
}

// New creates a Server. source supplies document text, normally
// pdftext.Default.
func New(cfg *config.MainConfig, source pipeline.TextSource, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, source: source, logger: logging.OrNop(logger)}
}

// Router returns the HTTP handler with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	r.Post("/upload", s.handleUpload)

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("upload server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down upload server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	// =========================================================================
	// STEP 1: STAGE THE UPLOADED PDFS
	// =========================================================================

	dir, err := utils.NewStagingDir(s.cfg.Server.StagingDir)
	if err != nil {
		log.Error("staging failed", zap.Error(err))
		http.Error(w, "Failed to stage upload", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := utils.CleanupDir(dir); err != nil {
			log.Warn("staging cleanup failed", zap.Error(err))
		}
	}()

	staged := 0
	for _, fh := range r.MultipartForm.File[UploadField] {
		if !utils.IsPDFName(fh.Filename) {
			log.Debug("skipping non-PDF upload", zap.String("file", fh.Filename))
			continue
		}

		f, err := fh.Open()
		if err != nil {
			http.Error(w, "Error retrieving file", http.StatusBadRequest)
			return
		}
		_, err = utils.SaveUpload(dir, fh.Filename, f)
		f.Close()
		if err != nil {
			if errors.Is(err, utils.ErrInvalidFileName) {
				http.Error(w, "Invalid file name", http.StatusBadRequest)
				return
			}
			log.Error("saving upload failed", zap.Error(err))
			http.Error(w, "Failed to save file", http.StatusInternalServerError)
			return
		}
		staged++
	}

	if staged == 0 {
		http.Error(w, "No PDF files uploaded", http.StatusBadRequest)
		return
	}

	// =========================================================================
	// STEP 2: RUN THE BATCH
	// =========================================================================

	batch, err := pipeline.New(s.cfg, s.source, log).RunFolder(dir, nil)
	if err != nil {
		log.Error("batch failed", zap.Error(err))
		http.Error(w, "Failed to process upload", http.StatusInternalServerError)
		return
	}

	// =========================================================================
	// STEP 3: RETURN THE WORKBOOK
	// =========================================================================

	var buf bytes.Buffer
	if err := report.New(s.cfg.Report, log).WriteTo(&buf, batch.Documents, batch.Aggregate); err != nil {
		log.Error("workbook failed", zap.Error(err))
		http.Error(w, "Failed to build workbook", http.StatusInternalServerError)
		return
	}

	log.Info("upload processed",
		zap.String("run_id", batch.RunID),
		zap.Int("documents", len(batch.Documents)),
		zap.Int("successful", batch.Successful()),
		zap.Int("unique_items", batch.Aggregate.Len()))

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", DownloadName))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

// requestLogger logs one line per request through zap.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)))
	})
}
