package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"medassist/internal/receiver"
)

type upload struct {
	name string
	data []byte
}

// uploadPDFs validates the whole batch before any ingestion work, then saves
// and ingests the files sequentially. Any single failure aborts the batch.
func (s *Server) uploadPDFs(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		uploadsTotal.WithLabelValues(outcomeRejected).Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no files uploaded"})
	}
	files := form.File["files"]
	if len(files) == 0 {
		uploadsTotal.WithLabelValues(outcomeRejected).Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no files uploaded"})
	}

	uploads := make([]upload, 0, len(files))
	for _, fh := range files {
		data, err := readPart(fh)
		if err != nil {
			uploadsTotal.WithLabelValues(outcomeError).Inc()
			log.Error().Err(err).Str("file", fh.Filename).Msg("Reading upload failed")
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		if err := s.receiver.Validate(fh.Filename, fh.Header.Get("Content-Type"), int64(len(data))); err != nil {
			var verr *receiver.ValidationError
			if errors.As(err, &verr) {
				uploadsTotal.WithLabelValues(outcomeRejected).Inc()
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			uploadsTotal.WithLabelValues(outcomeError).Inc()
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		uploads = append(uploads, upload{name: fh.Filename, data: data})
	}

	ctx := c.Request().Context()
	for _, u := range uploads {
		path, err := s.receiver.Save(u.name, u.data)
		if err != nil {
			uploadsTotal.WithLabelValues(outcomeError).Inc()
			log.Error().Err(err).Str("file", u.name).Msg("Saving upload failed")
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		if _, err := s.ingester.IngestFile(ctx, path); err != nil {
			uploadsTotal.WithLabelValues(outcomeError).Inc()
			log.Error().Err(err).Str("file", u.name).Msg("Upload failed")
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}

	uploadsTotal.WithLabelValues(outcomeOK).Inc()
	return c.JSON(http.StatusOK, map[string]string{"message": "Files processed successfully"})
}

// readPart loads one multipart file fully into memory; the byte count is
// what the size ceiling is measured against.
func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
