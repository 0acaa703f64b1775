package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/autodealer/dealership-api/internal/api/metrics"
	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

const (
	defaultImageFilename = "watermarked.jpg"
	defaultArchiveName   = "photos"
)

// MediaHandler exposes the watermark pipeline as file downloads.
type MediaHandler struct {
	service ports.WatermarkService
	log     zerolog.Logger
}

func NewMediaHandler(service ports.WatermarkService, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{service: service, log: log}
}

// DownloadOne handles GET /api/{admin,agent}/media/watermark.
//
// @Summary      Download one watermarked photo
// @Tags         media
// @Produce      image/jpeg
// @Security     BearerAuth
// @Param        url       query     string  true   "Source image URL"
// @Param        filename  query     string  false  "Download filename"
// @Success      200       {file}    binary
// @Failure      422       {object}  errorResponse
// @Failure      502       {object}  errorResponse
// @Router       /api/admin/media/watermark [get]
// @Router       /api/agent/media/watermark [get]
func (h *MediaHandler) DownloadOne(c echo.Context) error {
	var q watermarkQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	data, err := h.service.WatermarkOne(c.Request().Context(), q.URL)
	if err != nil {
		metrics.MediaImagesTotal.WithLabelValues("single", "error").Inc()
		return err
	}
	metrics.MediaImagesTotal.WithLabelValues("single", "ok").Inc()

	name := attachmentName(q.Filename, ".jpg", defaultImageFilename)
	c.Response().Header().Set(echo.HeaderContentDisposition, contentDisposition(name))
	return c.Blob(http.StatusOK, "image/jpeg", data)
}

// DownloadAll handles POST /api/{admin,agent}/media/archive.
//
// @Summary      Download watermarked photos as a zip
// @Description  Images are processed in order; any failure aborts the whole archive.
// @Tags         media
// @Accept       json
// @Produce      application/zip
// @Security     BearerAuth
// @Param        body  body      archiveRequest  true  "Image URLs and archive name"
// @Success      200   {file}    binary
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /api/admin/media/archive [post]
// @Router       /api/agent/media/archive [post]
func (h *MediaHandler) DownloadAll(c echo.Context) error {
	var req archiveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	base := strings.TrimSuffix(attachmentName(req.Name, ".zip", defaultArchiveName+".zip"), ".zip")
	started := time.Now()
	reached := 0

	data, err := h.service.BuildArchive(c.Request().Context(), req.URLs, base, func(current, total int) {
		reached = current
		h.log.Debug().Int("current", current).Int("total", total).Str("archive", base).Msg("watermarking image")
	})
	if err != nil {
		metrics.MediaArchiveDuration.WithLabelValues("error").Observe(time.Since(started).Seconds())
		if reached > 0 {
			metrics.MediaImagesTotal.WithLabelValues("archive", "ok").Add(float64(reached - 1))
			metrics.MediaImagesTotal.WithLabelValues("archive", "error").Inc()
		}
		if ctxErr := c.Request().Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			h.log.Info().Str("archive", base).Int("reached", reached).Msg("archive cancelled by client")
		}
		return err
	}

	metrics.MediaArchiveDuration.WithLabelValues("ok").Observe(time.Since(started).Seconds())
	metrics.MediaImagesTotal.WithLabelValues("archive", "ok").Add(float64(len(req.URLs)))

	c.Response().Header().Set(echo.HeaderContentDisposition, contentDisposition(base+".zip"))
	return c.Blob(http.StatusOK, "application/zip", data)
}

// attachmentName cleans name with domain.SanitizeFilename and makes sure it
// ends in ext. An empty result falls back to def.
func attachmentName(name, ext, def string) string {
	name = domain.SanitizeFilename(name)
	if name == "" || name == ext {
		return def
	}
	if !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}
	return name
}

func contentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
