package v1

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"png_compression/config"
	"png_compression/entity"
	"png_compression/pkg/logger"
)

type compressionRoutes struct {
	cu entity.CompressionUsecase
	l  logger.Interface

	maxBodyBytes  int64
	publicBaseURL string
	trustProxy    bool
}

func newCompressionRoutes(handler *gin.RouterGroup, cu entity.CompressionUsecase, l logger.Interface, cfg *config.Config) {
	r := &compressionRoutes{
		cu:            cu,
		l:             l,
		maxBodyBytes:  cfg.Server.MaxBodyBytes,
		publicBaseURL: cfg.Server.PublicBaseURL,
		trustProxy:    cfg.Server.TrustProxy,
	}

	handler.GET("/files/:id", r.file)
	handler.POST("/compress", bearerAuth(cfg.Auth.Token), r.compress)
}

// @Summary     Compress a PNG
// @Description Downloads the PNG at url, runs oxipng on it and returns a temporary download link.
// @ID          compress
// @Tags        compression
// @Accept      json
// @Produce     json
// @Param       request body entity.CompressionRequest true "Source image"
// @Success     200 {object} entity.CompressionResponse
// @Failure     400 {object} response
// @Failure     401 {object} response
// @Failure     415 {object} response
// @Failure     500 {object} response
// @Security    BearerAuth
// @Router      /compress [post]
func (r *compressionRoutes) compress(c *gin.Context) {
	ctx, span := otel.Tracer(traceName).Start(c.Request.Context(), "compress-api")
	defer span.End()

	var req entity.CompressionRequest
	if r.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, r.maxBodyBytes)
	}
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		r.l.Debug("http - v1 - compress: body not decoded: %v", err)
		errorResponse(c, http.StatusBadRequest, entity.ErrMissingURL.Error())
		return
	}
	if req.URL == "" {
		errorResponse(c, http.StatusBadRequest, entity.ErrMissingURL.Error())
		return
	}

	req.BaseURL = baseURL(c.Request, r.publicBaseURL, r.trustProxy)

	res, err := r.cu.Compress(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, entity.CompressionResponse{
		URL:               res.URL,
		SuggestedFilename: res.SuggestedFilename,
	})
}

// @Summary     Download a compressed image
// @Description Serves a compressed result until its link expires.
// @ID          file
// @Tags        compression
// @Produce     png
// @Param       id path string true "Object id"
// @Success     200 {file} binary
// @Failure     404 {string} string "Not found or expired"
// @Router      /files/{id} [get]
func (r *compressionRoutes) file(c *gin.Context) {
	ctx, span := otel.Tracer(traceName).Start(c.Request.Context(), "file-api")
	defer span.End()

	obj, err := r.cu.GetObject(ctx, c.Param("id"))
	if err != nil {
		c.String(http.StatusNotFound, entity.ErrNotFound.Error())
		return
	}

	mimeType := obj.MimeType
	if mimeType == "" {
		mimeType = entity.MimeTypePNG
	}
	c.Data(http.StatusOK, mimeType, obj.Buffer)
}

func statusFor(err error) int {
	var mErr *entity.UnsupportedMediaError
	switch {
	case errors.Is(err, entity.ErrMissingURL):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &mErr):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// baseURL is the scheme://host public links are built on. A configured
// public base wins; X-Forwarded-Proto is only read behind a trusted proxy.
func baseURL(req *http.Request, publicBase string, trustProxy bool) string {
	if publicBase != "" {
		return publicBase
	}

	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	if trustProxy {
		proto, _, _ := strings.Cut(req.Header.Get("X-Forwarded-Proto"), ",")
		if proto = strings.ToLower(strings.TrimSpace(proto)); proto == "http" || proto == "https" {
			scheme = proto
		}
	}

	return scheme + "://" + req.Host
}
