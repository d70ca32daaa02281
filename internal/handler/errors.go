package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"bintobloom/internal/middleware"
	"bintobloom/internal/model"
	"bintobloom/internal/service"
	"bintobloom/pkg/pagination"
	"bintobloom/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusFor maps a service error kind onto the HTTP status the API reports.
func statusFor(err error) int {
	kind, _ := service.KindOf(err)
	switch kind {
	case service.KindValidation, service.KindState:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an error envelope. Unclassified errors are logged and hidden.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.ErrorContext(c.Request.Context(), "request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(status, response.Error(status, "internal server error"))
		return
	}
	c.JSON(status, response.Error(status, service.MessageOf(err)))
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return false
	}
	return true
}

func actorOf(c *gin.Context) (service.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
	}
	return actor, ok
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, data))
}

func paged(c *gin.Context, p pagination.Params, data interface{}, total int64) {
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, data, p.Meta(total)))
}

// timeRange reads optional from/to query parameters as RFC3339 or YYYY-MM-DD.
// A bare "to" date covers the whole day.
func timeRange(c *gin.Context) (model.TimeRange, bool) {
	var tr model.TimeRange
	for _, q := range []struct {
		key string
		dst *time.Time
		end bool
	}{{"from", &tr.Start, false}, {"to", &tr.End, true}} {
		raw := c.Query(q.key)
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			*q.dst = t
			continue
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid "+q.key+" date, expected YYYY-MM-DD or RFC3339"))
			return tr, false
		}
		if q.end {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		*q.dst = t
	}
	return tr, true
}

func limitParam(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > pagination.MaxLimit {
		return pagination.MaxLimit
	}
	return n
}
