package httpapi

import (
	"errors"
	"net/http"

	"shopadmin/catalog/internal/categorytree"
	"shopadmin/catalog/internal/client"
	"shopadmin/catalog/internal/repository"
	"shopadmin/catalog/internal/selector"
	"shopadmin/catalog/internal/service"
	"shopadmin/catalog/internal/state"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{state.ErrDraftNotFound, http.StatusNotFound},
	{service.ErrCategoryNotFound, http.StatusNotFound},
	{repository.ErrSubmissionNotFound, http.StatusNotFound},
	{client.ErrNotFound, http.StatusNotFound},

	{selector.ErrInvalidLevel, http.StatusBadRequest},
	{selector.ErrInvalidSelection, http.StatusBadRequest},

	{selector.ErrEmptyCursor, http.StatusConflict},
	{selector.ErrDuplicateLeaf, http.StatusConflict},
	{service.ErrPendingSelection, http.StatusConflict},
	{service.ErrSubmissionPending, http.StatusConflict},

	{service.ErrUnknownFather, http.StatusUnprocessableEntity},
	{service.ErrCategoryCycle, http.StatusUnprocessableEntity},
	{service.ErrInvalidStructuredData, http.StatusUnprocessableEntity},

	{client.ErrCircuitOpen, http.StatusServiceUnavailable},
	{client.ErrUnauthorized, http.StatusBadGateway},
	{categorytree.ErrOrphanRejected, http.StatusBadGateway},
}

func statusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// abort writes err as an envelope. Server side failures are logged and
// their details kept out of the response.
func abort(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		Error(c, status, http.StatusText(status))
		return
	}
	Error(c, status, err.Error())
}
