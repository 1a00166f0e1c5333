package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/seatmate-io/seatmate/internal/modules/serializer"
	"github.com/seatmate-io/seatmate/internal/modules/service"
	"github.com/seatmate-io/seatmate/internal/pkg/paging"
)

// respondErr maps service errors onto the HTTP surface. Invalid transitions
// include the current state in the payload so clients can resynchronize.
func respondErr(c *gin.Context, err error) {
	var stateErr *service.InvalidStateError
	switch {
	case errors.As(err, &stateErr):
		c.JSON(http.StatusBadRequest, serializer.StateErr("invalid state transition", stateErr.Current))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, serializer.NotFoundErr(""))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, serializer.ForbiddenErr(""))
	case errors.Is(err, service.ErrBlacklisted):
		c.JSON(http.StatusForbidden, serializer.ForbiddenErr("account is blocked"))
	case errors.Is(err, service.ErrSelfInquiry):
		c.JSON(http.StatusBadRequest, serializer.ParamErr("cannot inquire on own listing", nil))
	case errors.Is(err, paging.ErrInvalidCursor):
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid cursor", nil))
	case errors.Is(err, service.ErrAlreadySelected):
		c.JSON(http.StatusConflict, serializer.Err(http.StatusConflict, "listing already has an accepted applicant", nil))
	case errors.Is(err, service.ErrAlreadyCompleted):
		c.JSON(http.StatusConflict, serializer.Err(http.StatusConflict, "transaction already completed", nil))
	case errors.Is(err, service.ErrDuplicateReview):
		c.JSON(http.StatusConflict, serializer.Err(http.StatusConflict, "review already submitted", nil))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, serializer.AuthErr("invalid email or password"))
	default:
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
	}
}

func currentUser(c *gin.Context) (*model.User, bool) {
	u, ok := c.MustGet("user").(*model.User)
	return u, ok
}
