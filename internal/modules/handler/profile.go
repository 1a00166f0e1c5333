package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/serializer"
	"github.com/seatmate-io/seatmate/internal/modules/service"
)

type ProfileHandler struct {
	users        service.UserService
	confirmation service.ConfirmationService
}

func NewProfileHandler(users service.UserService, confirmation service.ConfirmationService) *ProfileHandler {
	return &ProfileHandler{users: users, confirmation: confirmation}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid user id", err))
		return
	}
	u, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: u})
}

// Completed lists the caller's completed transactions.
func (h *ProfileHandler) Completed(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	items, err := h.confirmation.ListCompletedForUser(c.Request.Context(), u.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: items})
}
