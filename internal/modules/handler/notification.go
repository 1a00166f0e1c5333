package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/serializer"
	"github.com/seatmate-io/seatmate/internal/modules/service"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

type ListNotificationsReq struct {
	UnreadOnly bool   `form:"unread_only,default=false"`
	Limit      int    `form:"limit,default=20" binding:"required,min=1,max=100"`
	Cursor     string `form:"cursor"`
	TimeDesc   bool   `form:"time_desc,default=true"`
}

func (h *NotificationHandler) List(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	req := ListNotificationsReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	out, err := h.svc.List(c.Request.Context(), service.ListNotificationsInput{
		UserID:     u.ID,
		UnreadOnly: req.UnreadOnly,
		Limit:      req.Limit,
		Cursor:     req.Cursor,
		TimeDesc:   req.TimeDesc,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid notification id", err))
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), u.ID, id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "marked read"})
}
