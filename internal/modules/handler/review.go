package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/serializer"
	"github.com/seatmate-io/seatmate/internal/modules/service"
)

type ReviewHandler struct {
	svc service.ReviewService
}

func NewReviewHandler(svc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

type CreateReviewReq struct {
	ConversationID string  `json:"conversation_id" binding:"required,uuid"`
	Rating         int     `json:"rating" binding:"required,min=1,max=5"`
	Comment        *string `json:"comment" binding:"omitempty,max=2000"`
}

func (h *ReviewHandler) Create(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	req := CreateReviewReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	conversationID, _ := uuid.Parse(req.ConversationID)

	rev, err := h.svc.Create(c.Request.Context(), u.ID, service.CreateReviewInput{
		ConversationID: conversationID,
		Rating:         req.Rating,
		Comment:        req.Comment,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: rev})
}

type ListReviewsReq struct {
	UserID   string `form:"user_id" binding:"required,uuid"`
	Limit    int    `form:"limit,default=20" binding:"required,min=1,max=100"`
	Cursor   string `form:"cursor"`
	TimeDesc bool   `form:"time_desc,default=true"`
}

func (h *ReviewHandler) List(c *gin.Context) {
	req := ListReviewsReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	revieweeID, _ := uuid.Parse(req.UserID)

	out, err := h.svc.ListForUser(c.Request.Context(), service.ListReviewsInput{
		RevieweeID: revieweeID,
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

func (h *ReviewHandler) Pending(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}

	items, err := h.svc.PendingReviews(c.Request.Context(), u.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: items})
}

// AutoComplete is the cron-gated sweep trigger.
func (h *ReviewHandler) AutoComplete(c *gin.Context) {
	out, err := h.svc.AutoComplete(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}
