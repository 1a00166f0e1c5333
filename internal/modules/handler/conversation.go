package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/serializer"
	"github.com/seatmate-io/seatmate/internal/modules/service"
)

type ConversationHandler struct {
	engagement   service.EngagementService
	confirmation service.ConfirmationService
}

func NewConversationHandler(engagement service.EngagementService, confirmation service.ConfirmationService) *ConversationHandler {
	return &ConversationHandler{engagement: engagement, confirmation: confirmation}
}

type InquireReq struct {
	ListingID string `json:"listing_id" binding:"required,uuid"`
	Message   string `json:"message" binding:"omitempty,max=2000"`
}

// Inquire is idempotent: a repeat call returns the existing conversation.
func (h *ConversationHandler) Inquire(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	req := InquireReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	listingID, _ := uuid.Parse(req.ListingID)

	out, err := h.engagement.Inquire(c.Request.Context(), service.InquireInput{
		GuestID:   u.ID,
		ListingID: listingID,
		Message:   req.Message,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

type ApplyReq struct {
	Message string `json:"message" binding:"omitempty,max=2000"`
}

func (h *ConversationHandler) Apply(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid conversation id", err))
		return
	}
	req := ApplyReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	conv, err := h.engagement.Apply(c.Request.Context(), u, id, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrVerificationRequired) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":        "EMAIL_VERIFICATION_REQUIRED",
				"currentLevel": u.VerificationLevel,
			})
			return
		}
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: gin.H{
		"success":           true,
		"conversation_type": conv.Type,
	}})
}

func (h *ConversationHandler) Accept(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid conversation id", err))
		return
	}

	conv, err := h.engagement.Accept(c.Request.Context(), u.ID, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: gin.H{
		"success":           true,
		"conversation_type": conv.Type,
	}})
}

type ConfirmReq struct {
	Action string `json:"action" binding:"required,oneof=confirm cancel"`
}

func (h *ConversationHandler) Confirm(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid conversation id", err))
		return
	}
	req := ConfirmReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	out, err := h.confirmation.Confirm(c.Request.Context(), u.ID, id, req.Action)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: gin.H{
		"success":      true,
		"conversation": out,
	}})
}

func (h *ConversationHandler) ConfirmStatus(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid conversation id", err))
		return
	}

	out, err := h.confirmation.Status(c.Request.Context(), u.ID, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

type ListConversationsReq struct {
	Limit    int    `form:"limit,default=20" binding:"required,min=1,max=100"`
	Cursor   string `form:"cursor"`
	TimeDesc bool   `form:"time_desc,default=true"`
}

func (h *ConversationHandler) List(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	req := ListConversationsReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	out, err := h.engagement.ListConversations(c.Request.Context(), service.ListConversationsInput{
		UserID:   u.ID,
		Limit:    req.Limit,
		Cursor:   req.Cursor,
		TimeDesc: req.TimeDesc,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

func (h *ConversationHandler) Get(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid conversation id", err))
		return
	}

	conv, err := h.engagement.GetConversation(c.Request.Context(), u.ID, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: conv})
}
