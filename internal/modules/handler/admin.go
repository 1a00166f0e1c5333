package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/serializer"
	"github.com/seatmate-io/seatmate/internal/modules/service"
)

type AdminHandler struct {
	moderation service.ModerationService
}

func NewAdminHandler(moderation service.ModerationService) *AdminHandler {
	return &AdminHandler{moderation: moderation}
}

type CreateReportReq struct {
	Kind            string  `json:"kind" binding:"required,oneof=user_report bug"`
	Body            string  `json:"body" binding:"required,min=1,max=5000"`
	TargetUserID    *string `json:"target_user_id" binding:"omitempty,uuid"`
	TargetListingID *string `json:"target_listing_id" binding:"omitempty,uuid"`
}

// CreateReport is available to every authenticated user, not just admins.
func (h *AdminHandler) CreateReport(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	req := CreateReportReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	in := service.CreateReportInput{Kind: req.Kind, Body: req.Body}
	if req.TargetUserID != nil {
		id, _ := uuid.Parse(*req.TargetUserID)
		in.TargetUserID = &id
	}
	if req.TargetListingID != nil {
		id, _ := uuid.Parse(*req.TargetListingID)
		in.TargetListingID = &id
	}

	rep, err := h.moderation.CreateReport(c.Request.Context(), u.ID, in)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: rep})
}

type ListReportsReq struct {
	Status   string `form:"status" binding:"omitempty,oneof=open resolved"`
	Kind     string `form:"kind" binding:"omitempty,oneof=user_report bug"`
	Limit    int    `form:"limit,default=20" binding:"required,min=1,max=100"`
	Cursor   string `form:"cursor"`
	TimeDesc bool   `form:"time_desc,default=true"`
}

func (h *AdminHandler) ListReports(c *gin.Context) {
	req := ListReportsReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	out, err := h.moderation.ListReports(c.Request.Context(), service.ListReportsInput{
		Status:   req.Status,
		Kind:     req.Kind,
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

func (h *AdminHandler) ResolveReport(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid report id", err))
		return
	}

	if err := h.moderation.ResolveReport(c.Request.Context(), u, id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "report resolved"})
}

type BlacklistReq struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Reason string `json:"reason" binding:"omitempty,max=1000"`
}

func (h *AdminHandler) BlacklistAdd(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	req := BlacklistReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	userID, _ := uuid.Parse(req.UserID)

	if err := h.moderation.BlacklistUser(c.Request.Context(), u, userID, req.Reason); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Msg: "user blacklisted"})
}

func (h *AdminHandler) BlacklistRemove(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid user id", err))
		return
	}

	if err := h.moderation.UnblacklistUser(c.Request.Context(), u, userID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "user removed from blacklist"})
}

func (h *AdminHandler) BlacklistList(c *gin.Context) {
	items, err := h.moderation.ListBlacklist(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: items})
}

type SuspendReq struct {
	Suspended bool `json:"suspended"`
}

func (h *AdminHandler) SuspendUser(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid user id", err))
		return
	}
	req := SuspendReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	if err := h.moderation.SuspendUser(c.Request.Context(), u, userID, req.Suspended); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "user updated"})
}

type SetVerificationReq struct {
	Level string `json:"level" binding:"required,oneof=unverified applicant host"`
}

func (h *AdminHandler) SetVerification(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid user id", err))
		return
	}
	req := SetVerificationReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	if err := h.moderation.SetVerificationLevel(c.Request.Context(), u, userID, req.Level); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "verification level updated"})
}

type ListUsersReq struct {
	Limit    int    `form:"limit,default=20" binding:"required,min=1,max=100"`
	Cursor   string `form:"cursor"`
	TimeDesc bool   `form:"time_desc,default=true"`
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	req := ListUsersReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	out, err := h.moderation.ListUsers(c.Request.Context(), service.ListUsersInput{
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

type ListAdminLogsReq struct {
	Limit    int    `form:"limit,default=20" binding:"required,min=1,max=100"`
	Cursor   string `form:"cursor"`
	TimeDesc bool   `form:"time_desc,default=true"`
}

func (h *AdminHandler) ListLogs(c *gin.Context) {
	req := ListAdminLogsReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	out, err := h.moderation.ListAdminLogs(c.Request.Context(), service.ListAdminLogsInput{
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
