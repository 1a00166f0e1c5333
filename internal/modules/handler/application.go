package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/serializer"
	"github.com/seatmate-io/seatmate/internal/modules/service"
)

type ApplicationHandler struct {
	engagement service.EngagementService
}

func NewApplicationHandler(engagement service.EngagementService) *ApplicationHandler {
	return &ApplicationHandler{engagement: engagement}
}

type UpdateApplicationReq struct {
	Status string `json:"status" binding:"required,oneof=accepted rejected cancelled"`
}

// Update is the PATCH path: host sets accepted/rejected, guest sets
// cancelled.
func (h *ApplicationHandler) Update(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid application id", err))
		return
	}
	req := UpdateApplicationReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	app, err := h.engagement.UpdateApplicationStatus(c.Request.Context(), u, id, req.Status)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: app})
}

// Delete withdraws the caller's own pending application.
func (h *ApplicationHandler) Delete(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid application id", err))
		return
	}

	if err := h.engagement.CancelApplication(c.Request.Context(), u.ID, id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "application withdrawn"})
}

type ListApplicationsReq struct {
	ListingID string `form:"listing_id" binding:"required,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=pending accepted rejected cancelled"`
}

func (h *ApplicationHandler) List(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	req := ListApplicationsReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	listingID, _ := uuid.Parse(req.ListingID)

	items, err := h.engagement.ListApplications(c.Request.Context(), u.ID, listingID, req.Status)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: items})
}
