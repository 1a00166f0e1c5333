package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/seatmate-io/seatmate/internal/modules/serializer"
	"github.com/seatmate-io/seatmate/internal/modules/service"
	"gorm.io/datatypes"
)

type ListingHandler struct {
	svc       service.ListingService
	selection service.SelectionService
}

func NewListingHandler(svc service.ListingService, selection service.SelectionService) *ListingHandler {
	return &ListingHandler{svc: svc, selection: selection}
}

type CreateListingReq struct {
	Title         string                 `json:"title" binding:"required,min=1,max=200"`
	EventName     string                 `json:"event_name" binding:"required,min=1,max=200"`
	EventStartsAt time.Time              `json:"event_starts_at" binding:"required"`
	Venue         string                 `json:"venue"`
	TotalSlots    int                    `json:"total_slots" binding:"omitempty,min=1,max=20"`
	Details       map[string]interface{} `json:"details"`
}

func (h *ListingHandler) Create(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	req := CreateListingReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	l := &model.Listing{
		Title:         req.Title,
		EventName:     req.EventName,
		EventStartsAt: req.EventStartsAt,
		Venue:         req.Venue,
		TotalSlots:    req.TotalSlots,
		Details:       datatypes.JSONMap(req.Details),
	}
	if err := h.svc.Create(c.Request.Context(), u, l); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: l})
}

func (h *ListingHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid listing id", err))
		return
	}
	l, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: l})
}

type ListListingsReq struct {
	Status   string `form:"status" binding:"omitempty,oneof=open matched closed"`
	HostID   string `form:"host_id" binding:"omitempty,uuid"`
	Limit    int    `form:"limit,default=20" binding:"required,min=1,max=100"`
	Cursor   string `form:"cursor"`
	TimeDesc bool   `form:"time_desc,default=true"`
}

func (h *ListingHandler) List(c *gin.Context) {
	req := ListListingsReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	var hostID uuid.UUID
	if req.HostID != "" {
		hostID, _ = uuid.Parse(req.HostID)
	}

	out, err := h.svc.List(c.Request.Context(), service.ListListingsInput{
		Status:   req.Status,
		HostID:   hostID,
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

type UpdateListingReq struct {
	Title            *string                `json:"title" binding:"omitempty,min=1,max=200"`
	EventName        *string                `json:"event_name" binding:"omitempty,min=1,max=200"`
	EventStartsAt    *time.Time             `json:"event_starts_at"`
	Venue            *string                `json:"venue"`
	Details          map[string]interface{} `json:"details"`
	RemoveApplicants bool                   `json:"remove_applicants"`
}

func (h *ListingHandler) Update(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid listing id", err))
		return
	}
	req := UpdateListingReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.EventName != nil {
		updates["event_name"] = *req.EventName
	}
	if req.EventStartsAt != nil {
		updates["event_starts_at"] = *req.EventStartsAt
	}
	if req.Venue != nil {
		updates["venue"] = *req.Venue
	}
	if req.Details != nil {
		updates["details"] = datatypes.JSONMap(req.Details)
	}
	if len(updates) == 0 && !req.RemoveApplicants {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("no fields to update", nil))
		return
	}

	l, err := h.svc.Update(c.Request.Context(), u.ID, id, updates, req.RemoveApplicants)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: l})
}

func (h *ListingHandler) Close(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid listing id", err))
		return
	}

	if err := h.svc.Close(c.Request.Context(), u.ID, id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "listing closed"})
}

func (h *ListingHandler) Delete(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid listing id", err))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), u, id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "listing deleted"})
}

type SelectApplicantReq struct {
	ApplicationID string `json:"application_id" binding:"required,uuid"`
}

// Select is the application-track accept: one winner, everyone else rejected,
// listing leaves the market.
func (h *ListingHandler) Select(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(""))
		return
	}
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid listing id", err))
		return
	}
	req := SelectApplicantReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	applicationID, _ := uuid.Parse(req.ApplicationID)

	out, err := h.selection.Select(c.Request.Context(), u.ID, service.SelectInput{
		ListingID:     listingID,
		ApplicationID: applicationID,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}
