package handler

import (
	"errors"
	"io"
	"net/http"

	"backoffice/internal/domain"
	"backoffice/internal/middleware"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type RequestHandler struct {
	requests *service.RequestService
	recharge *service.RechargeService
	tags     *repository.CompanyTagRepository
}

func NewRequestHandler(requests *service.RequestService, recharge *service.RechargeService, tags *repository.CompanyTagRepository) *RequestHandler {
	return &RequestHandler{requests: requests, recharge: recharge, tags: tags}
}

// UserActivity handles GET /:section/useractivity/:tab[/:status]. An unknown
// tab shows recharges.
func (h *RequestHandler) UserActivity(c *gin.Context) {
	rt, _ := domain.ParseRequestType(c.Param("tab"))
	list, err := h.requests.List(c.Request.Context(), middleware.GetSession(c), rt, c.Param("status"), listOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func requestType(c *gin.Context) (domain.RequestType, bool) {
	rt, ok := domain.ParseRequestType(c.Param("type"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown request type"})
	}
	return rt, ok
}

// Get handles GET /requests/:type/:id.
func (h *RequestHandler) Get(c *gin.Context) {
	rt, ok := requestType(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	row, err := h.requests.Get(c.Request.Context(), rt, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// History handles GET /requests/:type/:id/history.
func (h *RequestHandler) History(c *gin.Context) {
	rt, ok := requestType(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rows, err := h.requests.History(c.Request.Context(), rt, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// Transition handles POST /requests/:type/:id/transitions/:transition.
func (h *RequestHandler) Transition(c *gin.Context) {
	rt, ok := requestType(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		TargetID       uint            `json:"target_id"`
		ScreenshotURLs []string        `json:"screenshot_urls"`
		Amount         decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	row, err := h.requests.Advance(c.Request.Context(), middleware.GetSession(c), rt, id, c.Param("transition"), service.AdvanceInput{
		TargetID:       req.TargetID,
		ScreenshotURLs: req.ScreenshotURLs,
		Amount:         req.Amount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// AssignCompanyTag handles POST /recharge/:id/company-tag.
func (h *RequestHandler) AssignCompanyTag(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		CompanyTagID uint `json:"company_tag_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	row, err := h.recharge.AssignCompanyTag(c.Request.Context(), middleware.GetSession(c), id, req.CompanyTagID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// AssignRedeem handles POST /recharge/:id/redeem.
func (h *RequestHandler) AssignRedeem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		RedeemID uint `json:"redeem_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	row, err := h.recharge.AssignRedeem(c.Request.Context(), middleware.GetSession(c), id, req.RedeemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// UploadScreenshots handles POST /recharge/:id/screenshots, multipart field "files".
func (h *RequestHandler) UploadScreenshots(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}
	files := form.File["files"]
	atts := make([]service.Attachment, 0, len(files))
	for _, fh := range files {
		atts = append(atts, service.Attachment{
			Filename: fh.Filename,
			Open:     func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	row, err := h.recharge.UploadScreenshots(c.Request.Context(), middleware.GetSession(c), id, atts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// CompanyTags handles GET /company-tags.
func (h *RequestHandler) CompanyTags(c *gin.Context) {
	tags, err := h.tags.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tags})
}

// Workflow handles GET /workflow/:type: the statuses, buckets and
// transitions of a request type.
func (h *RequestHandler) Workflow(c *gin.Context) {
	rt, ok := requestType(c)
	if !ok {
		return
	}
	m := workflow.For(rt)
	c.JSON(http.StatusOK, gin.H{
		"type":        rt,
		"initial":     m.Initial(),
		"statuses":    m.Statuses(),
		"buckets":     m.Buckets(),
		"transitions": m.Transitions(),
	})
}
