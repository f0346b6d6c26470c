package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identityapp "github.com/toms/backend/internal/application/identity"
	travelapp "github.com/toms/backend/internal/application/travel"
)

// SaveDraftResponse pairs the saved order with the per-file results of any
// attachment uploads that rode along with the save.
type SaveDraftResponse struct {
	Order       *travelapp.TravelOrderResponse `json:"order"`
	Attachments []travelapp.AttachmentOutcome  `json:"attachments,omitempty"`
}

// TravelOrderHandler handles travel order HTTP requests
type TravelOrderHandler struct {
	BaseHandler
	orderService *travelapp.TravelOrderService
	authService  *identityapp.AuthService
}

// NewTravelOrderHandler creates a new travel order handler
func NewTravelOrderHandler(orderService *travelapp.TravelOrderService, authService *identityapp.AuthService) *TravelOrderHandler {
	return &TravelOrderHandler{
		orderService: orderService,
		authService:  authService,
	}
}

// Create creates a new draft travel order for the authenticated requester.
func (h *TravelOrderHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req travelapp.CreateTravelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	// The requester's display name is denormalized onto the order so the
	// printed form survives later roster edits.
	info, err := h.authService.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), userID, info.DisplayName, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, order)
}

// List returns the authenticated requester's own travel orders.
func (h *TravelOrderHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter travelapp.TravelOrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	applyFilterDefaults(&filter)

	page, err := h.orderService.ListForRequester(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get returns one of the requester's own travel orders.
func (h *TravelOrderHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid travel order ID format")
		return
	}

	order, err := h.orderService.GetForRequester(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Update saves a full replacement of a draft's editable fields. Attachment
// removals staged during the edit are carried in delete_attachment_ids and
// applied only when this save commits.
func (h *TravelOrderHandler) Update(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid travel order ID format")
		return
	}

	var req travelapp.UpdateTravelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, outcomes, err := h.orderService.UpdateDraft(c.Request.Context(), userID, orderID, req, nil)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, SaveDraftResponse{Order: order, Attachments: outcomes})
}

// AddAttachments accepts a multipart batch of files for a draft. Files go
// under the "files" field and share a single "kind" value. A rejected file
// never blocks the rest of the batch; each file reports its own outcome.
func (h *TravelOrderHandler) AddAttachments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid travel order ID format")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.BadRequest(c, "Invalid multipart form: "+err.Error())
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		h.BadRequest(c, "At least one file is required under the 'files' field")
		return
	}

	kind := c.PostForm("kind")
	uploads := make([]travelapp.AttachmentUpload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			h.BadRequest(c, "Failed to read uploaded file: "+header.Filename)
			return
		}
		defer file.Close()

		uploads = append(uploads, travelapp.AttachmentUpload{
			Kind:        kind,
			FileName:    header.Filename,
			FileSize:    header.Size,
			ContentType: header.Header.Get("Content-Type"),
			Content:     file,
		})
	}

	order, outcomes, err := h.orderService.AddAttachments(c.Request.Context(), userID, orderID, uploads)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, SaveDraftResponse{Order: order, Attachments: outcomes})
}

// Submit validates the draft and routes it into its approval chain.
func (h *TravelOrderHandler) Submit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid travel order ID format")
		return
	}

	order, err := h.orderService.Submit(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Delete removes one of the requester's draft travel orders.
func (h *TravelOrderHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid travel order ID format")
		return
	}

	if err := h.orderService.DeleteDraft(c.Request.Context(), userID, orderID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// DownloadAttachment issues a short-lived download URL for an attachment.
// Access follows the caller's role: requesters reach only their own orders,
// directors only orders routed to them, administrators any order.
func (h *TravelOrderHandler) DownloadAttachment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid travel order ID format")
		return
	}

	attachmentID, err := uuid.Parse(c.Param("attachmentID"))
	if err != nil {
		h.BadRequest(c, "Invalid attachment ID format")
		return
	}

	actor := travelapp.Actor{ID: userID, Role: getRole(c)}
	download, err := h.orderService.DownloadAttachment(c.Request.Context(), actor, orderID, attachmentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, download)
}

// ==================== Director endpoints ====================

// ListPending returns orders waiting on the authenticated director's step.
func (h *TravelOrderHandler) ListPending(c *gin.Context) {
	directorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter travelapp.TravelOrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	applyFilterDefaults(&filter)

	page, err := h.orderService.ListPendingForDirector(c.Request.Context(), directorID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListHistory returns orders the authenticated director has already acted on.
func (h *TravelOrderHandler) ListHistory(c *gin.Context) {
	directorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter travelapp.TravelOrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	applyFilterDefaults(&filter)

	page, err := h.orderService.ListHistoryForDirector(c.Request.Context(), directorID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetForDirector returns an order routed to the authenticated director.
func (h *TravelOrderHandler) GetForDirector(c *gin.Context) {
	directorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid travel order ID format")
		return
	}

	order, err := h.orderService.GetForDirector(c.Request.Context(), directorID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Act records the director's decision on the order's current step.
func (h *TravelOrderHandler) Act(c *gin.Context) {
	directorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid travel order ID format")
		return
	}

	var req travelapp.ActRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.Act(c.Request.Context(), directorID, orderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// ==================== Administrator endpoints ====================

// ListAll returns every travel order for the administrator console.
func (h *TravelOrderHandler) ListAll(c *gin.Context) {
	var filter travelapp.TravelOrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	applyFilterDefaults(&filter)

	page, err := h.orderService.ListAll(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID returns any travel order regardless of ownership or routing.
func (h *TravelOrderHandler) GetByID(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid travel order ID format")
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// StatusCounts reports how many orders sit in each status.
func (h *TravelOrderHandler) StatusCounts(c *gin.Context) {
	counts, err := h.orderService.StatusCounts(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, counts)
}

func applyFilterDefaults(filter *travelapp.TravelOrderListFilter) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
}
