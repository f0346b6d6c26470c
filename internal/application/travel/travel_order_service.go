package travel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toms/backend/internal/domain/shared"
	"github.com/toms/backend/internal/domain/shared/listing"
	"github.com/toms/backend/internal/domain/shared/valueobject"
	"github.com/toms/backend/internal/domain/travel"
)

// ObjectStorageService defines the interface for object storage operations.
// Implemented by the infrastructure layer (S3 or compatible).
type ObjectStorageService interface {
	// PutObject uploads an object to storage
	PutObject(ctx context.Context, storageKey, contentType string, size int64, content io.Reader) error

	// GenerateDownloadURL generates a presigned URL for downloading a file
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// ApprovalRouting resolves the approval chain for an order at submission.
// Which directors review an order, and whether one step or two, is an
// operational rule configured outside the order itself.
type ApprovalRouting interface {
	Resolve(ctx context.Context, order *travel.TravelOrder) ([]uuid.UUID, error)
}

// TravelOrderServiceConfig holds configuration for the travel order service
type TravelOrderServiceConfig struct {
	DownloadURLExpiry time.Duration
	MaxAttachments    int
}

// DefaultTravelOrderServiceConfig returns the default configuration
func DefaultTravelOrderServiceConfig() TravelOrderServiceConfig {
	return TravelOrderServiceConfig{
		DownloadURLExpiry: 1 * time.Hour,
		MaxAttachments:    20,
	}
}

// TravelOrderService handles travel order business operations
type TravelOrderService struct {
	orderRepo travel.TravelOrderRepository
	storage   ObjectStorageService
	routing   ApprovalRouting
	config    TravelOrderServiceConfig
	logger    *zap.Logger
}

// NewTravelOrderService creates a new TravelOrderService
func NewTravelOrderService(
	orderRepo travel.TravelOrderRepository,
	storage ObjectStorageService,
	routing ApprovalRouting,
	logger *zap.Logger,
) *TravelOrderService {
	return &TravelOrderService{
		orderRepo: orderRepo,
		storage:   storage,
		routing:   routing,
		config:    DefaultTravelOrderServiceConfig(),
		logger:    logger,
	}
}

// SetConfig sets the service configuration
func (s *TravelOrderService) SetConfig(config TravelOrderServiceConfig) {
	s.config = config
}

// Create creates a new draft travel order for the requester
func (s *TravelOrderService) Create(ctx context.Context, requesterID uuid.UUID, requesterName string, req CreateTravelOrderRequest) (*TravelOrderResponse, error) {
	orderNumber, err := s.orderRepo.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	order, err := travel.NewTravelOrder(orderNumber, requesterID, requesterName)
	if err != nil {
		return nil, err
	}

	if err := order.UpdateDraft(draftFields(req)); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	response := ToTravelOrderResponse(order)
	return &response, nil
}

// GetForRequester retrieves an order owned by the given requester
func (s *TravelOrderService) GetForRequester(ctx context.Context, requesterID, orderID uuid.UUID) (*TravelOrderResponse, error) {
	order, err := s.findOwnedOrder(ctx, requesterID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToTravelOrderResponse(order)
	return &response, nil
}

// GetForDirector retrieves an order visible to the given director. Directors
// see only orders whose approval chain binds them.
func (s *TravelOrderService) GetForDirector(ctx context.Context, directorID, orderID uuid.UUID) (*TravelOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.StepForDirector(directorID) == nil {
		return nil, shared.NewDomainError("NOT_AUTHORIZED", "Travel order is not routed to this director")
	}
	response := ToTravelOrderResponse(order)
	return &response, nil
}

// GetByID retrieves an order without an ownership check (administrators)
func (s *TravelOrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*TravelOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToTravelOrderResponse(order)
	return &response, nil
}

// UpdateDraft replaces the draft's editable fields, applies staged attachment
// removals, and stores any newly uploaded files. Removals take effect only as
// part of this save; uploads are processed per file, so one oversized file
// does not block the rest of the batch.
func (s *TravelOrderService) UpdateDraft(ctx context.Context, requesterID, orderID uuid.UUID, req UpdateTravelOrderRequest, uploads []AttachmentUpload) (*TravelOrderResponse, []AttachmentOutcome, error) {
	order, err := s.findOwnedOrder(ctx, requesterID, orderID)
	if err != nil {
		return nil, nil, err
	}
	if !order.CanModify() {
		return nil, nil, shared.NewDomainError("NOT_EDITABLE", "Only draft travel orders can be edited")
	}

	if err := order.UpdateDraft(draftFields(CreateTravelOrderRequest{
		TravelPurpose:   req.TravelPurpose,
		Destination:     req.Destination,
		OfficialStation: req.OfficialStation,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Objectives:      req.Objectives,
		PerDiemExpenses: req.PerDiemExpenses,
		PerDiemNote:     req.PerDiemNote,
		AssistantsNote:  req.AssistantsNote,
		Appropriation:   req.Appropriation,
		Remarks:         req.Remarks,
	})); err != nil {
		return nil, nil, err
	}

	for _, attachmentID := range req.DeleteAttachmentIDs {
		if err := order.StageAttachmentRemoval(attachmentID); err != nil {
			return nil, nil, err
		}
	}

	outcomes := s.storeUploads(ctx, order, uploads)

	removed := order.CommitAttachmentRemovals()

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, nil, err
	}

	// Blob deletion happens after the save commits; a failure leaves an
	// orphaned object, never a dangling attachment record.
	for _, att := range removed {
		if err := s.storage.DeleteObject(ctx, att.StorageKey); err != nil {
			s.logger.Warn("failed to delete attachment object",
				zap.String("storage_key", att.StorageKey),
				zap.Error(err))
		}
	}

	response := ToTravelOrderResponse(order)
	return &response, outcomes, nil
}

// AddAttachments stores uploaded files on a draft order
func (s *TravelOrderService) AddAttachments(ctx context.Context, requesterID, orderID uuid.UUID, uploads []AttachmentUpload) (*TravelOrderResponse, []AttachmentOutcome, error) {
	order, err := s.findOwnedOrder(ctx, requesterID, orderID)
	if err != nil {
		return nil, nil, err
	}
	if !order.CanModify() {
		return nil, nil, shared.NewDomainError("NOT_EDITABLE", "Attachments can only be added to draft travel orders")
	}

	outcomes := s.storeUploads(ctx, order, uploads)

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, nil, err
	}

	response := ToTravelOrderResponse(order)
	return &response, outcomes, nil
}

// Submit validates the draft, resolves the approval routing, and moves the
// order to pending
func (s *TravelOrderService) Submit(ctx context.Context, requesterID, orderID uuid.UUID) (*TravelOrderResponse, error) {
	order, err := s.findOwnedOrder(ctx, requesterID, orderID)
	if err != nil {
		return nil, err
	}

	routing, err := s.routing.Resolve(ctx, order)
	if err != nil {
		return nil, err
	}

	if err := order.Submit(routing); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("travel order submitted",
		zap.String("order_number", order.OrderNumber),
		zap.Int("steps", len(order.Steps)))

	response := ToTravelOrderResponse(order)
	return &response, nil
}

// Act applies a director's decision to the current approval step
func (s *TravelOrderService) Act(ctx context.Context, directorID, orderID uuid.UUID, req ActRequest) (*TravelOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.Act(directorID, travel.Decision(req.Decision), req.Remarks); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("travel order acted on",
		zap.String("order_number", order.OrderNumber),
		zap.String("decision", req.Decision),
		zap.String("status", order.Status.String()))

	response := ToTravelOrderResponse(order)
	return &response, nil
}

// DeleteDraft removes a draft order and its stored attachments. Submitted
// orders are part of the approval record and are never deleted.
func (s *TravelOrderService) DeleteDraft(ctx context.Context, requesterID, orderID uuid.UUID) error {
	order, err := s.findOwnedOrder(ctx, requesterID, orderID)
	if err != nil {
		return err
	}
	if !order.IsDraft() {
		return shared.NewDomainError("NOT_EDITABLE", "Only draft travel orders can be deleted")
	}

	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		return err
	}

	for _, att := range order.Attachments {
		if err := s.storage.DeleteObject(ctx, att.StorageKey); err != nil {
			s.logger.Warn("failed to delete attachment object",
				zap.String("storage_key", att.StorageKey),
				zap.Error(err))
		}
	}

	return nil
}

// ListForRequester retrieves the requester's own orders. The set is bounded
// per requester, so search, date-range narrowing, and pagination run through
// the shared listing contract instead of SQL.
func (s *TravelOrderService) ListForRequester(ctx context.Context, requesterID uuid.UUID, filter TravelOrderListFilter) (*ListPage, error) {
	domainFilter := unpaginatedFilter(filter)
	if filter.Status != nil {
		domainFilter.Filters["status"] = *filter.Status
	}

	orders, err := s.orderRepo.FindByRequester(ctx, requesterID, domainFilter)
	if err != nil {
		return nil, err
	}
	return listPage(orders, filter), nil
}

// ListPendingForDirector retrieves orders awaiting the director's decision:
// orders whose current step is bound to them
func (s *TravelOrderService) ListPendingForDirector(ctx context.Context, directorID uuid.UUID, filter TravelOrderListFilter) (*ListPage, error) {
	orders, err := s.orderRepo.FindPendingForDirector(ctx, directorID, unpaginatedFilter(filter))
	if err != nil {
		return nil, err
	}
	return listPage(orders, filter), nil
}

// ListHistoryForDirector retrieves orders the director has already acted on,
// optionally narrowed to a single status. The director scoping lives in the
// join inside FindHistoryForDirector; the total is derived from that scoped
// set, never from an unscoped count.
func (s *TravelOrderService) ListHistoryForDirector(ctx context.Context, directorID uuid.UUID, filter TravelOrderListFilter) (*ListPage, error) {
	var status *travel.OrderStatus
	if filter.Status != nil {
		st := travel.OrderStatus(*filter.Status)
		if !st.IsValid() {
			return nil, shared.NewValidationError("status", "Unknown travel order status")
		}
		status = &st
	}

	orders, err := s.orderRepo.FindHistoryForDirector(ctx, directorID, status, unpaginatedFilter(filter))
	if err != nil {
		return nil, err
	}
	return listPage(orders, filter), nil
}

// ListAll retrieves all orders for the administrator console. Unlike the
// per-actor lists, the system-wide set is unbounded, so this one stays on
// SQL offset pagination with a matching SQL count.
func (s *TravelOrderService) ListAll(ctx context.Context, filter TravelOrderListFilter) (*ListPage, error) {
	domainFilter := s.buildFilter(filter)

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	return &ListPage{
		Items:    ToTravelOrderListItemResponses(orders),
		Total:    total,
		Page:     domainFilter.Page,
		PageSize: domainFilter.PageSize,
	}, nil
}

// unpaginatedFilter keeps only the ordering; the repository returns the full
// actor-scoped set and listPage does the narrowing and paging
func unpaginatedFilter(filter TravelOrderListFilter) shared.Filter {
	return shared.Filter{
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  map[string]interface{}{},
	}
}

// listPage runs an actor-scoped set through the shared listing contract.
// The returned page number is the clamped one, so "showing X-Y of Z" and
// the page echo always agree with the items actually returned.
func listPage(orders []travel.TravelOrder, filter TravelOrderListFilter) *ListPage {
	opts := listing.Options{
		Search:   filter.Search,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	if filter.StartDate != nil && filter.EndDate != nil {
		if r, err := valueobject.NewDateRange(*filter.StartDate, *filter.EndDate); err == nil {
			opts.Range = &r
		}
	}

	page := listing.Query(orders, opts,
		func(o travel.TravelOrder) []string {
			return []string{o.OrderNumber, o.RequesterName, o.Destination, o.TravelPurpose}
		},
		func(o travel.TravelOrder) valueobject.DateRange {
			return o.TravelPeriod()
		},
	)

	return &ListPage{
		Items:    ToTravelOrderListItemResponses(page.Items),
		Total:    int64(page.Total),
		Page:     page.Page,
		PageSize: page.PageSize,
	}
}

// StatusCounts reports how many orders sit in each status
func (s *TravelOrderService) StatusCounts(ctx context.Context) (*StatusCountsResponse, error) {
	counts, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &StatusCountsResponse{
		Draft:       counts[travel.OrderStatusDraft],
		Pending:     counts[travel.OrderStatusPending],
		Recommended: counts[travel.OrderStatusRecommended],
		Approved:    counts[travel.OrderStatusApproved],
		Rejected:    counts[travel.OrderStatusRejected],
	}, nil
}

// Actor identifies who is requesting a download and in what capacity
type Actor struct {
	ID   uuid.UUID
	Role string
}

// DownloadAttachment authorizes the actor against the order and returns a
// presigned download URL. Requesters reach only their own orders, directors
// only orders routed to them; administrators reach any order.
func (s *TravelOrderService) DownloadAttachment(ctx context.Context, actor Actor, orderID, attachmentID uuid.UUID) (*DownloadResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case "personnel":
		if !order.IsOwnedBy(actor.ID) {
			return nil, shared.NewDomainError("NOT_AUTHORIZED", "Travel order belongs to another requester")
		}
	case "director":
		if order.StepForDirector(actor.ID) == nil {
			return nil, shared.NewDomainError("NOT_AUTHORIZED", "Travel order is not routed to this director")
		}
	case "ict-admin":
		// full visibility
	default:
		return nil, shared.NewDomainError("NOT_AUTHORIZED", "Unknown role")
	}

	att := order.GetAttachment(attachmentID)
	if att == nil {
		return nil, shared.ErrNotFound
	}

	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, att.StorageKey, s.config.DownloadURLExpiry)
	if err != nil {
		return nil, shared.NewDomainError("DOWNLOAD_URL_FAILED", "Failed to generate download URL")
	}

	return &DownloadResponse{
		AttachmentID: att.ID,
		FileName:     att.FileName,
		URL:          url,
		ExpiresAt:    expiresAt,
	}, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *TravelOrderService) findOwnedOrder(ctx context.Context, requesterID, orderID uuid.UUID) (*travel.TravelOrder, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOwnedBy(requesterID) {
		return nil, shared.NewDomainError("NOT_AUTHORIZED", "Travel order belongs to another requester")
	}
	return order, nil
}

// storeUploads validates, uploads, and attaches each incoming file. Each file
// succeeds or fails on its own; outcomes preserve the input order.
func (s *TravelOrderService) storeUploads(ctx context.Context, order *travel.TravelOrder, uploads []AttachmentUpload) []AttachmentOutcome {
	outcomes := make([]AttachmentOutcome, 0, len(uploads))
	attached := len(order.Attachments)

	for _, upload := range uploads {
		outcome := AttachmentOutcome{FileName: upload.FileName}

		if s.config.MaxAttachments > 0 && attached >= s.config.MaxAttachments {
			outcome.ErrorCode = "ATTACHMENT_LIMIT_EXCEEDED"
			outcome.ErrorMessage = fmt.Sprintf("Maximum %d attachments per travel order allowed", s.config.MaxAttachments)
			outcomes = append(outcomes, outcome)
			continue
		}

		storageKey := s.generateStorageKey(order.ID, upload.FileName)
		att, err := travel.NewAttachment(
			order.ID,
			travel.AttachmentKind(upload.Kind),
			upload.FileName,
			upload.FileSize,
			upload.ContentType,
			storageKey,
		)
		if err != nil {
			fillOutcomeError(&outcome, err)
			outcomes = append(outcomes, outcome)
			continue
		}

		if err := s.storage.PutObject(ctx, storageKey, upload.ContentType, upload.FileSize, upload.Content); err != nil {
			s.logger.Warn("failed to store attachment object",
				zap.String("storage_key", storageKey),
				zap.Error(err))
			outcome.ErrorCode = "STORAGE_ERROR"
			outcome.ErrorMessage = "Failed to store the uploaded file"
			outcomes = append(outcomes, outcome)
			continue
		}

		if err := order.AddAttachment(att); err != nil {
			_ = s.storage.DeleteObject(ctx, storageKey)
			fillOutcomeError(&outcome, err)
			outcomes = append(outcomes, outcome)
			continue
		}

		attached++
		outcome.Accepted = true
		outcome.AttachmentID = &att.ID
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func (s *TravelOrderService) generateStorageKey(orderID uuid.UUID, fileName string) string {
	ext := filepath.Ext(fileName)
	return fmt.Sprintf("travel-orders/%s/attachments/%s%s", orderID.String(), uuid.New().String(), ext)
}

func fillOutcomeError(outcome *AttachmentOutcome, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		outcome.ErrorCode = domainErr.Code
		outcome.ErrorMessage = domainErr.Message
		return
	}
	outcome.ErrorCode = "UPLOAD_FAILED"
	outcome.ErrorMessage = err.Error()
}

func (s *TravelOrderService) buildFilter(filter TravelOrderListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 10
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = *filter.Status
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}
	return domainFilter
}

func draftFields(req CreateTravelOrderRequest) travel.DraftFields {
	fields := travel.DraftFields{
		TravelPurpose:   req.TravelPurpose,
		Destination:     req.Destination,
		OfficialStation: req.OfficialStation,
		Objectives:      req.Objectives,
		PerDiemExpenses: req.PerDiemExpenses,
		PerDiemNote:     req.PerDiemNote,
		AssistantsNote:  req.AssistantsNote,
		Appropriation:   req.Appropriation,
		Remarks:         req.Remarks,
	}
	if req.StartDate != nil {
		fields.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		fields.EndDate = *req.EndDate
	}
	return fields
}
