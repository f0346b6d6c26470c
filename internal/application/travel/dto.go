package travel

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/toms/backend/internal/domain/travel"
)

// ==================== Travel Order DTOs ====================

// CreateTravelOrderRequest represents a request to create a draft travel order
type CreateTravelOrderRequest struct {
	TravelPurpose   string          `json:"travel_purpose" binding:"omitempty,max=500"`
	Destination     string          `json:"destination" binding:"omitempty,max=200"`
	OfficialStation string          `json:"official_station" binding:"omitempty,max=200"`
	StartDate       *time.Time      `json:"start_date"`
	EndDate         *time.Time      `json:"end_date"`
	Objectives      string          `json:"objectives" binding:"omitempty,max=2000"`
	PerDiemExpenses decimal.Decimal `json:"per_diem_expenses"`
	PerDiemNote     string          `json:"per_diem_note" binding:"omitempty,max=500"`
	AssistantsNote  string          `json:"assistants_note" binding:"omitempty,max=500"`
	Appropriation   string          `json:"appropriation" binding:"omitempty,max=200"`
	Remarks         string          `json:"remarks" binding:"omitempty,max=1000"`
}

// UpdateTravelOrderRequest carries a full replacement of the draft's editable
// fields plus the attachment removals staged during the edit. Removals are
// applied only when this save commits.
type UpdateTravelOrderRequest struct {
	TravelPurpose       string          `json:"travel_purpose" binding:"omitempty,max=500"`
	Destination         string          `json:"destination" binding:"omitempty,max=200"`
	OfficialStation     string          `json:"official_station" binding:"omitempty,max=200"`
	StartDate           *time.Time      `json:"start_date"`
	EndDate             *time.Time      `json:"end_date"`
	Objectives          string          `json:"objectives" binding:"omitempty,max=2000"`
	PerDiemExpenses     decimal.Decimal `json:"per_diem_expenses"`
	PerDiemNote         string          `json:"per_diem_note" binding:"omitempty,max=500"`
	AssistantsNote      string          `json:"assistants_note" binding:"omitempty,max=500"`
	Appropriation       string          `json:"appropriation" binding:"omitempty,max=200"`
	Remarks             string          `json:"remarks" binding:"omitempty,max=1000"`
	DeleteAttachmentIDs []uuid.UUID     `json:"delete_attachment_ids"`
}

// ActRequest represents a director's decision on the current approval step
type ActRequest struct {
	Decision string `json:"decision" binding:"required,oneof=recommend approve reject"`
	Remarks  string `json:"remarks" binding:"omitempty,max=1000"`
}

// TravelOrderListFilter represents filter options for travel order lists
type TravelOrderListFilter struct {
	Search    string     `form:"search"`
	Status    *string    `form:"status"`
	StartDate *time.Time `form:"start_date"`
	EndDate   *time.Time `form:"end_date"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// AttachmentUpload describes one incoming file in a multipart save
type AttachmentUpload struct {
	Kind        string
	FileName    string
	FileSize    int64
	ContentType string
	Content     io.Reader
}

// AttachmentOutcome is the per-file result of a batch upload: a failed file
// never blocks the rest of the batch.
type AttachmentOutcome struct {
	FileName     string     `json:"file_name"`
	AttachmentID *uuid.UUID `json:"attachment_id,omitempty"`
	Accepted     bool       `json:"accepted"`
	ErrorCode    string     `json:"error_code,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// ==================== Responses ====================

// ApprovalStepResponse represents one approval step in API responses
type ApprovalStepResponse struct {
	ID         uuid.UUID  `json:"id"`
	DirectorID uuid.UUID  `json:"director_id"`
	StepOrder  int        `json:"step_order"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	Remarks    string     `json:"remarks,omitempty"`
	ActedAt    *time.Time `json:"acted_at,omitempty"`
}

// AttachmentResponse represents an attachment in API responses
type AttachmentResponse struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// TravelOrderResponse represents a travel order in API responses
type TravelOrderResponse struct {
	ID              uuid.UUID              `json:"id"`
	OrderNumber     string                 `json:"order_number"`
	RequesterID     uuid.UUID              `json:"requester_id"`
	RequesterName   string                 `json:"requester_name"`
	TravelPurpose   string                 `json:"travel_purpose"`
	Destination     string                 `json:"destination"`
	OfficialStation string                 `json:"official_station"`
	StartDate       *time.Time             `json:"start_date,omitempty"`
	EndDate         *time.Time             `json:"end_date,omitempty"`
	Objectives      string                 `json:"objectives"`
	PerDiemExpenses decimal.Decimal        `json:"per_diem_expenses"`
	PerDiemNote     string                 `json:"per_diem_note,omitempty"`
	AssistantsNote  string                 `json:"assistants_note,omitempty"`
	Appropriation   string                 `json:"appropriation"`
	Remarks         string                 `json:"remarks,omitempty"`
	Status          string                 `json:"status"`
	Steps           []ApprovalStepResponse `json:"steps"`
	Attachments     []AttachmentResponse   `json:"attachments"`
	SubmittedAt     *time.Time             `json:"submitted_at,omitempty"`
	RecommendedAt   *time.Time             `json:"recommended_at,omitempty"`
	ApprovedAt      *time.Time             `json:"approved_at,omitempty"`
	RejectedAt      *time.Time             `json:"rejected_at,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// TravelOrderListItemResponse is the slimmer shape used by list surfaces
type TravelOrderListItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"order_number"`
	RequesterName   string          `json:"requester_name"`
	TravelPurpose   string          `json:"travel_purpose"`
	Destination     string          `json:"destination"`
	StartDate       *time.Time      `json:"start_date,omitempty"`
	EndDate         *time.Time      `json:"end_date,omitempty"`
	PerDiemExpenses decimal.Decimal `json:"per_diem_expenses"`
	Status          string          `json:"status"`
	AttachmentCount int             `json:"attachment_count"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ListPage is one page of list items together with the totals and the page
// number the client should render. Page may differ from the requested page
// when an out-of-range request was clamped.
type ListPage struct {
	Items    []TravelOrderListItemResponse
	Total    int64
	Page     int
	PageSize int
}

// DownloadResponse carries a presigned download URL for an attachment
type DownloadResponse struct {
	AttachmentID uuid.UUID `json:"attachment_id"`
	FileName     string    `json:"file_name"`
	URL          string    `json:"url"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// StatusCountsResponse reports how many orders sit in each status
type StatusCountsResponse struct {
	Draft       int64 `json:"draft"`
	Pending     int64 `json:"pending"`
	Recommended int64 `json:"recommended"`
	Approved    int64 `json:"approved"`
	Rejected    int64 `json:"rejected"`
}

// ==================== Converters ====================

// ToTravelOrderResponse converts a domain travel order to a response DTO
func ToTravelOrderResponse(order *travel.TravelOrder) TravelOrderResponse {
	steps := make([]ApprovalStepResponse, 0, len(order.Steps))
	for _, step := range order.Steps {
		steps = append(steps, ApprovalStepResponse{
			ID:         step.ID,
			DirectorID: step.DirectorID,
			StepOrder:  step.StepOrder,
			Role:       string(step.Role),
			Status:     string(step.Status),
			Remarks:    step.Remarks,
			ActedAt:    step.ActedAt,
		})
	}

	attachments := make([]AttachmentResponse, 0, len(order.Attachments))
	for _, att := range order.Attachments {
		if att.StagedForRemoval {
			continue
		}
		attachments = append(attachments, AttachmentResponse{
			ID:          att.ID,
			Kind:        string(att.Kind),
			FileName:    att.FileName,
			FileSize:    att.FileSize,
			ContentType: att.ContentType,
			UploadedAt:  att.CreatedAt,
		})
	}

	return TravelOrderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		RequesterID:     order.RequesterID,
		RequesterName:   order.RequesterName,
		TravelPurpose:   order.TravelPurpose,
		Destination:     order.Destination,
		OfficialStation: order.OfficialStation,
		StartDate:       timePtr(order.StartDate),
		EndDate:         timePtr(order.EndDate),
		Objectives:      order.Objectives,
		PerDiemExpenses: order.PerDiemExpenses,
		PerDiemNote:     order.PerDiemNote,
		AssistantsNote:  order.AssistantsNote,
		Appropriation:   order.Appropriation,
		Remarks:         order.Remarks,
		Status:          string(order.Status),
		Steps:           steps,
		Attachments:     attachments,
		SubmittedAt:     order.SubmittedAt,
		RecommendedAt:   order.RecommendedAt,
		ApprovedAt:      order.ApprovedAt,
		RejectedAt:      order.RejectedAt,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

// ToTravelOrderListItemResponse converts a domain order to the list shape
func ToTravelOrderListItemResponse(order *travel.TravelOrder) TravelOrderListItemResponse {
	return TravelOrderListItemResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		RequesterName:   order.RequesterName,
		TravelPurpose:   order.TravelPurpose,
		Destination:     order.Destination,
		StartDate:       timePtr(order.StartDate),
		EndDate:         timePtr(order.EndDate),
		PerDiemExpenses: order.PerDiemExpenses,
		Status:          string(order.Status),
		AttachmentCount: len(order.Attachments),
		SubmittedAt:     order.SubmittedAt,
		CreatedAt:       order.CreatedAt,
	}
}

// ToTravelOrderListItemResponses converts a slice of domain orders
func ToTravelOrderListItemResponses(orders []travel.TravelOrder) []TravelOrderListItemResponse {
	responses := make([]TravelOrderListItemResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, ToTravelOrderListItemResponse(&orders[i]))
	}
	return responses
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
