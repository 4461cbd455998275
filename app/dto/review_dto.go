package dto

import (
	"encoding/json"
	"time"
)

// ApplicationListRequest filters the review queue. Zero-value paging falls
// back to the first page with the default size.
type ApplicationListRequest struct {
	Page            int        `json:"page" validate:"omitempty,min=1"`
	PageSize        int        `json:"pageSize" validate:"omitempty,min=1,max=100"`
	Status          *string    `json:"status,omitempty" validate:"omitempty,oneof=submitted under_review documents_required approved rejected card_issued"`
	Mode            *string    `json:"mode,omitempty" validate:"omitempty,oneof=SELF ASSISTED"`
	MobileNumber    *string    `json:"mobileNumber,omitempty" validate:"omitempty,bd_mobile"`
	NationalID      *string    `json:"nationalId,omitempty" validate:"omitempty,bd_nid"`
	SubmittedAfter  *time.Time `json:"submittedAfter,omitempty"`
	SubmittedBefore *time.Time `json:"submittedBefore,omitempty"`
}

// ApplicationSummaryDTO is one row of the review queue
type ApplicationSummaryDTO struct {
	ApplicationUUID string     `json:"applicationUuid"`
	Mode            string     `json:"mode"`
	Status          string     `json:"status"`
	ApplicantName   string     `json:"applicantName"`
	MobileNumber    string     `json:"mobileNumber"` // masked
	ProductCode     string     `json:"productCode"`
	SubmittedAt     *time.Time `json:"submittedAt,omitempty"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	ReviewedBy      *string    `json:"reviewedBy,omitempty"`
}

// ApplicationListResponse represents one page of the review queue
type ApplicationListResponse struct {
	Applications []ApplicationSummaryDTO `json:"applications"`
	Pagination   PaginationDTO           `json:"pagination"`
}

// ApplicationDetailDTO is the full application as the review desk sees it,
// including the unmasked identifiers staff are entitled to
type ApplicationDetailDTO struct {
	ApplicationUUID string          `json:"applicationUuid"`
	Mode            string          `json:"mode"`
	Status          string          `json:"status"`
	ApplicantName   string          `json:"applicantName"`
	MobileNumber    *string         `json:"mobileNumber,omitempty"`
	NationalID      *string         `json:"nationalId,omitempty"`
	State           json.RawMessage `json:"state"`
	Steps           []StepInfoDTO   `json:"steps"`
	ReviewedBy      *string         `json:"reviewedBy,omitempty"`
	ReviewerNote    *string         `json:"reviewerNote,omitempty"`
	DecidedAt       *time.Time      `json:"decidedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	SubmittedAt     *time.Time      `json:"submittedAt,omitempty"`
}

// ReviewActionRequest carries the reviewer's note. Rejections and document
// requests require one; approvals may omit it.
type ReviewActionRequest struct {
	Note *string `json:"note,omitempty" validate:"omitempty,max=2000"`
}

// ReviewActionResponse represents the application after a review transition
type ReviewActionResponse struct {
	Message         string     `json:"message"`
	ApplicationUUID string     `json:"applicationUuid"`
	Status          string     `json:"status"`
	DecidedAt       *time.Time `json:"decidedAt,omitempty"`
}
