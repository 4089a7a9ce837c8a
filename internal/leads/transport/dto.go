package transport

import (
	"time"

	"crm_dashboard_backend/internal/allocation"
	"crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/internal/leads/repository"
)

// Request DTOs
type CreateLeadRequest struct {
	FirstName        string     `json:"first_name" validate:"required,max=100"`
	LastName         string     `json:"last_name" validate:"required,max=100"`
	Company          string     `json:"company_name,omitempty" validate:"omitempty,max=200"`
	JobTitle         string     `json:"job_title,omitempty" validate:"omitempty,max=200"`
	Industry         string     `json:"Industry,omitempty" validate:"omitempty,max=100"`
	EmployeeSize     string     `json:"Employee_Size,omitempty" validate:"omitempty,empsize"`
	Email            string     `json:"Email_ID,omitempty" validate:"omitempty,email"`
	Mobile           string     `json:"Mobile_Number,omitempty" validate:"omitempty,mobile"`
	LinkedInURL      string     `json:"LinkedIn_URL,omitempty" validate:"omitempty,linkedin"`
	Website          string     `json:"Website,omitempty" validate:"omitempty,url"`
	RPCLink          string     `json:"RPC_link,omitempty" validate:"omitempty,url"`
	EmailResponse    string     `json:"email_response,omitempty" validate:"omitempty,oneof=positive negative no_response"`
	MobileResponse   string     `json:"mobile_response,omitempty" validate:"omitempty,oneof=positive negative no_response"`
	LinkedInResponse string     `json:"linkedin_response,omitempty" validate:"omitempty,oneof=positive negative no_response"`
	MeetingDate      string     `json:"Meeting_Date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	MeetingTime      string     `json:"Meeting_Time,omitempty" validate:"omitempty,datetime=15:04"`
	MeetingStatus    string     `json:"Meeting_Status,omitempty" validate:"omitempty,max=50"`
	Comment          string     `json:"comment,omitempty" validate:"omitempty,max=4000"`
	Requirement      string     `json:"requirement,omitempty" validate:"omitempty,max=4000"`
	MeetingTakeaway  string     `json:"meeting_takeaway,omitempty" validate:"omitempty,max=4000"`
	EmailOpened      bool       `json:"emailOpened,omitempty"`
	LinkClicked      bool       `json:"linkClicked,omitempty"`
	MeetingAttended  bool       `json:"meetingAttended,omitempty"`
	ResponseReceived bool       `json:"responseReceived,omitempty"`
	ScheduledCall    *time.Time `json:"scheduledCall,omitempty"`
}

// UpdateLeadRequest is a patch: nil fields are left untouched.
type UpdateLeadRequest struct {
	FirstName        *string      `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName         *string      `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Company          *string      `json:"company_name,omitempty" validate:"omitempty,max=200"`
	JobTitle         *string      `json:"job_title,omitempty" validate:"omitempty,max=200"`
	Industry         *string      `json:"Industry,omitempty" validate:"omitempty,max=100"`
	EmployeeSize     *string      `json:"Employee_Size,omitempty" validate:"omitempty,empsize"`
	Email            *string      `json:"Email_ID,omitempty" validate:"omitempty,email"`
	Mobile           *string      `json:"Mobile_Number,omitempty" validate:"omitempty,mobile"`
	LinkedInURL      *string      `json:"LinkedIn_URL,omitempty" validate:"omitempty,linkedin"`
	Website          *string      `json:"Website,omitempty" validate:"omitempty,url"`
	RPCLink          *string      `json:"RPC_link,omitempty" validate:"omitempty,url"`
	EmailResponse    *string      `json:"email_response,omitempty" validate:"omitempty,oneof=positive negative no_response"`
	MobileResponse   *string      `json:"mobile_response,omitempty" validate:"omitempty,oneof=positive negative no_response"`
	LinkedInResponse *string      `json:"linkedin_response,omitempty" validate:"omitempty,oneof=positive negative no_response"`
	MeetingDate      *string      `json:"Meeting_Date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	MeetingTime      *string      `json:"Meeting_Time,omitempty" validate:"omitempty,datetime=15:04"`
	MeetingStatus    *string      `json:"Meeting_Status,omitempty" validate:"omitempty,max=50"`
	Comment          *string      `json:"comment,omitempty" validate:"omitempty,max=4000"`
	Requirement      *string      `json:"requirement,omitempty" validate:"omitempty,max=4000"`
	MeetingTakeaway  *string      `json:"meeting_takeaway,omitempty" validate:"omitempty,max=4000"`
	EmailOpened      *bool        `json:"emailOpened,omitempty"`
	LinkClicked      *bool        `json:"linkClicked,omitempty"`
	MeetingAttended  *bool        `json:"meetingAttended,omitempty"`
	ResponseReceived *bool        `json:"responseReceived,omitempty"`
	ScheduledCall    OptionalTime `json:"scheduledCall,omitempty" validate:"-"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500,dive,required"`
}

type ExportRequest struct {
	Format string `form:"format" validate:"omitempty,oneof=csv xlsx"`
	Upload bool   `form:"upload"`
}

// Response DTOs

// LeadResponse is a decrypted lead with its 1-based position in the
// tenant's ordered lead list.
type LeadResponse struct {
	domain.Lead
	Position int `json:"position,omitempty"`
}

type LeadListResponse struct {
	Items []LeadResponse    `json:"items"`
	Total int               `json:"total"`
	Range *allocation.Range `json:"range,omitempty"`
}

type BulkDeleteResponse struct {
	Deleted  []string `json:"deleted"`
	NotFound []string `json:"notFound,omitempty"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	// Warnings lists rows whose optional values were dropped, keyed by
	// 1-based data row number as it appears in the file (blank rows count).
	Warnings map[int][]string `json:"warnings,omitempty"`
}

type ExportResponse struct {
	FileKey   string    `json:"fileKey"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	Count     int       `json:"count"`
}

type RecalculateResponse struct {
	Updated int `json:"updated"`
}

type CipherStatusResponse struct {
	repository.CipherStatus
	Notice bool `json:"notice"`
}
