// Package domain holds the lead record and its canonical field names.
package domain

import (
	"sort"
	"time"

	"crm_dashboard_backend/internal/fieldcipher"
)

// Canonical document keys. Import columns and stored documents use these
// names; legacy variants are mapped through Aliases.
const (
	FieldFirstName        = "first_name"
	FieldLastName         = "last_name"
	FieldCompany          = "company_name"
	FieldJobTitle         = "job_title"
	FieldIndustry         = "Industry"
	FieldEmployeeSize     = "Employee_Size"
	FieldEmail            = "Email_ID"
	FieldMobile           = "Mobile_Number"
	FieldLinkedIn         = "LinkedIn_URL"
	FieldWebsite          = "Website"
	FieldRPCLink          = "RPC_link"
	FieldEmailResponse    = "email_response"
	FieldMobileResponse   = "mobile_response"
	FieldLinkedInResponse = "linkedin_response"
	FieldMeetingDate      = "Meeting_Date"
	FieldMeetingTime      = "Meeting_Time"
	FieldMeetingStatus    = "Meeting_Status"
	FieldComment          = "comment"
	FieldRequirement      = "requirement"
	FieldMeetingTakeaway  = "meeting_takeaway"
	FieldEmailOpened      = "emailOpened"
	FieldLinkClicked      = "linkClicked"
	FieldMeetingAttended  = "meetingAttended"
	FieldResponseReceived = "responseReceived"
	FieldScheduledCall    = "scheduledCall"
	FieldScore            = "score"
	FieldCreatedAt        = "createdAt"
	FieldUpdatedAt        = "updatedAt"
	FieldIsDeleted        = "isDeleted"
	FieldDeletedAt        = "deletedAt"
)

// Channel response values.
const (
	ResponsePositive   = "positive"
	ResponseNegative   = "negative"
	ResponseNoResponse = "no_response"
)

// PIIFields are encrypted at rest.
var PIIFields = fieldcipher.NewFieldSet(
	FieldFirstName,
	FieldLastName,
	FieldCompany,
	FieldJobTitle,
	FieldIndustry,
	FieldEmail,
	FieldMobile,
	FieldLinkedIn,
	FieldWebsite,
	FieldRPCLink,
	FieldComment,
	FieldRequirement,
	FieldMeetingTakeaway,
)

// RequiredImportColumns must all be present in a spreadsheet header.
var RequiredImportColumns = []string{FieldFirstName, FieldLastName, FieldEmail, FieldMobile}

// Lead is a prospect record owned by one tenant.
type Lead struct {
	ID               string     `json:"id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Company          string     `json:"company_name,omitempty"`
	JobTitle         string     `json:"job_title,omitempty"`
	Industry         string     `json:"Industry,omitempty"`
	EmployeeSize     string     `json:"Employee_Size,omitempty"`
	Email            string     `json:"Email_ID,omitempty"`
	Mobile           string     `json:"Mobile_Number,omitempty"`
	LinkedInURL      string     `json:"LinkedIn_URL,omitempty"`
	Website          string     `json:"Website,omitempty"`
	RPCLink          string     `json:"RPC_link,omitempty"`
	EmailResponse    string     `json:"email_response,omitempty"`
	MobileResponse   string     `json:"mobile_response,omitempty"`
	LinkedInResponse string     `json:"linkedin_response,omitempty"`
	MeetingDate      string     `json:"Meeting_Date,omitempty"`
	MeetingTime      string     `json:"Meeting_Time,omitempty"`
	MeetingStatus    string     `json:"Meeting_Status,omitempty"`
	Comment          string     `json:"comment,omitempty"`
	Requirement      string     `json:"requirement,omitempty"`
	MeetingTakeaway  string     `json:"meeting_takeaway,omitempty"`
	EmailOpened      bool       `json:"emailOpened,omitempty"`
	LinkClicked      bool       `json:"linkClicked,omitempty"`
	MeetingAttended  bool       `json:"meetingAttended,omitempty"`
	ResponseReceived bool       `json:"responseReceived,omitempty"`
	ScheduledCall    *time.Time `json:"scheduledCall,omitempty"`
	Score            int        `json:"score"`
	CreatedBy        string     `json:"createdBy,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	IsDeleted        bool       `json:"isDeleted"`
	DeletedAt        *time.Time `json:"deletedAt,omitempty"`
}

// FullName joins first and last name.
func (l Lead) FullName() string {
	switch {
	case l.FirstName == "":
		return l.LastName
	case l.LastName == "":
		return l.FirstName
	default:
		return l.FirstName + " " + l.LastName
	}
}

// SortByCreation orders leads by createdAt ascending, ties by id, which is
// the order positions are counted in.
func SortByCreation(leads []Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		if !leads[i].CreatedAt.Equal(leads[j].CreatedAt) {
			return leads[i].CreatedAt.Before(leads[j].CreatedAt)
		}
		return leads[i].ID < leads[j].ID
	})
}

// IDs returns the ids of leads in their current order.
func IDs(leads []Lead) []string {
	out := make([]string, len(leads))
	for i, l := range leads {
		out[i] = l.ID
	}
	return out
}
