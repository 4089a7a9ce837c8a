package domain

import (
	"strconv"
	"strings"
	"time"
)

// ExportColumns is the column order of spreadsheet exports. It starts with
// the required import columns so an export can be re-imported as is.
var ExportColumns = []string{
	FieldFirstName, FieldLastName, FieldEmail, FieldMobile,
	FieldCompany, FieldJobTitle, FieldIndustry, FieldEmployeeSize,
	FieldLinkedIn, FieldWebsite, FieldRPCLink,
	FieldEmailResponse, FieldMobileResponse, FieldLinkedInResponse,
	FieldMeetingDate, FieldMeetingTime, FieldMeetingStatus,
	FieldComment, FieldRequirement, FieldMeetingTakeaway,
	FieldEmailOpened, FieldLinkClicked, FieldMeetingAttended, FieldResponseReceived,
	FieldScheduledCall, FieldScore, FieldCreatedAt,
}

func (l *Lead) stringField(name string) *string {
	switch name {
	case FieldFirstName:
		return &l.FirstName
	case FieldLastName:
		return &l.LastName
	case FieldCompany:
		return &l.Company
	case FieldJobTitle:
		return &l.JobTitle
	case FieldIndustry:
		return &l.Industry
	case FieldEmployeeSize:
		return &l.EmployeeSize
	case FieldEmail:
		return &l.Email
	case FieldMobile:
		return &l.Mobile
	case FieldLinkedIn:
		return &l.LinkedInURL
	case FieldWebsite:
		return &l.Website
	case FieldRPCLink:
		return &l.RPCLink
	case FieldEmailResponse:
		return &l.EmailResponse
	case FieldMobileResponse:
		return &l.MobileResponse
	case FieldLinkedInResponse:
		return &l.LinkedInResponse
	case FieldMeetingDate:
		return &l.MeetingDate
	case FieldMeetingTime:
		return &l.MeetingTime
	case FieldMeetingStatus:
		return &l.MeetingStatus
	case FieldComment:
		return &l.Comment
	case FieldRequirement:
		return &l.Requirement
	case FieldMeetingTakeaway:
		return &l.MeetingTakeaway
	}
	return nil
}

func (l *Lead) boolField(name string) *bool {
	switch name {
	case FieldEmailOpened:
		return &l.EmailOpened
	case FieldLinkClicked:
		return &l.LinkClicked
	case FieldMeetingAttended:
		return &l.MeetingAttended
	case FieldResponseReceived:
		return &l.ResponseReceived
	}
	return nil
}

// Field renders a canonical field as spreadsheet text.
func (l Lead) Field(name string) string {
	if p := l.stringField(name); p != nil {
		return *p
	}
	if p := l.boolField(name); p != nil {
		return strconv.FormatBool(*p)
	}
	switch name {
	case FieldScore:
		return strconv.Itoa(l.Score)
	case FieldCreatedAt:
		if l.CreatedAt.IsZero() {
			return ""
		}
		return l.CreatedAt.UTC().Format(time.RFC3339)
	case FieldScheduledCall:
		if l.ScheduledCall == nil {
			return ""
		}
		return l.ScheduledCall.UTC().Format(time.RFC3339)
	}
	return ""
}

// SetField assigns spreadsheet text to a writable canonical field. It
// reports false for unknown or derived fields and for values that do not
// parse.
func (l *Lead) SetField(name, value string) bool {
	value = strings.TrimSpace(value)
	if p := l.stringField(name); p != nil {
		*p = value
		return true
	}
	if p := l.boolField(name); p != nil {
		switch strings.ToLower(value) {
		case "true", "yes", "y", "1":
			*p = true
		case "", "false", "no", "n", "0":
			*p = false
		default:
			return false
		}
		return true
	}
	if name == FieldScheduledCall {
		if value == "" {
			l.ScheduledCall = nil
			return true
		}
		at, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return false
		}
		l.ScheduledCall = &at
		return true
	}
	return false
}
