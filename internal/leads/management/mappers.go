package management

import (
	"crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/internal/leads/transport"
)

func leadFromCreate(req transport.CreateLeadRequest) domain.Lead {
	return domain.Lead{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Company:          req.Company,
		JobTitle:         req.JobTitle,
		Industry:         req.Industry,
		EmployeeSize:     req.EmployeeSize,
		Email:            req.Email,
		Mobile:           normalizeMobile(req.Mobile),
		LinkedInURL:      req.LinkedInURL,
		Website:          req.Website,
		RPCLink:          req.RPCLink,
		EmailResponse:    req.EmailResponse,
		MobileResponse:   req.MobileResponse,
		LinkedInResponse: req.LinkedInResponse,
		MeetingDate:      req.MeetingDate,
		MeetingTime:      req.MeetingTime,
		MeetingStatus:    req.MeetingStatus,
		Comment:          req.Comment,
		Requirement:      req.Requirement,
		MeetingTakeaway:  req.MeetingTakeaway,
		EmailOpened:      req.EmailOpened,
		LinkClicked:      req.LinkClicked,
		MeetingAttended:  req.MeetingAttended,
		ResponseReceived: req.ResponseReceived,
		ScheduledCall:    req.ScheduledCall,
	}
}

func applyUpdate(lead *domain.Lead, req transport.UpdateLeadRequest) {
	setString(&lead.FirstName, req.FirstName)
	setString(&lead.LastName, req.LastName)
	setString(&lead.Company, req.Company)
	setString(&lead.JobTitle, req.JobTitle)
	setString(&lead.Industry, req.Industry)
	setString(&lead.EmployeeSize, req.EmployeeSize)
	setString(&lead.Email, req.Email)
	if req.Mobile != nil {
		lead.Mobile = normalizeMobile(*req.Mobile)
	}
	setString(&lead.LinkedInURL, req.LinkedInURL)
	setString(&lead.Website, req.Website)
	setString(&lead.RPCLink, req.RPCLink)
	setString(&lead.EmailResponse, req.EmailResponse)
	setString(&lead.MobileResponse, req.MobileResponse)
	setString(&lead.LinkedInResponse, req.LinkedInResponse)
	setString(&lead.MeetingDate, req.MeetingDate)
	setString(&lead.MeetingTime, req.MeetingTime)
	setString(&lead.MeetingStatus, req.MeetingStatus)
	setString(&lead.Comment, req.Comment)
	setString(&lead.Requirement, req.Requirement)
	setString(&lead.MeetingTakeaway, req.MeetingTakeaway)
	setBool(&lead.EmailOpened, req.EmailOpened)
	setBool(&lead.LinkClicked, req.LinkClicked)
	setBool(&lead.MeetingAttended, req.MeetingAttended)
	setBool(&lead.ResponseReceived, req.ResponseReceived)
	if req.ScheduledCall.Set {
		lead.ScheduledCall = req.ScheduledCall.Value
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
