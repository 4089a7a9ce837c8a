package domain

import "sort"

// Aliases maps every legacy or alternate key name seen in stored documents
// and spreadsheets to its canonical field. Lookup is case-sensitive.
var Aliases = map[string]string{
	"firstName":        FieldFirstName,
	"First_Name":       FieldFirstName,
	"lastName":         FieldLastName,
	"Last_Name":        FieldLastName,
	"company":          FieldCompany,
	"Company":          FieldCompany,
	"Company_Name":     FieldCompany,
	"jobTitle":         FieldJobTitle,
	"Job_Title":        FieldJobTitle,
	"designation":      FieldJobTitle,
	"industry":         FieldIndustry,
	"employeeSize":     FieldEmployeeSize,
	"employee_size":    FieldEmployeeSize,
	"Company_Size":     FieldEmployeeSize,
	"email":            FieldEmail,
	"Email":            FieldEmail,
	"email_id":         FieldEmail,
	"mobile":           FieldMobile,
	"phone":            FieldMobile,
	"Mobile":           FieldMobile,
	"mobile_number":    FieldMobile,
	"Phone_Number":     FieldMobile,
	"linkedin":         FieldLinkedIn,
	"linkedinUrl":      FieldLinkedIn,
	"LinkedIn":         FieldLinkedIn,
	"website":          FieldWebsite,
	"Website_URL":      FieldWebsite,
	"rpcLink":          FieldRPCLink,
	"RPC_Link":         FieldRPCLink,
	"meetingDate":      FieldMeetingDate,
	"Meeting_date":     FieldMeetingDate,
	"meetingTime":      FieldMeetingTime,
	"Meeting_time":     FieldMeetingTime,
	"meetingStatus":    FieldMeetingStatus,
	"Meeting_status":   FieldMeetingStatus,
	"status":           FieldMeetingStatus,
	"Comment":          FieldComment,
	"comments":         FieldComment,
	"Requirement":      FieldRequirement,
	"meetingTakeaway":  FieldMeetingTakeaway,
	"Meeting_Takeaway": FieldMeetingTakeaway,
}

// Canonical returns the canonical field for key and whether key is known
// (either canonical already or a listed alias).
func Canonical(key string) (string, bool) {
	if canonical, ok := Aliases[key]; ok {
		return canonical, true
	}
	if _, ok := canonicalFields[key]; ok {
		return key, true
	}
	return key, false
}

var canonicalFields = map[string]struct{}{
	FieldFirstName: {}, FieldLastName: {}, FieldCompany: {}, FieldJobTitle: {},
	FieldIndustry: {}, FieldEmployeeSize: {}, FieldEmail: {}, FieldMobile: {},
	FieldLinkedIn: {}, FieldWebsite: {}, FieldRPCLink: {}, FieldEmailResponse: {},
	FieldMobileResponse: {}, FieldLinkedInResponse: {}, FieldMeetingDate: {},
	FieldMeetingTime: {}, FieldMeetingStatus: {}, FieldComment: {}, FieldRequirement: {},
	FieldMeetingTakeaway: {}, FieldEmailOpened: {}, FieldLinkClicked: {},
	FieldMeetingAttended: {}, FieldResponseReceived: {}, FieldScheduledCall: {},
	FieldScore: {}, FieldCreatedAt: {}, FieldUpdatedAt: {}, FieldIsDeleted: {},
	FieldDeletedAt: {},
}

// NormalizeRecord rewrites alias keys of a raw document to their canonical
// names in place. A canonical key that is already present wins over its
// aliases. It returns the alias keys that were rewritten or dropped.
func NormalizeRecord(record map[string]any) []string {
	var renamed []string
	for key := range record {
		if _, ok := Aliases[key]; ok {
			renamed = append(renamed, key)
		}
	}
	// Sorted so that when several aliases of one field are present the
	// choice between them is stable.
	sort.Strings(renamed)

	for _, key := range renamed {
		canonical := Aliases[key]
		if _, exists := record[canonical]; !exists {
			record[canonical] = record[key]
		}
		delete(record, key)
	}
	return renamed
}
