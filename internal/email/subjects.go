package email

const (
	subjectTaskDueSoonFmt  = "Task due soon: %s"
	subjectTaskAssignedFmt = "New task assigned: %s"
)

const dateLayout = "Mon 2 Jan 2006, 15:04 MST"

const (
	plainTaskDueSoon = `Hi {{.AgentName}},

Your task "{{.TaskTitle}}" is due on {{.EndDate}}.
Mark it completed once it is done, or ask your admin to move the deadline.
`
	plainTaskAssigned = `Hi {{.AgentName}},

You have been assigned "{{.TaskTitle}}".
It starts on {{.StartDate}} and is due on {{.EndDate}}.
`
)
