package scheduler

import (
	"encoding/json"
	"fmt"

	"crm_dashboard_backend/internal/automation"

	"github.com/hibiken/asynq"
)

const TaskAutomationStatus = "automation.status"

const TaskAutomationCleanup = "automation.cleanup"

// SweepPayload targets one tenant; an empty TenantID sweeps every enrolled
// tenant.
type SweepPayload struct {
	TenantID string `json:"tenantId,omitempty"`
}

// TaskType maps a sweep kind to its queue task type.
func TaskType(kind automation.Kind) (string, error) {
	switch kind {
	case automation.KindStatus:
		return TaskAutomationStatus, nil
	case automation.KindCleanup:
		return TaskAutomationCleanup, nil
	}
	return "", fmt.Errorf("no task type for sweep kind %q", kind)
}

func NewSweepTask(kind automation.Kind, payload SweepPayload) (*asynq.Task, error) {
	typename, err := TaskType(kind)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typename, data), nil
}

func ParseSweepPayload(task *asynq.Task) (SweepPayload, error) {
	var payload SweepPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SweepPayload{}, err
	}
	return payload, nil
}
