package executor

import (
	"context"
	"fmt"

	"github.com/vk/probegrid/internal/collab"
	"github.com/vk/probegrid/internal/ctxlog"
	"github.com/vk/probegrid/internal/model"
)

const (
	incidentSeverity = "medium"
	incidentType     = "synthetic_test_failure"
)

var incidentAffectedServices = []string{"synthetic-testing"}

// openIncident makes exactly one incident-creation attempt for a failed
// execution. A failure of the incident service itself is logged and
// swallowed: it never changes the test's own verdict, it only leaves
// CreatedIncidentID empty.
func (e *Executor) openIncident(ctx context.Context, test *model.SyntheticTest, exec *model.TestExecution) {
	logger := ctxlog.FromContext(ctx)
	if e.incidents == nil {
		logger.Debug("No incident service configured, skipping incident creation.")
		return
	}

	req := &collab.IncidentRequest{
		Title:            fmt.Sprintf("Synthetic test failed: %s", test.Name),
		Description:      incidentDescription(test, exec),
		Severity:         incidentSeverity,
		IncidentType:     incidentType,
		AffectedServices: incidentAffectedServices,
	}

	id, err := e.incidents.CreateIncident(ctx, req)
	if err != nil {
		logger.Error("Incident creation failed.", "error", err)
		return
	}

	exec.CreatedIncidentID = id
	if e.collector != nil {
		e.collector.IncIncidents()
	}
	logger.Info("🚨 Incident opened for failed test.", "incident_id", id)
}

func incidentDescription(test *model.SyntheticTest, exec *model.TestExecution) string {
	return fmt.Sprintf(
		"Synthetic test %q (execution %s) finished with status %s.\nFailures: %s",
		test.Name, exec.ID, exec.Status, exec.ErrorMessage,
	)
}
