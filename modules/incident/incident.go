package incident

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vk/probegrid/internal/collab"
	"github.com/vk/probegrid/internal/model"
)

const defaultSeverity = "medium"

// Config configures an incident node. The templates may reference
// {test_name} and {error_message}; both are rendered from the execution
// context at run time.
type Config struct {
	TitleTemplate       string `hcl:"title_template"`
	DescriptionTemplate string `hcl:"description_template"`
	Severity            string `hcl:"severity,optional"`
	AutoCreate          bool   `hcl:"auto_create,optional"`
}

type handler struct {
	service collab.IncidentService
}

func (h *handler) NewConfig() any { return new(Config) }

func (h *handler) Run(ctx context.Context, nodeCtx *model.NodeExecutionContext) (map[string]any, error) {
	cfg, ok := nodeCtx.Config.(*Config)
	if !ok {
		return nil, fmt.Errorf("node %s: config is %T, want *incident.Config", nodeCtx.NodeID, nodeCtx.Config)
	}

	if !cfg.AutoCreate {
		return map[string]any{"incident_created": false}, nil
	}
	if h.service == nil {
		return nil, fmt.Errorf("node %s: no incident service configured", nodeCtx.NodeID)
	}

	render := strings.NewReplacer(
		"{test_name}", nodeCtx.TestName,
		"{error_message}", nodeCtx.ErrorMessage,
	)
	severity := cfg.Severity
	if severity == "" {
		severity = defaultSeverity
	}

	id, err := h.service.CreateIncident(ctx, &collab.IncidentRequest{
		Title:            render.Replace(cfg.TitleTemplate),
		Description:      render.Replace(cfg.DescriptionTemplate),
		Severity:         severity,
		IncidentType:     "synthetic_test_failure",
		AffectedServices: []string{"synthetic-testing"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating incident: %w", err)
	}

	return map[string]any{
		"incident_id":      id,
		"incident_created": true,
		"created_at":       time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}
