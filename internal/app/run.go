package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vk/probegrid/internal/ctxlog"
	hclloader "github.com/vk/probegrid/internal/hcl"
	"github.com/vk/probegrid/internal/model"
)

// Run loads the definition suite and executes every enabled test, at most
// Workers tests concurrently. It returns an error when any test finishes
// with a non-passed status; individual executions never abort the others.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.OpsPort > 0 {
		a.startOpsServer(a.config.OpsPort)
	}
	if a.env.WebhookAddr != "" {
		a.hub.Start(a.env.WebhookAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.hub.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("Webhook receiver shutdown failed.", "error", err)
			}
		}()
	}

	loader := hclloader.NewLoader(a.registry)
	tests, err := loader.Load(ctx, a.config.SuitePath)
	if err != nil {
		return fmt.Errorf("failed to load test definitions: %w", err)
	}

	var enabled []*model.SyntheticTest
	for _, test := range tests {
		if test.Enabled {
			enabled = append(enabled, test)
		} else {
			a.logger.Info("Skipping disabled test.", "test_id", test.ID)
		}
	}
	if len(enabled) == 0 {
		a.logger.Warn("No enabled tests found, nothing to execute.")
		return nil
	}

	a.logger.Info("🚀 Executing test suite.", "tests", len(enabled), "workers", a.config.Workers)

	executions := make([]*model.TestExecution, len(enabled))
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Workers)
	for i, test := range enabled {
		i, test := i, test
		g.Go(func() error {
			executions[i] = a.executor.ExecuteTest(groupCtx, test)
			// Executions record their own failures; nothing propagates here,
			// so one failing test never cancels its siblings.
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, exec := range executions {
		if exec.Status != model.StatusPassed {
			failed++
			a.logger.Error("Test did not pass.", "test_id", enabled[i].ID, "status", string(exec.Status), "error", exec.ErrorMessage)
		}
	}

	a.logger.Info("🏁 Suite finished.", "passed", len(enabled)-failed, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d tests failed", failed, len(enabled))
	}
	return nil
}
