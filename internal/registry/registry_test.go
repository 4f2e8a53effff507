package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/probegrid/internal/model"
)

type echoConfig struct {
	Message string `hcl:"message"`
}

type echoHandler struct{}

func (h *echoHandler) NewConfig() any { return new(echoConfig) }

func (h *echoHandler) Run(ctx context.Context, nodeCtx *model.NodeExecutionContext) (map[string]any, error) {
	return map[string]any{"message": nodeCtx.Config.(*echoConfig).Message}, nil
}

func TestRegistry(t *testing.T) {
	reg := New()
	reg.RegisterHandler("echo", &echoHandler{})

	t.Run("registered handler is retrievable", func(t *testing.T) {
		h, ok := reg.Handler("echo")
		assert.True(t, ok)
		assert.NotNil(t, h)
	})

	t.Run("unknown type reports absence", func(t *testing.T) {
		_, ok := reg.Handler("missing")
		assert.False(t, ok)
	})

	t.Run("NewConfig returns a fresh struct per call", func(t *testing.T) {
		a, err := reg.NewConfig("echo")
		require.NoError(t, err)
		b, err := reg.NewConfig("echo")
		require.NoError(t, err)
		assert.NotSame(t, a, b)
		assert.IsType(t, &echoConfig{}, a)
	})

	t.Run("NewConfig errors on unknown type", func(t *testing.T) {
		_, err := reg.NewConfig("missing")
		assert.ErrorContains(t, err, `unknown node type "missing"`)
	})

	t.Run("Types lists registrations", func(t *testing.T) {
		reg.RegisterHandler("second", &echoHandler{})
		assert.ElementsMatch(t, []model.NodeType{"echo", "second"}, reg.Types())
	})
}
