// Package hcl loads synthetic test definitions from .hcl files and
// translates them into the model types the engine executes. Node config
// blocks are decoded into the typed config structs owned by the registered
// handler for each node type.
package hcl

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/probegrid/internal/ctxlog"
	"github.com/vk/probegrid/internal/model"
	"github.com/vk/probegrid/internal/registry"
	"github.com/vk/probegrid/internal/schema"
)

// Loader parses test definition files.
type Loader struct {
	registry *registry.Registry
}

// NewLoader creates a Loader bound to the registry whose handlers own the
// per-type config structs.
func NewLoader(reg *registry.Registry) *Loader {
	return &Loader{registry: reg}
}

// Load reads every .hcl file at path (a file or a directory walked
// recursively) and returns the tests defined across all of them.
func (l *Loader) Load(ctx context.Context, path string) ([]*model.SyntheticTest, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := findDefinitionFiles(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Definition files discovered.", "path", path, "count", len(files))

	parser := hclparse.NewParser()
	var tests []*model.SyntheticTest
	seen := make(map[string]string)

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %s: %s", file, diags.Error())
		}

		var suite schema.Suite
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &suite); diags.HasErrors() {
			return nil, fmt.Errorf("decoding %s: %s", file, diags.Error())
		}

		for _, rawTest := range suite.Tests {
			if firstFile, dup := seen[rawTest.Name]; dup {
				return nil, fmt.Errorf("test %q defined in both %s and %s", rawTest.Name, firstFile, file)
			}
			seen[rawTest.Name] = file

			test, err := l.translateTest(rawTest)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			tests = append(tests, test)
		}
	}

	logger.Debug("Definitions loaded.", "test_count", len(tests))
	return tests, nil
}

// translateTest converts a raw test block into the model, decoding each
// node's config body into the handler-owned struct for its type.
func (l *Loader) translateTest(raw *schema.Test) (*model.SyntheticTest, error) {
	test := &model.SyntheticTest{
		ID:             raw.Name,
		Name:           raw.Name,
		Schedule:       raw.Schedule,
		Enabled:        raw.Enabled == nil || *raw.Enabled,
		TimeoutSeconds: raw.TimeoutSeconds,
	}

	for _, rawNode := range raw.Nodes {
		nodeType := model.NodeType(rawNode.Type)
		cfg, err := l.registry.NewConfig(nodeType)
		if err != nil {
			return nil, fmt.Errorf("test %q, node %q: %w", raw.Name, rawNode.Name, err)
		}
		if rawNode.Config != nil {
			if diags := gohcl.DecodeBody(rawNode.Config.Body, nil, cfg); diags.HasErrors() {
				return nil, fmt.Errorf("test %q, node %q: %s", raw.Name, rawNode.Name, diags.Error())
			}
		}
		test.Nodes = append(test.Nodes, &model.Node{
			ID:     rawNode.Name,
			Type:   nodeType,
			Name:   rawNode.Name,
			Config: cfg,
		})
	}

	for _, rawEdge := range raw.Edges {
		test.Edges = append(test.Edges, model.Edge{
			From:      rawEdge.From,
			To:        rawEdge.To,
			Condition: rawEdge.Condition,
		})
	}

	return test, nil
}

// findDefinitionFiles resolves a path into the sorted list of .hcl files it
// names: the file itself, or all .hcl files under a directory.
func findDefinitionFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("resolving definition path %q: %w", path, err)
	}

	if !info.IsDir() {
		if !strings.HasSuffix(path, ".hcl") {
			return nil, fmt.Errorf("definition file %q is not a .hcl file", path)
		}
		return []string{path}, nil
	}

	var files []string
	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".hcl") {
			files = append(files, p)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking definition path %q: %w", path, walkErr)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl definition files found under %q", path)
	}
	return files, nil
}
