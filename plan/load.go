package plan

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"
)

// DefaultPlanName is the name used in errors about the embedded plan
const DefaultPlanName = "default.yaml"

//go:embed default.yaml
var defaultPlan []byte

// Default returns the embedded default plan
func Default() (*Plan, error) {
	var dto planFile
	if err := decodeYAML(bytes.NewReader(defaultPlan), &dto); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", DefaultPlanName, err)
	}
	return mapPlan(DefaultPlanName, dto)
}

// Load reads a plan from a .yaml, .yml or .hcl file
func Load(path string) (*Plan, error) {
	var dto planFile

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open plan: %w", err)
		}
		defer f.Close()
		if err := decodeYAML(f, &dto); err != nil {
			return nil, fmt.Errorf("failed to decode plan %s: %w", path, err)
		}
	case ".hcl":
		if err := decodeHCL(path, &dto); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported plan format %q for %s (want .yaml, .yml or .hcl)", ext, path)
	}

	return mapPlan(path, dto)
}

func decodeYAML(r io.Reader, dto *planFile) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(dto); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("plan is empty")
		}
		return err
	}
	return nil
}

func decodeHCL(path string, dto *planFile) error {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL plan %s: %w", path, diags)
	}

	diags = gohcl.DecodeBody(hclFile.Body, nil, dto)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL plan %s: %w", path, diags)
	}
	return nil
}

func mapPlan(path string, dto planFile) (*Plan, error) {
	p := &Plan{Name: strings.TrimSpace(dto.Name)}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if dto.Coverage == nil {
		return nil, invalidField(path, "coverage", "block is required")
	}
	p.Coverage = Coverage{
		Run:    dto.Coverage.Run,
		Report: dto.Coverage.Report,
	}

	if dto.SearchPath != nil {
		p.SearchPath = SearchPath{
			Variable: strings.TrimSpace(dto.SearchPath.Variable),
			Dirs:     trimAll(dto.SearchPath.Dirs),
		}
	}

	if dto.Examples != nil {
		p.Examples = Examples{
			SkipEnv: strings.TrimSpace(dto.Examples.SkipEnv),
			Command: dto.Examples.Command,
			Dirs:    trimAll(dto.Examples.Dirs),
		}
	}

	if err := p.Validate(path); err != nil {
		return nil, err
	}
	return p, nil
}

func trimAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
