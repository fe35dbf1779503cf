package services

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

type promptPair struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type promptSet struct {
	Ask       promptPair `yaml:"ask"`
	Hint      promptPair `yaml:"hint"`
	Summarize promptPair `yaml:"summarize"`
}

func loadPrompts(raw []byte) (*promptSet, error) {
	var ps promptSet
	if err := yaml.Unmarshal(raw, &ps); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	for name, p := range map[string]promptPair{"ask": ps.Ask, "hint": ps.Hint, "summarize": ps.Summarize} {
		if strings.TrimSpace(p.System) == "" || strings.TrimSpace(p.User) == "" {
			return nil, fmt.Errorf("prompt %q is incomplete", name)
		}
	}
	return &ps, nil
}

// render substitutes {{key}} placeholders in one pass.
func (p promptPair) render(vars map[string]string) (string, string) {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	r := strings.NewReplacer(pairs...)
	return strings.TrimSpace(p.System), strings.TrimSpace(r.Replace(p.User))
}
