// Package domain holds the per-stream profiles: prompts, the off-topic reply and
// the concept to expression mapping the query adapter hands to the model.
package domain

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var builtinProfiles []byte

type Column struct {
	Concept    string `yaml:"concept" json:"concept"`
	Expression string `yaml:"expression" json:"expression"`
}

type Profile struct {
	Stream               string   `yaml:"stream"`
	Title                string   `yaml:"title"`
	ClassificationPrompt string   `yaml:"classification_prompt"`
	GeneralResponse      string   `yaml:"general_response"`
	AdapterPrompt        string   `yaml:"adapter_prompt"`
	Columns              []Column `yaml:"columns"`

	classify *template.Template
	adapt    *template.Template
}

type profileFile struct {
	Profiles []*Profile `yaml:"profiles"`
}

type classificationData struct {
	Question string
}

type adapterData struct {
	History  string
	Template string
	Columns  string
}

func (p *Profile) compile() error {
	if p.Stream == "" {
		return fmt.Errorf("profile without stream")
	}
	if strings.TrimSpace(p.GeneralResponse) == "" {
		return fmt.Errorf("profile %q: general_response is required", p.Stream)
	}

	var err error
	p.classify, err = template.New(p.Stream + "-classify").Option("missingkey=error").Parse(p.ClassificationPrompt)
	if err != nil {
		return fmt.Errorf("profile %q: classification_prompt: %w", p.Stream, err)
	}
	p.adapt, err = template.New(p.Stream + "-adapt").Option("missingkey=error").Parse(p.AdapterPrompt)
	if err != nil {
		return fmt.Errorf("profile %q: adapter_prompt: %w", p.Stream, err)
	}
	return nil
}

// RenderClassification fills the classification prompt with the latest utterance.
func (p *Profile) RenderClassification(question string) (string, error) {
	var buf bytes.Buffer
	if err := p.classify.Execute(&buf, classificationData{Question: question}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderAdapter fills the adapter prompt.
func (p *Profile) RenderAdapter(history, templateQuery string) (string, error) {
	var buf bytes.Buffer
	data := adapterData{
		History:  history,
		Template: templateQuery,
		Columns:  p.ColumnMapping(),
	}
	if err := p.adapt.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ColumnMapping renders the columns in declaration order, one per line.
func (p *Profile) ColumnMapping() string {
	var sb strings.Builder
	for i, c := range p.Columns {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "- %s: %s", c.Concept, c.Expression)
	}
	return sb.String()
}

type Registry struct {
	profiles map[string]*Profile
}

// Parse builds a registry from YAML.
func Parse(data []byte) (*Registry, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if len(file.Profiles) == 0 {
		return nil, fmt.Errorf("parse profiles: no profiles defined")
	}

	r := &Registry{profiles: make(map[string]*Profile, len(file.Profiles))}
	for _, p := range file.Profiles {
		p.Stream = strings.ToLower(strings.TrimSpace(p.Stream))
		if err := p.compile(); err != nil {
			return nil, err
		}
		if _, dup := r.profiles[p.Stream]; dup {
			return nil, fmt.Errorf("duplicate profile %q", p.Stream)
		}
		r.profiles[p.Stream] = p
	}
	return r, nil
}

// Builtin returns the embedded scm and hcm profiles.
func Builtin() (*Registry, error) {
	return Parse(builtinProfiles)
}

// Load reads profiles from path, or the built-in set when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return Parse(data)
}

// Lookup is case-insensitive.
func (r *Registry) Lookup(stream string) (*Profile, bool) {
	p, ok := r.profiles[strings.ToLower(strings.TrimSpace(stream))]
	return p, ok
}

// Profiles returns every profile sorted by stream.
func (r *Registry) Profiles() []*Profile {
	out := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stream < out[j].Stream })
	return out
}
