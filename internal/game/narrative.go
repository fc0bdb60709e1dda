package game

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed narrative.yaml
var defaultNarrativeYAML []byte

// PhaseText is the title and description shown for a phase.
type PhaseText struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

type narrativeFile struct {
	Phases   map[string]PhaseText `yaml:"phases"`
	Messages map[string]string    `yaml:"messages"`
}

// Narrative is the catalog of message templates keyed by phase/option/result.
type Narrative struct {
	phases    map[string]PhaseText
	templates map[string]*template.Template
}

// narrativeView is what message templates see.
type narrativeView struct {
	C      Commander
	W      World
	Chance int
	Made   int
	Need   int
}

var defaultNarrative = sync.OnceValues(func() (*Narrative, error) {
	return ParseNarrative(defaultNarrativeYAML)
})

// DefaultNarrative returns the embedded catalog.
func DefaultNarrative() *Narrative {
	n, err := defaultNarrative()
	if err != nil {
		panic(fmt.Sprintf("embedded narrative: %v", err))
	}
	return n
}

// ParseNarrative builds a catalog from YAML.
func ParseNarrative(data []byte) (*Narrative, error) {
	var f narrativeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse narrative: %w", err)
	}
	n := &Narrative{
		phases:    map[string]PhaseText{},
		templates: map[string]*template.Template{},
	}
	for k, v := range f.Phases {
		n.phases[k] = v
	}
	for key, text := range f.Messages {
		tmpl, err := template.New(key).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse narrative message %s: %w", key, err)
		}
		n.templates[key] = tmpl
	}
	return n, nil
}

// LoadNarrativeFile reads an operator catalog and layers it over the embedded
// one, so the file only needs the keys it changes.
func LoadNarrativeFile(path string) (*Narrative, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read narrative file: %w", err)
	}
	override, err := ParseNarrative(data)
	if err != nil {
		return nil, err
	}
	return DefaultNarrative().merge(override), nil
}

func (n *Narrative) merge(o *Narrative) *Narrative {
	out := &Narrative{
		phases:    make(map[string]PhaseText, len(n.phases)),
		templates: make(map[string]*template.Template, len(n.templates)),
	}
	for k, v := range n.phases {
		out.phases[k] = v
	}
	for k, v := range n.templates {
		out.templates[k] = v
	}
	for k, v := range o.phases {
		out.phases[k] = v
	}
	for k, v := range o.templates {
		out.templates[k] = v
	}
	return out
}

// say renders the message for key. Unknown keys render as the key itself.
func (n *Narrative) say(key string, view narrativeView) string {
	tmpl, ok := n.templates[key]
	if !ok {
		return key
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, view); err != nil {
		return key
	}
	return b.String()
}

func (n *Narrative) phaseText(key string, view narrativeView) PhaseText {
	pt := n.phases[key]
	if strings.Contains(pt.Description, "{{") {
		tmpl, err := template.New(key).Parse(pt.Description)
		if err == nil {
			var b strings.Builder
			if tmpl.Execute(&b, view) == nil {
				pt.Description = b.String()
			}
		}
	}
	return pt
}
