package knowledge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Format identifies the serialization of a catalog document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrNoCategories is returned when a document has no categories key.
var ErrNoCategories = errors.New("knowledge base document has no \"categorias\" key")

// FormatFromPath infers the document format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported knowledge base extension %q", filepath.Ext(path))
	}
}

// Issue is a recoverable problem with a single catalog entry.
type Issue struct {
	Category  string `json:"category"`
	Condition string `json:"condition,omitempty"`
	Message   string `json:"message"`
}

func (i Issue) String() string {
	if i.Condition == "" {
		return fmt.Sprintf("%s: %s", i.Category, i.Message)
	}
	return fmt.Sprintf("%s/%s: %s", i.Category, i.Condition, i.Message)
}

// conditionDoc is the on-disk shape of a condition.
type conditionDoc struct {
	Symptoms       []string `json:"sintomas" yaml:"sintomas"`
	Label          string   `json:"possivel_condicao" yaml:"possivel_condicao"`
	Recommendation string   `json:"recomendacao" yaml:"recomendacao"`
	Urgency        string   `json:"urgencia" yaml:"urgencia"`
	Exams          []string `json:"exames" yaml:"exames"`
	Specialist     string   `json:"especialista" yaml:"especialista"`
	RiskFactors    []string `json:"fatores_risco" yaml:"fatores_risco"`
}

type rawCondition struct {
	name   string
	decode func(*conditionDoc) error
}

type rawCategory struct {
	name       string
	conditions []rawCondition
	err        error
}

func isCategoriesKey(k string) bool {
	return k == "categorias" || k == "categories"
}

// Parse decodes a catalog document. It fails only when the document as a
// whole is unusable; problems confined to one entry are returned as issues
// and the entry is dropped or, when it merely lacks symptoms, kept
// unscorable.
func Parse(r io.Reader, format Format) (*KnowledgeBase, []Issue, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read knowledge base: %w", err)
	}

	var raws []rawCategory
	switch format {
	case FormatJSON:
		raws, err = walkJSON(data)
	case FormatYAML:
		raws, err = walkYAML(data)
	default:
		return nil, nil, fmt.Errorf("unsupported knowledge base format %q", format)
	}
	if err != nil {
		return nil, nil, err
	}

	var (
		cats   []Category
		issues []Issue
	)
	for _, rc := range raws {
		if rc.err != nil {
			issues = append(issues, Issue{Category: rc.name, Message: rc.err.Error()})
			continue
		}
		cat := Category{Name: rc.name}
		for _, cond := range rc.conditions {
			var doc conditionDoc
			if err := cond.decode(&doc); err != nil {
				issues = append(issues, Issue{Category: rc.name, Condition: cond.name, Message: "invalid attributes: " + err.Error()})
				continue
			}
			c, entryIssues := doc.toCondition(rc.name, cond.name)
			issues = append(issues, entryIssues...)
			cat.Conditions = append(cat.Conditions, c)
		}
		cats = append(cats, cat)
	}
	return New(cats), issues, nil
}

func (d conditionDoc) toCondition(category, name string) (Condition, []Issue) {
	var issues []Issue
	c := Condition{
		Category:       category,
		Name:           name,
		Label:          d.Label,
		Symptoms:       d.Symptoms,
		Recommendation: d.Recommendation,
		Exams:          d.Exams,
		Specialist:     d.Specialist,
		RiskFactors:    d.RiskFactors,
	}
	if len(d.Symptoms) == 0 {
		issues = append(issues, Issue{Category: category, Condition: name, Message: "no symptoms listed; skipped for scoring"})
	}
	u, ok := ParseUrgency(d.Urgency)
	if !ok {
		issues = append(issues, Issue{Category: category, Condition: name, Message: fmt.Sprintf("unknown urgency %q", d.Urgency)})
	}
	c.Urgency = u
	return c, issues
}

// LoadFile parses the catalog at path, inferring the format from its
// extension.
func LoadFile(path string) (*KnowledgeBase, []Issue, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open knowledge base: %w", err)
	}
	defer f.Close()

	kb, issues, err := Parse(f, format)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return kb, issues, nil
}

// Load reads the catalog at path and never fails: a missing or malformed
// document is logged and yields an empty knowledge base, so every match
// attempt reports no diagnosis instead of taking the process down.
func Load(path string, logger zerolog.Logger) *KnowledgeBase {
	kb, issues, err := LoadFile(path)
	if err != nil {
		evt := logger.Error()
		if errors.Is(err, fs.ErrNotExist) {
			evt = logger.Warn()
		}
		evt.Err(err).Str("path", path).Msg("knowledge base unavailable, continuing with no known conditions")
		return Empty()
	}
	for _, is := range issues {
		logger.Warn().
			Str("category", is.Category).
			Str("condition", is.Condition).
			Msg(is.Message)
	}
	logger.Info().
		Str("path", path).
		Int("categories", len(kb.CategoryNames())).
		Int("conditions", kb.Len()).
		Msg("knowledge base loaded")
	return kb
}

// -- JSON --

type jsonMember struct {
	key   string
	value json.RawMessage
}

// orderedObject splits a JSON object into its members in document order.
func orderedObject(data []byte) ([]jsonMember, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	var members []jsonMember
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		members = append(members, jsonMember{key: key, value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return members, nil
}

func walkJSON(data []byte) ([]rawCategory, error) {
	top, err := orderedObject(data)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	var catsRaw json.RawMessage
	for _, m := range top {
		if isCategoriesKey(m.key) {
			catsRaw = m.value
		}
	}
	if catsRaw == nil {
		return nil, ErrNoCategories
	}
	cats, err := orderedObject(catsRaw)
	if err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	out := make([]rawCategory, 0, len(cats))
	for _, cat := range cats {
		rc := rawCategory{name: cat.key}
		conds, err := orderedObject(cat.value)
		if err != nil {
			rc.err = fmt.Errorf("invalid category: %w", err)
			out = append(out, rc)
			continue
		}
		for _, cond := range conds {
			v := cond.value
			rc.conditions = append(rc.conditions, rawCondition{
				name:   cond.key,
				decode: func(d *conditionDoc) error { return json.Unmarshal(v, d) },
			})
		}
		out = append(out, rc)
	}
	return out, nil
}

// -- YAML --

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func walkYAML(data []byte) ([]rawCategory, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("decode document: empty document")
	}
	root := resolve(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("decode document: expected mapping at line %d", root.Line)
	}

	var cats *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		if isCategoriesKey(root.Content[i].Value) {
			cats = resolve(root.Content[i+1])
		}
	}
	if cats == nil {
		return nil, ErrNoCategories
	}
	if cats.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("decode categories: expected mapping at line %d", cats.Line)
	}

	out := make([]rawCategory, 0, len(cats.Content)/2)
	for i := 0; i+1 < len(cats.Content); i += 2 {
		rc := rawCategory{name: cats.Content[i].Value}
		conds := resolve(cats.Content[i+1])
		if conds.Kind != yaml.MappingNode {
			rc.err = fmt.Errorf("invalid category: expected mapping at line %d", conds.Line)
			out = append(out, rc)
			continue
		}
		for j := 0; j+1 < len(conds.Content); j += 2 {
			v := resolve(conds.Content[j+1])
			rc.conditions = append(rc.conditions, rawCondition{
				name:   conds.Content[j].Value,
				decode: func(d *conditionDoc) error { return v.Decode(d) },
			})
		}
		out = append(out, rc)
	}
	return out, nil
}
