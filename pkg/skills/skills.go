package skills

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Tier is a skill's provenance, which breaks ranking ties ahead of
// priority: workspace-authored skills outrank managed ones, which
// outrank bundled ones.
type Tier int

const (
	TierBundled Tier = iota
	TierManaged
	TierWorkspace
)

// Skill describes a skill as defined by the AgentSkills spec.
type Skill struct {
	Name          string
	Description   string
	License       string
	Compatibility string
	Metadata      map[string]string
	AllowedTools  []string
	Tier          Tier
	Priority      int
	Tags          []string
	Triggers      []string
	Body          string
	Path          string
	Dir           string
}

const (
	maxNameLen        = 64
	maxDescriptionLen = 1024
	maxCompatLen      = 500
)

var namePattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// LoadDir scans a directory for skill subdirectories with SKILL.md.
func LoadDir(root string) ([]Skill, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []Skill
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skillPath := filepath.Join(root, entry.Name(), "SKILL.md")
		if _, err := os.Stat(skillPath); err != nil {
			continue
		}
		skill, err := LoadFile(skillPath)
		if err != nil {
			return nil, err
		}
		out = append(out, skill)
	}
	return out, nil
}

// LoadFile parses a single SKILL.md file.
func LoadFile(path string) (Skill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Skill{}, err
	}
	content := string(data)
	fm, body, err := splitFrontmatter(content)
	if err != nil {
		return Skill{}, err
	}
	var parsed frontmatter
	if err := yaml.Unmarshal([]byte(fm), &parsed); err != nil {
		return Skill{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	allowed, err := normalizeAllowedTools(parsed.AllowedTools)
	if err != nil {
		return Skill{}, err
	}
	dir := filepath.Dir(path)
	spec := Skill{
		Name:          parsed.Name,
		Description:   parsed.Description,
		License:       parsed.License,
		Compatibility: parsed.Compatibility,
		Metadata:      parsed.Metadata,
		AllowedTools:  allowed,
		Tier:          parseTier(parsed.Tier),
		Priority:      parsed.Priority,
		Tags:          splitWords(parsed.Tags),
		Triggers:      splitWords(parsed.Triggers),
		Body:          strings.TrimSpace(body),
		Path:          path,
		Dir:           dir,
	}
	if err := validate(spec); err != nil {
		return Skill{}, err
	}
	return spec, nil
}

type frontmatter struct {
	Name          string            `yaml:"name"`
	Description   string            `yaml:"description"`
	License       string            `yaml:"license"`
	Compatibility string            `yaml:"compatibility"`
	Metadata      map[string]string `yaml:"metadata"`
	AllowedTools  any               `yaml:"allowed-tools"`
	Tier          string            `yaml:"tier"`
	Priority      int               `yaml:"priority"`
	Tags          any               `yaml:"tags"`
	Triggers      any               `yaml:"triggers"`
}

// parseTier maps the frontmatter's tier string onto the totally
// ordered Tier scale, defaulting to TierBundled for unrecognized or
// absent values.
func parseTier(value string) Tier {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "workspace":
		return TierWorkspace
	case "managed":
		return TierManaged
	default:
		return TierBundled
	}
}

// splitWords normalizes a tags/triggers frontmatter value (either a
// space-separated string or a YAML list) into a deduplicated slice.
func splitWords(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return dedupe(strings.Fields(v))
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return dedupe(out)
	case []string:
		return dedupe(v)
	default:
		return nil
	}
}

func splitFrontmatter(content string) (string, string, error) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "---") {
		return "", "", errors.New("missing frontmatter")
	}
	parts := strings.SplitN(trimmed, "---", 3)
	if len(parts) < 3 {
		return "", "", errors.New("invalid frontmatter")
	}
	fm := strings.TrimSpace(parts[1])
	body := strings.TrimSpace(parts[2])
	return fm, body, nil
}

func validate(spec Skill) error {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return errors.New("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return fmt.Errorf("name exceeds %d characters", maxNameLen)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name must match %s", namePattern.String())
	}
	dirName := filepath.Base(spec.Dir)
	if dirName != name {
		return fmt.Errorf("name must match directory name (%s)", dirName)
	}
	desc := strings.TrimSpace(spec.Description)
	if desc == "" {
		return errors.New("description is required")
	}
	if utf8.RuneCountInString(desc) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters", maxDescriptionLen)
	}
	compat := strings.TrimSpace(spec.Compatibility)
	if compat != "" && utf8.RuneCountInString(compat) > maxCompatLen {
		return fmt.Errorf("compatibility exceeds %d characters", maxCompatLen)
	}
	return nil
}

func normalizeAllowedTools(value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		return splitAllowed(sanitizeAllowed(v)), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, errors.New("allowed-tools must be string list")
			}
			out = append(out, sanitizeAllowed(strings.TrimSpace(str)))
		}
		return dedupe(out), nil
	case []string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, sanitizeAllowed(strings.TrimSpace(item)))
		}
		return dedupe(out), nil
	default:
		return nil, errors.New("allowed-tools must be string or list")
	}
}

func splitAllowed(input string) []string {
	fields := strings.Fields(input)
	return dedupe(fields)
}

func sanitizeAllowed(input string) string {
	replacer := strings.NewReplacer(
		"( ", "(",
		" )", ")",
		": ", ":",
		" :", ":",
	)
	return replacer.Replace(input)
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
