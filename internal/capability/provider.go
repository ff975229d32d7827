// Package capability indexes what each agent profile says it is good at.
package capability

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"

	"github.com/danielolaszy/triage/internal/keywords"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/pkg/models"
)

// ErrSourceNotFound is returned by a Provider when the source does not exist.
var ErrSourceNotFound = errors.New("capability source not found")

// Provider loads agent profiles from a source. The filesystem provider reads a
// directory; other providers may read a database or an API.
type Provider interface {
	Load(ctx context.Context, source string) ([]models.AgentCapabilityProfile, error)
}

// profileExtensions are the files the filesystem provider reads.
var profileExtensions = map[string]bool{".md": true, ".markdown": true}

// descriptionNoise are words common to every profile description that say
// nothing about a specialization.
var descriptionNoise = map[string]struct{}{
	"agent": {}, "agents": {}, "specialist": {}, "specialists": {}, "expert": {},
	"experts": {}, "proactively": {}, "task": {}, "tasks": {}, "help": {}, "helps": {},
	"developer": {}, "engineer": {}, "handles": {}, "handle": {}, "focus": {},
	"focused": {}, "focuses": {}, "including": {}, "related": {}, "work": {},
	"works": {}, "use": {}, "uses": {}, "responsible": {}, "specializes": {},
	"specializing": {}, "best": {}, "practices": {}, "ensure": {}, "ensures": {},
}

var keywordsLine = regexp.MustCompile(`(?i)^\s*(?:[-*]\s*)?(?:\*\*)?(?:keywords|capabilities|tags)(?:\*\*)?\s*:\s*(.+)$`)

// stringList accepts either a YAML sequence or a comma-separated scalar.
type stringList []string

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = splitList(value.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("expected a list or comma-separated string, got YAML kind %d", value.Kind)
	}
}

// frontmatter is the YAML header of an agent profile.
type frontmatter struct {
	Name         string     `yaml:"name"`
	Description  string     `yaml:"description"`
	Keywords     stringList `yaml:"keywords"`
	Capabilities stringList `yaml:"capabilities"`
	Tags         stringList `yaml:"tags"`
	Version      string     `yaml:"version"`
}

// FileProvider reads Markdown agent profiles with optional YAML frontmatter
// from a directory. Subdirectories are not scanned.
type FileProvider struct{}

// NewFileProvider creates a FileProvider.
func NewFileProvider() *FileProvider {
	return &FileProvider{}
}

// Load parses every profile in dir, in file-name order. A profile that cannot
// be parsed is skipped with a warning.
func (p *FileProvider) Load(ctx context.Context, dir string) ([]models.AgentCapabilityProfile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, dir)
		}
		return nil, fmt.Errorf("reading agent directory %s: %w", dir, err)
	}

	var profiles []models.AgentCapabilityProfile
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !profileExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logging.Warn("skipping unreadable agent profile", "path", path, "error", err)
			continue
		}

		profile, err := ParseProfile(path, data)
		if err != nil {
			logging.Warn("skipping invalid agent profile", "path", path, "error", err)
			continue
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// ParseProfile extracts identity, description, version and keywords from a
// profile document. The identity is the frontmatter name, or the file name
// without its extension.
func ParseProfile(path string, data []byte) (models.AgentCapabilityProfile, error) {
	var meta frontmatter
	header, body, hasHeader := splitFrontmatter(data)
	if hasHeader {
		if err := yaml.Unmarshal(header, &meta); err != nil {
			return models.AgentCapabilityProfile{}, fmt.Errorf("parsing frontmatter of %s: %w", path, err)
		}
	}

	id := strings.TrimSpace(meta.Name)
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	id = strings.ToLower(id)

	description := strings.TrimSpace(meta.Description)
	if description == "" {
		description = firstParagraph(body)
	}

	kws := make(keywords.KeywordSet)
	declared := append(append(append([]string{}, meta.Keywords...), meta.Capabilities...), meta.Tags...)
	declared = append(declared, bodyDeclarations(body)...)
	for _, d := range declared {
		kws.Merge(keywords.ExtractKeywords(d))
	}
	for kw := range keywords.ExtractKeywords(description) {
		if _, noisy := descriptionNoise[kw]; !noisy {
			kws.Add(kw)
		}
	}

	version := ""
	if v := strings.TrimSpace(meta.Version); v != "" {
		parsed, err := semver.NewVersion(v)
		if err != nil {
			logging.Warn("ignoring invalid agent profile version", "path", path, "version", v, "error", err)
		} else {
			version = parsed.String()
		}
	}

	return models.AgentCapabilityProfile{
		AgentID:     id,
		Description: description,
		Version:     version,
		Keywords:    kws.Sorted(),
		SourcePath:  path,
	}, nil
}

// splitFrontmatter separates a leading "---" delimited YAML block from the body.
func splitFrontmatter(data []byte) (header, body []byte, ok bool) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	normalized := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return nil, normalized, false
	}
	rest := normalized[len("---\n"):]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, normalized, false
	}
	header = rest[:end]
	body = rest[end+len("\n---"):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return header, body, true
}

// bodyDeclarations collects "Keywords: a, b" style lines from the body.
func bodyDeclarations(body []byte) []string {
	var out []string
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		if m := keywordsLine.FindStringSubmatch(scanner.Text()); m != nil {
			out = append(out, splitList(m[1])...)
		}
	}
	return out
}

// firstParagraph returns the first block of non-heading text in the body.
func firstParagraph(body []byte) string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if len(lines) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			if len(lines) > 0 {
				break
			}
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, " ")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
