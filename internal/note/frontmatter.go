package note

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ParseError reports a file that could not be read or whose frontmatter
// could not be decoded. Callers keep their previous in-memory state for
// the source when they see one.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

const fence = "---"

// timestamp layouts accepted in frontmatter, most specific first.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// header mirrors the recognized frontmatter keys. Unrecognized keys are
// collected separately into Record.Extra.
type header struct {
	Title      string      `yaml:"title"`
	Date       string      `yaml:"date"`
	Modified   string      `yaml:"dateModified"`
	Status     string      `yaml:"status"`
	Due        string      `yaml:"due"`
	Priority   string      `yaml:"priority"`
	Tags       []string    `yaml:"tags"`
	Contexts   []string    `yaml:"contexts"`
	Recurrence *Recurrence `yaml:"recurrence"`
}

var recognizedKeys = map[string]bool{
	"title": true, "date": true, "dateModified": true, "status": true,
	"due": true, "priority": true, "tags": true, "contexts": true,
	"recurrence": true,
}

// ParseFile reads and parses one file. An unreadable file or malformed
// frontmatter yields a *ParseError.
func ParseFile(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return Parse(path, data)
}

// Parse decodes a file's content into a Record. A file without a
// frontmatter block is valid: it is all body.
func Parse(path string, data []byte) (*Record, error) {
	rec := &Record{Path: path}

	content := string(data)
	rawYAML, body, ok := splitFrontmatter(content)
	rec.Body = body
	if !ok {
		return rec, nil
	}

	var h header
	if err := yaml.Unmarshal([]byte(rawYAML), &h); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	var all map[string]any
	if err := yaml.Unmarshal([]byte(rawYAML), &all); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	rec.Title = h.Title
	rec.Status = h.Status
	rec.Due = normalizeDate(h.Due)
	rec.Priority = h.Priority
	rec.Tags = h.Tags
	rec.Contexts = h.Contexts
	rec.Recurrence = h.Recurrence
	rec.Created = parseTime(h.Date)
	rec.Modified = parseTime(h.Modified)

	for key := range all {
		if recognizedKeys[key] {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]any)
		}
		rec.Extra[key] = all[key]
	}

	return rec, nil
}

// Serialize renders the record back to file content: recognized fields
// first in a stable order, extra fields after them sorted by key, then
// the body.
func Serialize(rec *Record) []byte {
	root := &yaml.Node{Kind: yaml.MappingNode}

	addStr := func(key, val string) {
		if val == "" {
			return
		}
		root.Content = append(root.Content,
			strNode(key), strNode(val))
	}
	addList := func(key string, vals []string) {
		if len(vals) == 0 {
			return
		}
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, v := range vals {
			seq.Content = append(seq.Content, strNode(v))
		}
		root.Content = append(root.Content, strNode(key), seq)
	}

	addStr("title", rec.Title)
	if !rec.Created.IsZero() {
		addStr("date", rec.Created.Format("2006-01-02T15:04:05"))
	}
	if !rec.Modified.IsZero() {
		addStr("dateModified", rec.Modified.Format("2006-01-02T15:04:05"))
	}
	addStr("status", rec.Status)
	addStr("due", rec.Due)
	addStr("priority", rec.Priority)
	addList("tags", rec.Tags)
	addList("contexts", rec.Contexts)

	if rec.Recurrence != nil {
		var node yaml.Node
		if err := node.Encode(rec.Recurrence); err == nil {
			root.Content = append(root.Content, strNode("recurrence"), &node)
		}
	}

	keys := make([]string, 0, len(rec.Extra))
	for k := range rec.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var node yaml.Node
		if err := node.Encode(rec.Extra[k]); err != nil {
			continue
		}
		root.Content = append(root.Content, strNode(k), &node)
	}

	var buf bytes.Buffer
	if len(root.Content) > 0 {
		buf.WriteString(fence + "\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		_ = enc.Encode(root)
		_ = enc.Close()
		buf.WriteString(fence + "\n")
	}
	buf.WriteString(rec.Body)
	return buf.Bytes()
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: s}
}

// splitFrontmatter separates the YAML block between the fences from the
// body. Returns ok=false when the file has no frontmatter.
func splitFrontmatter(content string) (rawYAML, body string, ok bool) {
	if !strings.HasPrefix(content, fence+"\n") && content != fence {
		return "", content, false
	}
	rest := strings.TrimPrefix(content, fence+"\n")
	idx := strings.Index(rest, "\n"+fence)
	if idx < 0 {
		return "", content, false
	}
	rawYAML = rest[:idx+1]
	body = rest[idx+1+len(fence):]
	body = strings.TrimPrefix(body, "\n")
	return rawYAML, body, true
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// normalizeDate reduces any accepted timestamp form to YYYY-MM-DD.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if t := parseTime(s); !t.IsZero() {
		return t.Format("2006-01-02")
	}
	return s
}
