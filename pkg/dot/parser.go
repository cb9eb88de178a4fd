// Package dot provides parsing of DOT flowchart text
package dot

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
)

// ParseError reports a malformed line in DOT input.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dot: line %d: %s", e.Line, e.Reason)
}

var (
	headerRE = regexp.MustCompile(`^digraph(?:\s+([A-Za-z_][A-Za-z0-9_]*))?\s*\{$`)
	attrRE   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\s*=\s*(?:"(?:[^"\\]|\\.)*"|[A-Za-z0-9_.]+)\s*;$`)
	edgeRE   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*->\s*([A-Za-z_][A-Za-z0-9_]*)\s*(?:\[(.*)\])?\s*;$`)
	nodeRE   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*(?:\[(.*)\])?\s*;$`)
	tokenRE  = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)
)

// Parse reads DOT flowchart text and rebuilds the graph. The dialect
// is a strict subset of Graphviz DOT: one statement per line, nodes
// declared before the edges that reference them, and only the shapes
// the serializer emits. Graph-level attributes and unknown node or
// edge attributes are skipped so hand-written templates with styling
// still load. Structural violations found after a syntactically clean
// parse are reported with the underlying graph error.
func Parse(text string) (*flow.Graph, error) {
	var (
		nodes      []flow.Node
		edges      []flow.Edge
		declared   = make(map[string]bool)
		seenHeader bool
		closed     bool
	)

	sc := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}

		if !seenHeader {
			if !headerRE.MatchString(line) {
				return nil, &ParseError{Line: lineNo, Reason: "expected digraph header"}
			}
			seenHeader = true
			continue
		}
		if closed {
			return nil, &ParseError{Line: lineNo, Reason: "content after closing brace"}
		}
		if line == "}" {
			closed = true
			continue
		}
		if attrRE.MatchString(line) {
			continue
		}

		if m := edgeRE.FindStringSubmatch(line); m != nil {
			from, to := m[1], m[2]
			if !declared[from] {
				return nil, &ParseError{Line: lineNo, Reason: fmt.Sprintf("edge references undeclared node %q", from)}
			}
			if !declared[to] {
				return nil, &ParseError{Line: lineNo, Reason: fmt.Sprintf("edge references undeclared node %q", to)}
			}
			attrs, err := parseAttrs(m[3])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Reason: err.Error()}
			}
			edges = append(edges, flow.Edge{From: from, To: to, Label: attrs["label"]})
			continue
		}

		if m := nodeRE.FindStringSubmatch(line); m != nil {
			id := m[1]
			if id == "node" || id == "edge" || id == "graph" {
				// Graphviz default-attribute statements carry no model data.
				continue
			}
			if declared[id] {
				return nil, &ParseError{Line: lineNo, Reason: fmt.Sprintf("node %q redeclared", id)}
			}
			attrs, err := parseAttrs(m[2])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Reason: err.Error()}
			}
			label := attrs["label"]
			if label == "" {
				label = id
			}
			kind := flow.KindProcess
			if shape, ok := attrs["shape"]; ok {
				kind, ok = kindByShape[shape]
				if !ok {
					return nil, &ParseError{Line: lineNo, Reason: fmt.Sprintf("unknown shape %q", shape)}
				}
			}
			declared[id] = true
			nodes = append(nodes, flow.Node{ID: id, Label: label, Kind: kind})
			continue
		}

		return nil, &ParseError{Line: lineNo, Reason: "malformed statement"}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Line: lineNo, Reason: err.Error()}
	}
	if !seenHeader {
		return nil, &ParseError{Line: 1, Reason: "empty input"}
	}
	if !closed {
		return nil, &ParseError{Line: lineNo, Reason: "missing closing brace"}
	}

	return flow.NewGraphFrom(nodes, edges)
}

// parseAttrs splits a DOT attribute list like
// `label="Check Stock", shape=diamond` into a key/value map.
// Quoted values are unescaped; unknown keys are kept so callers can
// choose what to read.
func parseAttrs(list string) (map[string]string, error) {
	attrs := make(map[string]string)
	list = strings.TrimSpace(list)
	if list == "" {
		return attrs, nil
	}
	for _, part := range splitTopLevel(list) {
		key, value, found := strings.Cut(part, "=")
		if !found {
			return nil, fmt.Errorf("malformed attribute %q", part)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if strings.HasPrefix(value, `"`) {
			if len(value) < 2 || !strings.HasSuffix(value, `"`) {
				return nil, fmt.Errorf("unterminated string in attribute %q", key)
			}
			attrs[key] = unescapeLabel(value[1 : len(value)-1])
			continue
		}
		if !tokenRE.MatchString(value) {
			return nil, fmt.Errorf("malformed value in attribute %q", key)
		}
		attrs[key] = value
	}
	return attrs, nil
}

// splitTopLevel splits an attribute list on commas that sit outside
// quoted strings.
func splitTopLevel(s string) []string {
	var (
		parts   []string
		start   int
		quoted  bool
		escaped bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			quoted = !quoted
		case c == ',' && !quoted:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

func unescapeLabel(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
