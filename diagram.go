package sigil

import (
	"fmt"
	"sort"
	"strings"
)

// DiagramFormat represents the output format for schema diagram generation.
type DiagramFormat string

const (
	// DiagramMermaid generates Mermaid diagram syntax.
	DiagramMermaid DiagramFormat = "mermaid"
	// DiagramDOT generates GraphViz DOT syntax.
	DiagramDOT DiagramFormat = "dot"
)

// Edge kinds in the marker graph.
const (
	edgeMeta  = "meta"  // definition uses another marker
	edgeAlias = "alias" // attribute claims into another marker
)

// markerEdge is one directed edge in the marker graph.
type markerEdge struct {
	from, to, kind, label string
}

// Diagram renders the registered marker schema in the specified format.
// Markers are entities, meta-uses and alias claims are edges.
func (e *Engine) Diagram(format DiagramFormat) string {
	include := make(map[string]bool)
	for _, name := range e.registry.Markers() {
		include[name] = true
	}
	return e.renderDiagram(include, format)
}

// DiagramFrom renders the part of the schema reachable from the root
// marker through meta-uses and alias claims.
func (e *Engine) DiagramFrom(root string, format DiagramFormat) (string, error) {
	if _, ok := e.registry.Lookup(root); !ok {
		return "", unknownMarker(root)
	}

	// Build reachable set using BFS
	visited := make(map[string]bool)
	queue := []string{root}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		def, ok := e.registry.Lookup(current)
		if !ok {
			continue
		}
		for _, edge := range markerEdges(def) {
			if !visited[edge.to] {
				queue = append(queue, edge.to)
			}
		}
	}

	return e.renderDiagram(visited, format), nil
}

// Diagram renders the global engine's schema in the specified format.
func Diagram(format DiagramFormat) string {
	return instance.Diagram(format)
}

// DiagramFrom renders the schema reachable from the root marker on the
// global engine.
func DiagramFrom(root string, format DiagramFormat) (string, error) {
	return instance.DiagramFrom(root, format)
}

func (e *Engine) renderDiagram(include map[string]bool, format DiagramFormat) string {
	// Sorted order keeps output stable across runs
	names := make([]string, 0, len(include))
	for name := range include {
		names = append(names, name)
	}
	sort.Strings(names)

	switch format {
	case DiagramDOT:
		return e.renderDOT(names, include)
	default:
		return e.renderMermaid(names, include)
	}
}

// renderMermaid creates a Mermaid erDiagram from the specified markers.
func (e *Engine) renderMermaid(names []string, include map[string]bool) string {
	var sb strings.Builder
	sb.WriteString("erDiagram\n")

	// First, declare all entities with their attributes
	for _, name := range names {
		def, ok := e.registry.Lookup(name)
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s {\n", sanitizeName(name)))
		for _, attr := range def.Attributes {
			sb.WriteString(fmt.Sprintf("        %s %s\n", attr.Kind.String(), attr.Name))
		}
		sb.WriteString("    }\n")
	}

	// Then, declare edges
	for _, name := range names {
		def, ok := e.registry.Lookup(name)
		if !ok {
			continue
		}
		for _, edge := range markerEdges(def) {
			if !include[edge.to] {
				continue
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s : %s\n",
				sanitizeName(edge.from),
				mermaidEdge(edge.kind),
				sanitizeName(edge.to),
				sanitizeName(edge.label)))
		}
	}

	return sb.String()
}

// renderDOT creates a GraphViz DOT diagram from the specified markers.
func (e *Engine) renderDOT(names []string, include map[string]bool) string {
	var sb strings.Builder
	sb.WriteString("digraph schema {\n")
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [shape=record];\n\n")

	// Declare all entities with their attributes
	for _, name := range names {
		def, ok := e.registry.Lookup(name)
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s [label=\"{%s|", sanitizeName(name), name))

		var attrs []string
		for _, attr := range def.Attributes {
			attrs = append(attrs, fmt.Sprintf("%s: %s", attr.Name, attr.Kind.String()))
		}
		sb.WriteString(strings.Join(attrs, "\\l"))
		sb.WriteString("\\l}\"];\n")
	}

	sb.WriteString("\n")

	// Declare edges
	for _, name := range names {
		def, ok := e.registry.Lookup(name)
		if !ok {
			continue
		}
		for _, edge := range markerEdges(def) {
			if !include[edge.to] {
				continue
			}
			sb.WriteString(fmt.Sprintf("    %s -> %s [%s label=%q];\n",
				sanitizeName(edge.from),
				sanitizeName(edge.to),
				dotEdgeStyle(edge.kind),
				edge.label))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// markerEdges lists the outgoing edges of one marker definition in
// declaration order.
func markerEdges(def Marker) []markerEdge {
	var edges []markerEdge

	for _, use := range def.Uses {
		edges = append(edges, markerEdge{
			from:  def.Name,
			to:    use.Marker,
			kind:  edgeMeta,
			label: "uses",
		})
	}

	for _, attr := range def.Attributes {
		for _, claim := range attr.Aliases {
			target := claim.Marker
			if target == "" {
				target = def.Name
			}
			targetAttr := claim.Attribute
			if targetAttr == "" {
				targetAttr = claim.Ref
			}
			if targetAttr == "" {
				targetAttr = attr.Name
			}
			edges = append(edges, markerEdge{
				from:  def.Name,
				to:    target,
				kind:  edgeAlias,
				label: fmt.Sprintf("%s to %s", attr.Name, targetAttr),
			})
		}
	}

	return edges
}

// mermaidEdge converts an edge kind to Mermaid relationship syntax.
func mermaidEdge(kind string) string {
	switch kind {
	case edgeMeta:
		return "||--o{" // Meta-use
	case edgeAlias:
		return "||--||" // Alias claim
	default:
		return "||--||"
	}
}

// dotEdgeStyle returns GraphViz edge styling for an edge kind.
func dotEdgeStyle(kind string) string {
	switch kind {
	case edgeMeta:
		return "arrowhead=normal"
	case edgeAlias:
		return "arrowhead=empty, style=dashed"
	default:
		return "arrowhead=normal"
	}
}

// sanitizeName ensures names are valid for diagram syntax.
func sanitizeName(name string) string {
	// Replace spaces and special characters
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")
	return name
}
