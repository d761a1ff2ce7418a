package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// Exporter renders a GraphRecord in human-readable formats
type Exporter struct {
	record *GraphRecord
	ids    map[string]string
}

// NewExporter creates a new exporter for the given record
func NewExporter(record *GraphRecord) *Exporter {
	ids := make(map[string]string, len(record.Nodes))
	for i, n := range record.Nodes {
		ids[n.Name] = "n" + strconv.Itoa(i)
	}
	return &Exporter{record: record, ids: ids}
}

// MermaidOptions defines configuration for Mermaid diagram generation
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string
}

// DrawMermaid generates a Mermaid flowchart of the record
func (ge *Exporter) DrawMermaid() string {
	return ge.DrawMermaidWithOptions(MermaidOptions{
		Direction: "TD",
	})
}

// DrawMermaidWithOptions generates a Mermaid flowchart with custom options.
// Node names contain characters Mermaid treats as syntax, so nodes get
// positional ids and carry their name as a label.
func (ge *Exporter) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	sb.WriteString(fmt.Sprintf("flowchart %s\n", direction))

	for _, n := range ge.record.Nodes {
		id := ge.ids[n.Name]
		label := mermaidEscape(n.Name)
		if n.Op == VariableOp {
			sb.WriteString(fmt.Sprintf("    %s([\"%s\"])\n", id, label))
		} else {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, label))
		}
	}

	for _, n := range ge.record.Nodes {
		for _, in := range n.Inputs {
			from, ok := ge.ids[in]
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", from, ge.ids[n.Name]))
		}
	}

	for _, n := range ge.record.Nodes {
		if n.Op == VariableOp {
			sb.WriteString(fmt.Sprintf("    style %s fill:#E0E0E0\n", ge.ids[n.Name]))
		}
	}

	return sb.String()
}

// DrawDOT generates a DOT (Graphviz) representation of the record
func (ge *Exporter) DrawDOT() string {
	var sb strings.Builder

	sb.WriteString("digraph G {\n")
	sb.WriteString("    rankdir=TB;\n")

	for _, n := range ge.record.Nodes {
		if n.Op == VariableOp {
			sb.WriteString(fmt.Sprintf("    %s [shape=octagon, style=filled, fillcolor=\"#E0E0E0\"];\n", strconv.Quote(n.Name)))
		} else {
			sb.WriteString(fmt.Sprintf("    %s [shape=record, style=filled, fillcolor=\"#6495ED\"];\n", strconv.Quote(n.Name)))
		}
	}

	for _, n := range ge.record.Nodes {
		for _, in := range n.Inputs {
			sb.WriteString(fmt.Sprintf("    %s -> %s;\n", strconv.Quote(in), strconv.Quote(n.Name)))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// DrawASCII generates an ASCII tree rooted at the outputs of the record,
// descending through inputs
func (ge *Exporter) DrawASCII() string {
	outputs := ge.record.Outputs()
	if len(outputs) == 0 {
		return "Empty graph\n"
	}

	var sb strings.Builder
	visited := make(map[string]bool)

	sb.WriteString("Graph Dependencies:\n")
	for i, name := range outputs {
		ge.drawASCIINode(name, "", i == len(outputs)-1, visited, &sb)
	}

	return sb.String()
}

// drawASCIINode recursively draws a node and its inputs
func (ge *Exporter) drawASCIINode(name string, prefix string, isLast bool, visited map[string]bool, sb *strings.Builder) {
	connector := "├──"
	nextPrefix := prefix + "│   "
	if isLast {
		connector = "└──"
		nextPrefix = prefix + "    "
	}

	if visited[name] {
		sb.WriteString(fmt.Sprintf("%s%s %s (shared)\n", prefix, connector, name))
		return
	}
	visited[name] = true

	n, ok := ge.record.Node(name)
	if !ok {
		sb.WriteString(fmt.Sprintf("%s%s %s (missing)\n", prefix, connector, name))
		return
	}
	sb.WriteString(fmt.Sprintf("%s%s %s\n", prefix, connector, name))

	for i, in := range n.Inputs {
		ge.drawASCIINode(in, nextPrefix, i == len(n.Inputs)-1, visited, sb)
	}
}

var (
	terminalTitle  = lipgloss.NewStyle().Bold(true).Underline(true)
	terminalOp     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	terminalTensor = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	terminalDetail = lipgloss.NewStyle().Faint(true)
)

// DrawTerminal renders the record as a styled node list for terminals
func (ge *Exporter) DrawTerminal() string {
	var sb strings.Builder
	sb.WriteString(terminalTitle.Render(fmt.Sprintf("graph (producer %d, %d nodes)", ge.record.Versions.Producer, len(ge.record.Nodes))))
	sb.WriteString("\n")

	for _, n := range ge.record.Nodes {
		style := terminalOp
		if n.Op == VariableOp {
			style = terminalTensor
		}
		line := style.Render(n.Name)
		if detail := attrString(n.Attr); detail != "" {
			line += " " + terminalDetail.Render(detail)
		}
		if len(n.Inputs) > 0 {
			line += terminalDetail.Render(" <- " + strings.Join(n.Inputs, ", "))
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// DrawMarkdown renders the record as a Markdown table
func (ge *Exporter) DrawMarkdown() string {
	var sb strings.Builder
	sb.WriteString("| Name | Op | Inputs | Shape | DType |\n")
	sb.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, n := range ge.record.Nodes {
		shape, dtype := "", ""
		if n.Attr != nil {
			shape = shapeString(n.Attr.Shape)
			dtype = n.Attr.DType.String()
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			markdownEscape(n.Name),
			markdownEscape(n.Op),
			markdownEscape(strings.Join(n.Inputs, ", ")),
			shape,
			dtype,
		))
	}
	return sb.String()
}

// DrawHTML renders the Markdown table as sanitized HTML. Names come from
// user code, so the output passes through a UGC sanitizer.
func (ge *Exporter) DrawHTML() string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(ge.DrawMarkdown()))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	out := markdown.Render(doc, renderer)

	return string(bluemonday.UGCPolicy().SanitizeBytes(out))
}

func attrString(a *Attr) string {
	if a == nil {
		return ""
	}
	return shapeString(a.Shape) + " " + a.DType.String()
}

func shapeString(shape []int64) string {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = strconv.FormatInt(d, 10)
	}
	return "[" + strings.Join(dims, ", ") + "]"
}

func mermaidEscape(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

func markdownEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
