// Package export writes generated study sets to files people can keep.
package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/mandolyte/mdtopdf"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/studyset/internal/inference"
)

// Format is an export file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
)

var _ pflag.Value = (*Format)(nil)

func (f *Format) Set(value string) error {
	switch Format(strings.ToLower(value)) {
	case FormatJSON:
		*f = FormatJSON
	case FormatYAML, "yml":
		*f = FormatYAML
	case FormatMarkdown, "md":
		*f = FormatMarkdown
	case FormatPDF:
		*f = FormatPDF
	default:
		return fmt.Errorf("unknown export format %q (want json, yaml, markdown or pdf)", value)
	}
	return nil
}

func (f *Format) String() string {
	return string(*f)
}

func (f *Format) Type() string {
	return "Format"
}

// Extension is the file extension including the leading dot.
func (f Format) Extension() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatMarkdown:
		return ".md"
	case FormatPDF:
		return ".pdf"
	default:
		return ".json"
	}
}

// Document is a study set with the title it is exported under.
type Document struct {
	Title string `json:"title" yaml:"title"`

	inference.GenerationResult `yaml:",inline"`
}

//go:embed templates/study-set.md.go.tmpl
var fallbackStudySetTemplate string

const fallbackTemplateName = "study-set.md.go.tmpl"

// Exporter renders documents. The zero value is not usable; call NewExporter.
type Exporter struct {
	markdown *template.Template
}

// NewExporter parses the markdown template at templatePath,
// falling back to the embedded template when the path is empty, missing or unparsable.
func NewExporter(templatePath string) (*Exporter, error) {
	tmpl, err := parseTemplateWithFallback(templatePath)
	if err != nil {
		return nil, err
	}
	return &Exporter{markdown: tmpl}, nil
}

// TemplateName reports which markdown template is in use.
func (e *Exporter) TemplateName() string {
	return e.markdown.Name()
}

// Write renders doc to w. PDF needs a file and is only supported by WriteFile.
func (e *Exporter) Write(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(doc); err != nil {
			return fmt.Errorf("encoder.Encode(json) > %w", err)
		}
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(doc); err != nil {
			return fmt.Errorf("encoder.Encode(yaml) > %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("encoder.Close() > %w", err)
		}
	case FormatMarkdown:
		if err := e.markdown.Execute(w, doc); err != nil {
			return fmt.Errorf("template.Execute(%s) > %w", e.markdown.Name(), err)
		}
	default:
		return fmt.Errorf("format %q cannot be written to a stream", format)
	}
	return nil
}

// WriteFile writes doc to dir/name with the format's extension and returns the absolute path.
func (e *Exporter) WriteFile(dir, name string, format Format, doc Document) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
	}
	path := filepath.Join(dir, name+format.Extension())

	if format == FormatPDF {
		var markdown bytes.Buffer
		if err := e.Write(&markdown, FormatMarkdown, doc); err != nil {
			return "", err
		}
		renderer := mdtopdf.NewPdfRenderer("P", "A4", path, "", nil, mdtopdf.LIGHT)
		if err := renderer.Process(markdown.Bytes()); err != nil {
			return "", fmt.Errorf("renderer.Process() > %w", err)
		}
		return absolute(path), nil
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("os.Create(%s) > %w", path, err)
	}
	if err := e.Write(file, format, doc); err != nil {
		_ = file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("file.Close(%s) > %w", path, err)
	}
	return absolute(path), nil
}

func absolute(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

type mindmapLine struct {
	Depth   int
	Label   string
	Content string
}

func flattenMindmap(root inference.MindmapNode) []mindmapLine {
	var lines []mindmapLine
	var walk func(node inference.MindmapNode, depth int)
	walk = func(node inference.MindmapNode, depth int) {
		lines = append(lines, mindmapLine{Depth: depth, Label: node.Label, Content: node.Content})
		for _, child := range node.Children {
			walk(child, depth+1)
		}
	}
	walk(root, 0)
	return lines
}

func parseTemplateWithFallback(templatePath string) (*template.Template, error) {
	funcMap := template.FuncMap{
		"join":    strings.Join,
		"inc":     func(i int) int { return i + 1 },
		"letter":  func(i int) string { return string(rune('A' + i)) },
		"indent":  func(depth int) string { return strings.Repeat("  ", depth) },
		"mindmap": flattenMindmap,
	}

	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			tmpl, err := template.New(filepath.Base(templatePath)).
				Funcs(funcMap).
				ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse a markdown template, using the embedded one",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	tmpl, err := template.New(fallbackTemplateName).
		Funcs(funcMap).
		Parse(fallbackStudySetTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}
