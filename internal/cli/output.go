package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/glamour"
)

// OutputFormatter handles four output modes: JSON, quiet, markdown and
// human-readable
type OutputFormatter struct {
	JSON     bool
	Quiet    bool
	Markdown bool

	// MarkdownStyle is a glamour style name; empty picks one from the terminal
	MarkdownStyle string
}

// Markdowner is implemented by results that have a markdown rendering
type Markdowner interface {
	Markdown() string
}

// Success outputs successful operation result
func (f *OutputFormatter) Success(data any) error {
	if f.Quiet {
		// Extract ID if possible
		if idGetter, ok := data.(interface{ GetID() string }); ok {
			fmt.Println(idGetter.GetID())
			return nil
		}
	}

	if f.JSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"success": true,
			"data":    data,
		})
	}

	if f.Markdown {
		if md, ok := data.(Markdowner); ok {
			return f.renderMarkdown(md.Markdown())
		}
	}

	// Human-readable format
	return f.prettyPrint(data)
}

// Error outputs error information
func (f *OutputFormatter) Error(code string, message string) error {
	return f.ErrorWithSuggestion(code, message, "")
}

// ErrorWithSuggestion outputs error information with an optional suggestion
func (f *OutputFormatter) ErrorWithSuggestion(code string, message string, suggestion string) error {
	if f.JSON {
		errData := map[string]any{
			"code":    code,
			"message": message,
		}
		if suggestion != "" {
			errData["suggestion"] = suggestion
		}
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"success": false,
			"error":   errData,
		})
	}

	// Human-readable error
	fmt.Fprintf(os.Stderr, "❌ Error: %s\n", message)
	if suggestion != "" {
		fmt.Fprintf(os.Stderr, "💡 Suggestion: %s\n", suggestion)
	}
	return nil
}

// prettyPrint prints data through its String method when it has one
func (f *OutputFormatter) prettyPrint(data any) error {
	if s, ok := data.(fmt.Stringer); ok {
		fmt.Print(s.String())
		return nil
	}
	fmt.Printf("%+v\n", data)
	return nil
}

const markdownWidth = 100

var rendererCache sync.Map // style name -> *glamour.TermRenderer

func markdownRenderer(style string) (*glamour.TermRenderer, error) {
	if cached, ok := rendererCache.Load(style); ok {
		return cached.(*glamour.TermRenderer), nil
	}

	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStylePath(style)
	}
	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(markdownWidth))
	if err != nil {
		return nil, err
	}
	rendererCache.Store(style, renderer)
	return renderer, nil
}

// RenderMarkdown renders md for the terminal with the given glamour style
func RenderMarkdown(md, style string) (string, error) {
	renderer, err := markdownRenderer(style)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

func (f *OutputFormatter) renderMarkdown(md string) error {
	out, err := RenderMarkdown(md, f.MarkdownStyle)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
