package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/tailored-agentic-units/insight/artifacts"
	"github.com/tailored-agentic-units/insight/core/protocol"
	"github.com/tailored-agentic-units/insight/imagegen"
)

// Builtin tool names.
const (
	WebSearch     = "web_search"
	GenerateImage = "generate_image"
)

// NoRelevantResults replaces an empty or "no results" search digest so the
// model never sees the bare placeholder.
const NoRelevantResults = "The web search returned no relevant results for this query."

// Searcher runs a web search and returns a text digest. It reports failures
// as text rather than errors.
type Searcher interface {
	Search(ctx context.Context, query string) string
}

// ImageGenerator renders a prompt to encoded image bytes.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Builtins are the collaborators of the builtin tools.
type Builtins struct {
	Search    Searcher
	Images    ImageGenerator
	Artifacts artifacts.Store

	// Now stamps artifact names; defaults to time.Now.
	Now func() time.Time
}

// WebSearchTool declares web_search(query).
var WebSearchTool = protocol.Tool{
	Name:        WebSearch,
	Description: "Search the web for up-to-date or missing information.",
	Parameters:  protocol.StringParameters("query", ""),
}

// GenerateImageTool declares generate_image(prompt).
var GenerateImageTool = protocol.Tool{
	Name:        GenerateImage,
	Description: "Generate an artistic image based on a text prompt.",
	Parameters:  protocol.StringParameters("prompt", "The detailed description of the image to generate."),
}

// RegisterBuiltins registers web_search and generate_image on r, in that order.
func RegisterBuiltins(r *Registry, b Builtins) error {
	if b.Now == nil {
		b.Now = time.Now
	}
	if err := r.Register(WebSearchTool, b.webSearch); err != nil {
		return err
	}
	return r.Register(GenerateImageTool, b.generateImage)
}

func (b Builtins) webSearch(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(args.Query) == "" {
		return Result{}, fmt.Errorf("%w: query is required", ErrInvalidArguments)
	}

	digest := b.Search.Search(ctx, args.Query)
	if strings.TrimSpace(digest) == "" || strings.Contains(digest, "No results found") {
		digest = NoRelevantResults
	}
	return Result{Content: digest}, nil
}

func (b Builtins) generateImage(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(args.Prompt) == "" {
		return Result{}, fmt.Errorf("%w: prompt is required", ErrInvalidArguments)
	}

	data, err := b.Images.Generate(ctx, args.Prompt)
	if err != nil {
		return imageFailure(err), nil
	}

	if converted, err := imagegen.ToPNG(data); err == nil {
		data = converted
	}

	key := artifactKey(SessionFromContext(ctx), b.Now())
	p, err := b.Artifacts.Save(ctx, key, data)
	if err != nil {
		return imageFailure(err), nil
	}

	return Result{
		Content:  "Generated image for: " + args.Prompt,
		Artifact: p,
		Reply:    fmt.Sprintf("I've generated a visualization for you: **%s**", args.Prompt),
	}, nil
}

func imageFailure(err error) Result {
	return Result{
		Content: err.Error(),
		IsError: true,
		Reply:   "I tried to generate that image, but ran into an issue: " + err.Error(),
	}
}

func artifactKey(sessionID string, t time.Time) string {
	name := "img_" + t.Format("2006-01-02_15-04-05.000") + ".png"
	if sessionID == "" {
		return name
	}
	return path.Join(sessionID, name)
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}
