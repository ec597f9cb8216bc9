package providers

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/tailored-agentic-units/insight/core/protocol"
)

// BaseProvider implements the request body shapes shared by OpenAI-compatible
// APIs. Concrete providers embed it and add endpoints and headers.
type BaseProvider struct {
	name    string
	baseURL string
}

// NewBaseProvider creates a BaseProvider. A trailing slash on baseURL is dropped.
func NewBaseProvider(name, baseURL string) *BaseProvider {
	return &BaseProvider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (p *BaseProvider) Name() string {
	return p.name
}

func (p *BaseProvider) BaseURL() string {
	return p.baseURL
}

type wireTool struct {
	Type     string        `json:"type"`
	Function protocol.Tool `json:"function"`
}

// Marshal builds the request body. Chat requests are always streamed; tools
// requests never are. Options are merged at the top level of the body.
func (p *BaseProvider) Marshal(proto protocol.Protocol, data any) ([]byte, error) {
	switch proto {
	case protocol.Chat:
		d, ok := data.(*ChatData)
		if !ok {
			return nil, fmt.Errorf("invalid data type for chat protocol: %T", data)
		}
		body := make(map[string]any, len(d.Options)+3)
		maps.Copy(body, d.Options)
		body["model"] = d.Model
		body["messages"] = protocol.ToWire(d.Messages)
		body["stream"] = true
		return json.Marshal(body)

	case protocol.Tools:
		d, ok := data.(*ToolsData)
		if !ok {
			return nil, fmt.Errorf("invalid data type for tools protocol: %T", data)
		}
		tools := make([]wireTool, len(d.Tools))
		for i, t := range d.Tools {
			tools[i] = wireTool{Type: "function", Function: t}
		}
		body := make(map[string]any, len(d.Options)+4)
		maps.Copy(body, d.Options)
		body["model"] = d.Model
		body["messages"] = protocol.ToWire(d.Messages)
		body["tools"] = tools
		body["stream"] = false
		return json.Marshal(body)

	default:
		return nil, fmt.Errorf("unsupported protocol: %s", proto)
	}
}
