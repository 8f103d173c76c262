package agent

import (
	"encoding/json"

	"finchat/internal/domain"
)

// Outbound frame types sent to the agent service.
const (
	frameMessage     = "message"
	framePing        = "ping"
	frameCancel      = "cancel"
	frameClientError = "client_error"
)

// outFrame is the envelope for client → agent frames.
type outFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Theme   string `json:"theme,omitempty"`
	Model   string `json:"model,omitempty"`
	Error   string `json:"error,omitempty"`
}

// inFrame is the wire shape of agent → client frames. One loose struct
// is decoded and then narrowed into a domain.AgentEvent variant; fields
// irrelevant to a given type are simply left zero.
type inFrame struct {
	Type    string             `json:"type"`
	Content string             `json:"content"`
	Source  string             `json:"source"`
	Tool    string             `json:"tool"`
	Code    string             `json:"code"`
	Output  string             `json:"output"`
	To      string             `json:"to"`
	Message string             `json:"message"`
	Usage   *domain.TokenUsage `json:"usage"`
}

// DecodeEvent parses a raw inbound frame into its event variant.
// Malformed frames and unrecognized types return ok=false; the protocol
// is forward-compatible and requires dropping them silently.
func DecodeEvent(data []byte) (domain.AgentEvent, bool) {
	var f inFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, false
	}

	switch f.Type {
	case "thinking_delta":
		return domain.ThinkingDelta{Content: f.Content}, true
	case "text_delta":
		return domain.TextDelta{Content: f.Content, Source: f.Source}, true
	case "text":
		return domain.TextMessage{Content: f.Content, Source: f.Source}, true
	case "tool_start":
		return domain.ToolStart{Tool: f.Tool, Code: f.Code}, true
	case "tool_result":
		return domain.ToolResult{Output: f.Output}, true
	case "handoff":
		return domain.Handoff{To: f.To}, true
	case "cf_model_updated":
		return domain.Notification{Kind: domain.NotifyModelUpdated}, true
	case "cf_insight_published":
		return domain.Notification{Kind: domain.NotifyInsightPublished}, true
	case "cf_forecast_algo_published":
		return domain.Notification{Kind: domain.NotifyForecastAlgoPublished}, true
	case "message_complete":
		return domain.MessageComplete{Usage: f.Usage}, true
	case "cancelled":
		return domain.Cancelled{}, true
	case "error":
		return domain.ErrorEvent{Message: f.Message}, true
	case "status":
		return domain.StatusEvent{Message: f.Message}, true
	default:
		return nil, false
	}
}
