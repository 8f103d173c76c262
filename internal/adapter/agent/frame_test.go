package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finchat/internal/domain"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.AgentEvent
	}{
		{"thinking delta", `{"type":"thinking_delta","content":"hm"}`, domain.ThinkingDelta{Content: "hm"}},
		{"text delta", `{"type":"text_delta","content":"hi","source":"assistant"}`, domain.TextDelta{Content: "hi", Source: "assistant"}},
		{"text delta data processor", `{"type":"text_delta","content":"x","source":"data_processor"}`, domain.TextDelta{Content: "x", Source: "data_processor"}},
		{"text", `{"type":"text","content":"done","source":"assistant"}`, domain.TextMessage{Content: "done", Source: "assistant"}},
		{"tool start", `{"type":"tool_start","tool":"run_code","code":"print(1)"}`, domain.ToolStart{Tool: "run_code", Code: "print(1)"}},
		{"tool result", `{"type":"tool_result","output":"42"}`, domain.ToolResult{Output: "42"}},
		{"handoff", `{"type":"handoff","to":"forecaster"}`, domain.Handoff{To: "forecaster"}},
		{"model updated", `{"type":"cf_model_updated"}`, domain.Notification{Kind: domain.NotifyModelUpdated}},
		{"insight published", `{"type":"cf_insight_published"}`, domain.Notification{Kind: domain.NotifyInsightPublished}},
		{"forecast algo published", `{"type":"cf_forecast_algo_published"}`, domain.Notification{Kind: domain.NotifyForecastAlgoPublished}},
		{"cancelled", `{"type":"cancelled"}`, domain.Cancelled{}},
		{"error", `{"type":"error","message":"boom"}`, domain.ErrorEvent{Message: "boom"}},
		{"status", `{"type":"status","message":"retrying"}`, domain.StatusEvent{Message: "retrying"}},
		{"complete without usage", `{"type":"message_complete"}`, domain.MessageComplete{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeEvent([]byte(tt.raw))
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeEventUsage(t *testing.T) {
	raw := `{"type":"message_complete","usage":{
		"prompt_tokens":30,"completion_tokens":12,"total_tokens":42,
		"cache_read_input_tokens":7,
		"session_prompt_tokens":300,"session_completion_tokens":120,"session_total_tokens":420,
		"model":"fin-1"}}`
	got, ok := DecodeEvent([]byte(raw))
	require.True(t, ok)

	complete, isComplete := got.(domain.MessageComplete)
	require.True(t, isComplete)
	require.NotNil(t, complete.Usage)
	assert.Equal(t, 42, complete.Usage.TotalTokens)
	assert.Equal(t, 7, complete.Usage.CacheReadInputTokens)
	assert.Equal(t, 420, complete.Usage.SessionTotalTokens)
	assert.Equal(t, "fin-1", complete.Usage.Model)
}

func TestDecodeEventDropsGarbage(t *testing.T) {
	for _, raw := range []string{
		`not json at all`,
		`{"type":"some_future_thing","content":"x"}`,
		``,
		`{}`,
	} {
		ev, ok := DecodeEvent([]byte(raw))
		assert.False(t, ok, "raw=%q", raw)
		assert.Nil(t, ev)
	}
}
