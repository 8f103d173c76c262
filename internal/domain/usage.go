package domain

// TokenUsage carries the token accounting attached to a completed exchange.
// The session_* counters are the server's running totals for the current
// session; the unprefixed counters cover the most recent call only.
type TokenUsage struct {
	PromptTokens             int `json:"prompt_tokens"`
	CompletionTokens         int `json:"completion_tokens"`
	TotalTokens              int `json:"total_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
	UncachedInputTokens      int `json:"uncached_input_tokens,omitempty"`

	SessionPromptTokens             int `json:"session_prompt_tokens,omitempty"`
	SessionCompletionTokens         int `json:"session_completion_tokens,omitempty"`
	SessionTotalTokens              int `json:"session_total_tokens,omitempty"`
	SessionCacheCreationInputTokens int `json:"session_cache_creation_input_tokens,omitempty"`
	SessionCacheReadInputTokens     int `json:"session_cache_read_input_tokens,omitempty"`

	Model string `json:"model,omitempty"`
}
