package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatAPIError turns a backend error into a message for the end user.
// Errors that embed a JSON body of the form {"error":{"type":..,"message":..}}
// are reduced to that message; unknown-model errors get a hint.
func FormatAPIError(err error) string {
	if err == nil {
		return ""
	}
	raw := err.Error()

	start := strings.Index(raw, "{")
	if start < 0 {
		return raw
	}

	var body struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	dec := json.NewDecoder(strings.NewReader(raw[start:]))
	if dec.Decode(&body) != nil {
		return raw
	}

	if body.Error.Type == "not_found_error" {
		if model, ok := modelFromMessage(body.Error.Message); ok {
			return fmt.Sprintf("Invalid model '%s'. Please check your configuration and use a valid model name. "+
				"Common models: 'claude-sonnet-4-5-20250929' (Anthropic), 'gpt-4o' (OpenAI).", model)
		}
		return "Model not found. Please check your model configuration and ensure you're using a valid model name."
	}
	if body.Error.Message != "" {
		return body.Error.Message
	}
	return raw
}

// modelFromMessage returns the text after "model:" in messages like
// "model: claude-foo".
func modelFromMessage(msg string) (string, bool) {
	_, after, found := strings.Cut(msg, "model:")
	if !found {
		return "", false
	}
	model := strings.TrimSpace(after)
	return model, model != ""
}
