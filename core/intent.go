package tray

import "github.com/koscakluka/ema-tray/core/nlu"

// IntentResult is what the host answers a classified utterance with.
//
// Node names the conversation node the answer belongs to and is matched
// against the configured exit nodes. Prompt is spoken and displayed. Data is
// passed through to observers untouched.
type IntentResult struct {
	Node   string
	Prompt string
	Data   any
}

// IntentHandler maps a classification to an IntentResult. Returning nil
// drops the classification.
type IntentHandler func(intent string, slots map[string]nlu.Slot, utterance string) *IntentResult
