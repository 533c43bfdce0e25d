package groq

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Metadata lists the intents and slots the NLU model was trained on.
type Metadata struct {
	Intents []Intent `json:"intents"`
	Tags    []string `json:"tags,omitempty"`
}

type Intent struct {
	Name  string       `json:"name"`
	Slots []SlotSchema `json:"slots"`
}

type SlotSchema struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Facets string `json:"facets,omitempty"`
}

func readMetadata(path string) (*Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read nlu metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(content, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse nlu metadata: %w", err)
	}
	if len(metadata.Intents) == 0 {
		return nil, fmt.Errorf("nlu metadata lists no intents")
	}
	return &metadata, nil
}

func (m *Metadata) intent(name string) (Intent, bool) {
	for _, intent := range m.Intents {
		if intent.Name == name {
			return intent, true
		}
	}
	return Intent{}, false
}

// describe renders the intents for the classification prompt.
func (m *Metadata) describe() string {
	var description strings.Builder
	for _, intent := range m.Intents {
		description.WriteString("- ")
		description.WriteString(intent.Name)
		if len(intent.Slots) > 0 {
			slots := make([]string, 0, len(intent.Slots))
			for _, slot := range intent.Slots {
				slots = append(slots, fmt.Sprintf("%s (%s)", slot.Name, slot.Type))
			}
			description.WriteString(" with slots: ")
			description.WriteString(strings.Join(slots, ", "))
		}
		description.WriteString("\n")
	}
	return description.String()
}

// vocabulary is the set of tokens the model knows.
type vocabulary map[string]struct{}

func readVocabulary(path string) (vocabulary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read nlu vocabulary: %w", err)
	}
	defer file.Close()

	tokens := vocabulary{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if token := strings.TrimSpace(scanner.Text()); token != "" {
			tokens[strings.ToLower(token)] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read nlu vocabulary: %w", err)
	}
	return tokens, nil
}

// unknown returns the words of utterance missing from the vocabulary.
func (v vocabulary) unknown(utterance string) []string {
	if len(v) == 0 {
		return nil
	}

	var unknown []string
	for _, word := range strings.Fields(strings.ToLower(utterance)) {
		word = strings.Trim(word, ".,!?;:\"'")
		if word == "" {
			continue
		}
		if _, ok := v[word]; !ok {
			unknown = append(unknown, word)
		}
	}
	return unknown
}
