package models

import (
	"errors"
	"os"
)

// DownloadedModelSet holds the local paths of the six model files.
type DownloadedModelSet struct {
	NLUModel       string
	NLUMetadata    string
	NLUVocabulary  string
	WakewordFilter string
	WakewordEncode string
	WakewordDetect string
}

func (s DownloadedModelSet) paths() []string {
	return []string{
		s.NLUModel,
		s.NLUMetadata,
		s.NLUVocabulary,
		s.WakewordFilter,
		s.WakewordEncode,
		s.WakewordDetect,
	}
}

// Missing lists the paths that do not exist on disk.
func (s DownloadedModelSet) Missing() []string {
	var missing []string
	for _, p := range s.paths() {
		if p == "" {
			missing = append(missing, p)
			continue
		}
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			missing = append(missing, p)
		}
	}
	return missing
}

func (s *DownloadedModelSet) set(key, p string) {
	switch key {
	case KeyNLUModel:
		s.NLUModel = p
	case KeyNLUMetadata:
		s.NLUMetadata = p
	case KeyNLUVocabulary:
		s.NLUVocabulary = p
	case KeyWakewordFilter:
		s.WakewordFilter = p
	case KeyWakewordEncode:
		s.WakewordEncode = p
	case KeyWakewordDetect:
		s.WakewordDetect = p
	}
}
