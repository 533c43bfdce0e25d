package models

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Logical model names used as keys in URLs.
const (
	KeyNLUMetadata    = "metadata"
	KeyNLUModel       = "nlu"
	KeyNLUVocabulary  = "vocab"
	KeyWakewordDetect = "detect"
	KeyWakewordEncode = "encode"
	KeyWakewordFilter = "filter"
)

// Keys lists every model a session needs, NLU models first.
var Keys = []string{
	KeyNLUModel,
	KeyNLUMetadata,
	KeyNLUVocabulary,
	KeyWakewordFilter,
	KeyWakewordEncode,
	KeyWakewordDetect,
}

const defaultWakewordBaseURL = "https://d3dmqd7cy685il.cloudfront.net/model/wake/spokestack/"

// URLs maps a logical model name to the remote location of the model file.
type URLs map[string]string

// DefaultWakewordURLs returns the stock wake-word model locations.
func DefaultWakewordURLs() URLs {
	return URLs{
		KeyWakewordDetect: defaultWakewordBaseURL + "detect.tflite",
		KeyWakewordEncode: defaultWakewordBaseURL + "encode.tflite",
		KeyWakewordFilter: defaultWakewordBaseURL + "filter.tflite",
	}
}

// Merge returns a copy of u with every entry of other layered on top.
func (u URLs) Merge(other URLs) URLs {
	merged := make(URLs, len(u)+len(other))
	for key, value := range u {
		merged[key] = value
	}
	for key, value := range other {
		merged[key] = value
	}
	return merged
}

// Validate reports the first missing or unparsable model URL.
func (u URLs) Validate() error {
	var missing []string
	for _, key := range Keys {
		if strings.TrimSpace(u[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", ErrMissingModelURL, strings.Join(missing, ", "))
	}

	for _, key := range Keys {
		parsed, err := url.Parse(u[key])
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMissingModelURL, key, err)
		}
		if fileName(parsed) == "" {
			return fmt.Errorf("%w: %s has no file name", ErrMissingModelURL, key)
		}
	}
	return nil
}

func fileName(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

// destination is where the model at rawURL is stored inside dir.
func destination(dir, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingModelURL, err)
	}
	name := fileName(parsed)
	if name == "" {
		return "", fmt.Errorf("%w: %q has no file name", ErrMissingModelURL, rawURL)
	}
	return filepath.Join(dir, name), nil
}
