// Package model defines shared data structures.
package model

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Config defines client settings after merging file, env and flags.
type Config struct {
	ServerURL         string
	LangPair          string
	Timeout           time.Duration
	PollInterval      time.Duration
	RequestsPerSecond float64
	CharLimit         int
	NoticeDuration    time.Duration
	GPUNotice         string
	History           bool
}

// HistoryConfig defines filters for history output.
type HistoryConfig struct {
	LangPair string
	Since    *time.Time
	Last     int
}

// LanguageInfo describes one language pair offered by the service.
type LanguageInfo struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Catalog maps language-pair keys (e.g. "en-fr") to display metadata.
type Catalog map[string]LanguageInfo

// Keys returns the pair keys in stable order.
func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Label returns the display name for a pair, falling back to language names.
func (c Catalog) Label(pair string) string {
	if info, ok := c[pair]; ok && info.Name != "" {
		return info.Name
	}
	return PairLabel(pair)
}

// SplitPair splits "src-dst" into its two codes.
func SplitPair(pair string) (source, target string, ok bool) {
	source, target, ok = strings.Cut(pair, "-")
	if !ok || source == "" || target == "" {
		return "", "", false
	}
	return source, target, true
}

// PairLabel builds "English to French" from "en-fr".
func PairLabel(pair string) string {
	source, target, ok := SplitPair(pair)
	if !ok {
		return pair
	}
	return languageName(source) + " to " + languageName(target)
}

func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return code
	}
	return name
}

// ModelStatus is the payload of the service's model status endpoint.
type ModelStatus struct {
	LoadedModels     []string `json:"loaded_models"`
	PreloadingModels []string `json:"preloading_models"`
	GPUAvailable     bool     `json:"gpu_available"`
}

// TranslationRecord captures one translation attempt for history.
type TranslationRecord struct {
	SessionID      string
	CreatedAt      time.Time
	LangPair       string
	SourceChars    int
	ElapsedMs      int64
	ServerReported bool
	Succeeded      bool
	Error          string
}

// PairAggregate summarizes successful translations for one language pair.
type PairAggregate struct {
	LangPair     string
	Count        int
	TotalMs      int64
	FastestMs    int64
	SlowestMs    int64
	TotalChars   int
	FailureCount int
}
