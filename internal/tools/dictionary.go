package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"ragagent/internal/domain"
)

// DictionaryName identifies the dictionary tool in route decisions and results.
const DictionaryName = "dictionary"

// NoDefinition is returned whenever a lookup yields nothing usable.
const NoDefinition = "No definition found"

// DefaultDictionaryURL is the free dictionary API endpoint.
const DefaultDictionaryURL = "https://api.dictionaryapi.dev/api/v2/entries/en/"

// DictionaryConfig configures the definition lookup service.
type DictionaryConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Dictionary looks up the first definition of a single word.
type Dictionary struct {
	client *resty.Client
	log    zerolog.Logger
}

type dictionaryEntry struct {
	Meanings []struct {
		Definitions []struct {
			Definition string `json:"definition"`
		} `json:"definitions"`
	} `json:"meanings"`
}

// NewDictionary creates a dictionary tool backed by an HTTP lookup service.
func NewDictionary(cfg DictionaryConfig, log zerolog.Logger) *Dictionary {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultDictionaryURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	return &Dictionary{client: client, log: log}
}

// Name returns the tool name.
func (d *Dictionary) Name() string { return DictionaryName }

// Run looks up word. Network faults, non-200 responses, malformed bodies and
// empty result sets all yield NoDefinition.
func (d *Dictionary) Run(ctx context.Context, word string) domain.ToolResult {
	word = strings.ToLower(strings.TrimSpace(word))
	res := domain.ToolResult{Tool: DictionaryName, Input: word, Output: NoDefinition}
	if word == "" {
		return res
	}

	resp, err := d.client.R().SetContext(ctx).Get(url.PathEscape(word))
	if err != nil {
		d.log.Warn().Err(err).Str("word", word).Msg("dictionary lookup failed")
		return res
	}
	if resp.StatusCode() != http.StatusOK {
		d.log.Debug().Int("status", resp.StatusCode()).Str("word", word).Msg("dictionary lookup returned no entry")
		return res
	}

	var entries []dictionaryEntry
	if err := json.Unmarshal(resp.Body(), &entries); err != nil {
		d.log.Warn().Err(err).Str("word", word).Msg("malformed dictionary response")
		return res
	}
	if len(entries) == 0 || len(entries[0].Meanings) == 0 || len(entries[0].Meanings[0].Definitions) == 0 {
		return res
	}
	if def := entries[0].Meanings[0].Definitions[0].Definition; def != "" {
		res.Output = def
	}
	return res
}
