package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	domain "github.com/bryanwahyu/seoscan/internal/domain/ai"
	"github.com/bryanwahyu/seoscan/internal/domain/reports"
)

var fenceRx = regexp.MustCompile("(?s)```(?:json|JSON)?(.*?)```")

// ExtractJSON pulls the JSON object out of raw model output: fenced blocks
// are unwrapped and any commentary before the first '{' or after the last
// '}' is dropped.
func ExtractJSON(text string) string {
	s := text
	if strings.Contains(s, "```") {
		if m := fenceRx.FindStringSubmatch(s); m != nil {
			s = m[1]
		}
	}
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '{'); i > 0 {
		s = s[i:]
	}
	if j := strings.LastIndexByte(s, '}'); j >= 0 && j < len(s)-1 {
		s = s[:j+1]
	}
	return s
}

// ExtractSuggestions reads a suggestion payload out of model output. It fails
// only when no JSON object can be parsed; missing or mistyped sections become
// empty arrays and malformed entries are dropped.
func ExtractSuggestions(text string) (reports.Suggestions, error) {
	raw := ExtractJSON(text)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return reports.Suggestions{}, fmt.Errorf("%w: %v", domain.ErrUnparseableResponse, err)
	}
	if obj == nil {
		return reports.Suggestions{}, fmt.Errorf("%w: null", domain.ErrUnparseableResponse)
	}

	out := reports.Suggestions{
		Issues:           decodeEach[reports.Issue](obj["issues"]),
		Recommendations:  decodeEach[reports.Recommendation](obj["recommendations"]),
		MetaTagsDetails:  decodeEach[reports.Detail](obj["metaTagsDetails"]),
		ContentDetails:   decodeEach[reports.Detail](obj["contentDetails"]),
		TechnicalDetails: decodeEach[reports.Detail](obj["technicalDetails"]),
	}
	return out.Normalize(), nil
}

// decodeEach decodes a JSON array element by element. Anything that is not an
// array yields an empty slice; elements that are not objects are skipped.
func decodeEach[T any](raw json.RawMessage) []T {
	out := []T{}
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
