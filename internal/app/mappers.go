package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"pension_site/internal/domain"
)

// alias registry for the few fields the store indexes; the document itself is
// kept as delivered.
var contentAliases = map[string][]string{
	"name":        {"property.name", "name", "propertyName", "property.nameEn"},
	"property_id": {"property.id", "propertyId", "property_id", "id"},
	"gpension_id": {"gpension_id", "gpensionId", "property.gpension_id", "property.gpensionId"},
}

// envelopeKeys are wrappers some upstream versions put around the document.
var envelopeKeys = []string{"data", "content", "result"}

// lookupAny: nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func lookupStr(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func firstNonEmptyAlias(m map[string]any, key string) *string {
	for _, p := range contentAliases[key] {
		if s := lookupStr(m, p); s != "" {
			return &s
		}
	}
	return nil
}

// firstInt64Flexible: int64 from several paths (float64/string).
func firstInt64Flexible(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int64(v)
			return &x
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

// unwrap returns the document inside a known envelope, or p itself.
func unwrap(p map[string]any) map[string]any {
	if _, ok := p["property"]; ok {
		return p
	}
	for _, k := range envelopeKeys {
		if inner, ok := p[k].(map[string]any); ok {
			if _, ok := inner["property"]; ok {
				return inner
			}
		}
	}
	return p
}

// mapContent turns an upstream payload into a storable record. The document
// must decode as a content document; a payload that names a different
// property id is rejected.
func mapContent(id int64, payload map[string]any, fetchedAt time.Time) (domain.ContentRecord, error) {
	doc := unwrap(payload)

	if got := firstInt64Flexible(doc, contentAliases["property_id"]...); got != nil && *got != id {
		return domain.ContentRecord{}, fmt.Errorf("content %d: payload is for property %d", id, *got)
	}

	// promote the booking id to the top-level field the pages read
	if _, ok := doc["gpension_id"]; !ok {
		if g := firstNonEmptyAlias(doc, "gpension_id"); g != nil {
			doc["gpension_id"] = *g
		}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		log.Error().Err(err).Int64("property_id", id).Str("context", "mapContent").Msg("marshal content failed")
		return domain.ContentRecord{}, fmt.Errorf("content %d: %w", id, err)
	}
	parsed, err := domain.ParseDocument(raw)
	if err != nil {
		return domain.ContentRecord{}, fmt.Errorf("content %d: %w", id, err)
	}
	if len(parsed.Issues) > 0 {
		log.Warn().Int64("property_id", id).Strs("fields", parsed.Issues).Msg("content stored with undecodable fields")
	}

	return domain.ContentRecord{
		PropertyID: id,
		Name:       firstNonEmptyAlias(doc, "name"),
		RawJSON:    raw,
		FetchedAt:  fetchedAt.UTC(),
	}, nil
}
