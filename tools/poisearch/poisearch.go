// Copyright 2025 TripWise
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package poisearch discovers points of interest for a city from Wikipedia:
// geosearch around the city center for landmarks, full-text category searches
// for the user's interests, then relevance filtering and scoring. Results are
// cached per city+interests for the duration of a planning session.
package poisearch

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"

	"tripwise/platform/shared/logger"
	"tripwise/platform/shared/types"
	"tripwise/platform/tools/base"
	"tripwise/platform/tools/traveltime"
)

// ToolName is the registry key for the place search tool.
const ToolName = "poi_search"

const (
	geosearchRadiusM = 10000
	geosearchLimit   = 30
	categoryLimit    = 12

	// maxDistanceKm drops pages whose coordinates are implausibly far from
	// the resolved city center; full-text search frequently surfaces pages
	// about other places that merely mention the city.
	maxDistanceKm = 50

	cacheTTL = 15 * time.Minute

	interestBoost = 0.3
)

// defaultCategories are always searched alongside the user's interests.
var defaultCategories = []string{"Tourist attractions", "Museums", "Gardens", "Food", "Shopping"}

// bannedKeywords mark page titles that are not visitable tourist places:
// administrative areas, institutions, infrastructure and historical events.
var bannedKeywords = []string{
	"siege", "bombing", "battle", "war", "office", "establishment", "laboratory",
	"garrison", "headquarters", "ministry", "department", "metro station",
	"junction", "bus stand", "university of", "institute of", "industrial",
	"list of", "district", "division", "region", "state", "province",
	"territory", "taluk", "mandel", "subdistrict",
}

// Input is the search request.
type Input struct {
	City      string   `json:"city"`
	Interests []string `json:"interests"`
}

// Output is the ranked candidate list. Its candidates are the grounding
// universe for the session that issued the search.
type Output struct {
	Candidates []types.POICandidate `json:"candidates"`
}

// Tool implements place search over the Wikipedia API.
type Tool struct {
	client *Client
	cache  *gocache.Cache
	logger *logger.Logger
}

// New creates the POI search tool.
func New(client *Client, log *logger.Logger) *Tool {
	return &Tool{
		client: client,
		cache:  gocache.New(cacheTTL, 2*cacheTTL),
		logger: log,
	}
}

func (t *Tool) Name() string { return ToolName }

func (t *Tool) Description() string {
	return "Finds and ranks points of interest for a city from Wikipedia."
}

func (t *Tool) InputSchema() base.Schema {
	return base.Schema{Fields: []base.FieldSpec{
		{Name: "city", Kind: base.KindString, Required: true},
		{Name: "interests", Kind: base.KindArray, Required: true},
	}}
}

func (t *Tool) OutputSchema() base.Schema {
	return base.Schema{Fields: []base.FieldSpec{
		{Name: "candidates", Kind: base.KindArray, Required: true},
	}}
}

// Execute runs the discovery pipeline for the requested city.
func (t *Tool) Execute(ctx context.Context, input any) (any, error) {
	in, err := decodeInput(input)
	if err != nil {
		return nil, err
	}

	key := cacheKey(in)
	if cached, ok := t.cache.Get(key); ok {
		return cached.(Output), nil
	}

	center, err := t.client.ResolveCity(ctx, in.City)
	if err != nil {
		return nil, fmt.Errorf("city resolution failed: %w", err)
	}

	t.logger.Info("", "", fmt.Sprintf("Resolved %s to %.4f,%.4f", in.City, center.Lat, center.Lng), nil)

	raw, err := t.discover(ctx, in, center)
	if err != nil {
		return nil, err
	}

	candidates := t.normalize(in, center, raw)
	out := Output{Candidates: candidates}
	t.cache.Set(key, out, gocache.DefaultExpiration)
	return out, nil
}

// discover gathers nearby landmarks plus category matches, deduplicated by
// title, and enriches missing descriptions.
func (t *Tool) discover(ctx context.Context, in Input, center types.GeoPoint) ([]rawPlace, error) {
	places, err := t.client.Geosearch(ctx, center, geosearchRadiusM, geosearchLimit)
	if err != nil {
		return nil, fmt.Errorf("geosearch failed: %w", err)
	}

	seen := make(map[string]bool, len(places))
	for _, p := range places {
		seen[p.Name] = true
	}

	categories := lo.Uniq(append(append([]string{}, in.Interests...), defaultCategories...))
	for _, cat := range categories {
		matches, err := t.client.CategorySearch(ctx, cat, in.City, categoryLimit)
		if err != nil {
			// A single category failing should not sink the whole search.
			t.logger.Warn("", "", fmt.Sprintf("Category search failed for %s", cat), map[string]any{
				"error": err.Error(),
			})
			continue
		}
		for _, m := range matches {
			if seen[m.Name] || strings.EqualFold(m.Name, in.City) {
				continue
			}
			seen[m.Name] = true
			places = append(places, m)
		}
	}

	missing := lo.FilterMap(places, func(p rawPlace, _ int) (string, bool) {
		return p.Name, p.Description == ""
	})
	if len(missing) > 0 {
		extracts, err := t.client.Extracts(ctx, missing)
		if err == nil {
			for i := range places {
				if places[i].Description == "" {
					places[i].Description = extracts[places[i].Name]
				}
			}
		}
	}

	return places, nil
}

// normalize filters out non-visitable or distant pages and converts the rest
// to scored candidates, sorted by descending relevance.
func (t *Tool) normalize(in Input, center types.GeoPoint, places []rawPlace) []types.POICandidate {
	cityLower := strings.ToLower(in.City)

	kept := lo.Filter(places, func(p rawPlace, _ int) bool {
		title := strings.ToLower(p.Name)
		if title == cityLower || strings.Contains(title, "airport") {
			return false
		}
		for _, kw := range bannedKeywords {
			if strings.Contains(title, kw) {
				return false
			}
		}
		return traveltime.DistanceKm(center, p.Location) <= maxDistanceKm
	})

	prefix := cityLower
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}

	candidates := make([]types.POICandidate, 0, len(kept))
	for i, p := range kept {
		loc := p.Location
		desc := p.Description
		if desc == "" {
			desc = fmt.Sprintf("A location of interest in %s.", in.City)
		}
		poiType := p.Type
		if poiType == "" {
			poiType = "point_of_interest"
		}

		c := types.POICandidate{
			POIID:        fmt.Sprintf("poi_%s_%d", prefix, i),
			Name:         p.Name,
			Description:  desc,
			Location:     &loc,
			OpeningHours: "10:00 - 18:00",
			Types:        []string{poiType},
		}
		c.Score = score(c, in.Interests)
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// score derives a base relevance from a stable per-name rating in [4.0, 5.0)
// normalized to 0..1, boosted when the name or type matches an interest,
// capped at 1.0.
func score(c types.POICandidate, interests []string) float64 {
	s := rating(c.Name) / 5

	name := strings.ToLower(c.Name)
	matched := lo.SomeBy(interests, func(interest string) bool {
		il := strings.ToLower(interest)
		if strings.Contains(name, il) {
			return true
		}
		return lo.SomeBy(c.Types, func(t string) bool {
			return strings.Contains(strings.ToLower(t), il)
		})
	})
	if matched {
		s += interestBoost
		if s > 1.0 {
			s = 1.0
		}
	}
	return s
}

// rating maps a name to a stable pseudo-rating in [4.0, 5.0). Wikipedia has
// no rating data, so this stands in for one without making output
// nondeterministic.
func rating(name string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return 4.0 + float64(h.Sum32()%10)/10
}

func cacheKey(in Input) string {
	interests := append([]string{}, in.Interests...)
	sort.Strings(interests)
	return strings.ToLower(in.City) + "|" + strings.ToLower(strings.Join(interests, ","))
}

func decodeInput(input any) (Input, error) {
	switch v := input.(type) {
	case Input:
		return v, nil
	case *Input:
		return *v, nil
	case map[string]any:
		var in Input
		if err := base.DecodeMap(v, &in); err != nil {
			return Input{}, fmt.Errorf("failed to decode poi_search input: %w", err)
		}
		return in, nil
	default:
		return Input{}, fmt.Errorf("unsupported poi_search input type %T", input)
	}
}
