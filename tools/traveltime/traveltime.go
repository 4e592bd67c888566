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

// Package traveltime estimates point-to-point travel cost from great-circle
// distance scaled by a mode-dependent average city speed, plus a fixed buffer
// for traffic and stops. It never calls a routing service.
package traveltime

import (
	"context"
	"fmt"
	"math"

	"tripwise/platform/shared/types"
	"tripwise/platform/tools/base"
)

// ToolName is the registry key for the travel-time estimator.
const ToolName = "travel_time"

// Average city speeds in km/h per travel mode.
const (
	speedDriving = 30.0
	speedWalking = 4.5
	speedTransit = 15.0

	// bufferMin is added to every estimate to absorb traffic and stops.
	bufferMin = 10

	earthRadiusKm = 6371.0
)

// Input is the travel-time request between two coordinates.
type Input struct {
	Origin      types.GeoPoint `json:"origin"`
	Destination types.GeoPoint `json:"destination"`
	Mode        string         `json:"mode,omitempty"` // driving (default), walking, transit
}

// Output is the travel estimate for one leg.
type Output struct {
	TravelTimeMin int     `json:"travel_time_min"`
	DistanceKm    float64 `json:"distance_km"`
}

// DistanceKm returns the haversine great-circle distance between two points.
func DistanceKm(origin, destination types.GeoPoint) float64 {
	dLat := (destination.Lat - origin.Lat) * math.Pi / 180
	dLng := (destination.Lng - origin.Lng) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(origin.Lat*math.Pi/180)*math.Cos(destination.Lat*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Estimate computes the travel estimate without going through the gateway.
// The pipeline's per-day refinement loop calls this directly via the registry.
func Estimate(origin, destination types.GeoPoint, mode string) Output {
	speed := speedDriving
	switch mode {
	case "walking":
		speed = speedWalking
	case "transit":
		speed = speedTransit
	}

	dist := DistanceKm(origin, destination)
	timeMin := int(math.Round(dist/speed*60)) + bufferMin

	return Output{
		TravelTimeMin: timeMin,
		DistanceKm:    math.Round(dist*100) / 100,
	}
}

// Tool exposes the estimator through the tool gateway.
type Tool struct{}

// New creates the travel-time tool.
func New() *Tool { return &Tool{} }

func (t *Tool) Name() string { return ToolName }

func (t *Tool) Description() string {
	return "Estimates travel time and distance between two geographic coordinates."
}

func (t *Tool) InputSchema() base.Schema {
	return base.Schema{Fields: []base.FieldSpec{
		{Name: "origin", Kind: base.KindObject, Required: true},
		{Name: "destination", Kind: base.KindObject, Required: true},
		{Name: "mode", Kind: base.KindString, Required: false},
	}}
}

func (t *Tool) OutputSchema() base.Schema {
	return base.Schema{Fields: []base.FieldSpec{
		{Name: "travel_time_min", Kind: base.KindNumber, Required: true},
		{Name: "distance_km", Kind: base.KindNumber, Required: true},
	}}
}

// Execute accepts either the typed Input or its JSON-map form.
func (t *Tool) Execute(_ context.Context, input any) (any, error) {
	in, err := decodeInput(input)
	if err != nil {
		return nil, err
	}
	return Estimate(in.Origin, in.Destination, in.Mode), nil
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
			return Input{}, fmt.Errorf("failed to decode travel_time input: %w", err)
		}
		return in, nil
	default:
		return Input{}, fmt.Errorf("unsupported travel_time input type %T", input)
	}
}
