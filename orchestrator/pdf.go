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

package orchestrator

import (
	"bytes"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/phpdave11/gofpdf"

	"tripwise/platform/shared/types"
)

// PDFExporter renders an itinerary as a downloadable PDF document.
type PDFExporter struct{}

// NewPDFExporter creates the exporter.
func NewPDFExporter() *PDFExporter { return &PDFExporter{} }

// Render produces the PDF bytes for an itinerary.
func (e *PDFExporter) Render(city string, it types.Itinerary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	title := "Your Trip Itinerary"
	if city != "" {
		title = fmt.Sprintf("Your %s Itinerary", city)
	}
	pdf.CellFormat(0, 12, title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	for _, day := range it.Days {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 10, fmt.Sprintf("Day %d", day.Day), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 11)
		for _, block := range day.Blocks {
			name := block.POIName
			if name == "" {
				name = block.POIID
			}
			line := fmt.Sprintf("%s: %s (%d min)", block.TimeOfDay, name, block.DurationMin)
			if block.TravelTimeMin > 0 {
				line += fmt.Sprintf(" - travel %d min / %.1f km", block.TravelTimeMin, block.TravelDistanceKm)
			}
			pdf.CellFormat(0, 8, line, "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render itinerary pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// artifactTTL bounds how long a generated PDF stays downloadable.
const artifactTTL = time.Hour

// ArtifactStore holds generated PDF documents by identifier so the transport
// layer can serve them on a download route. Entries expire after artifactTTL.
type ArtifactStore struct {
	cache *gocache.Cache
}

// NewArtifactStore creates an in-process artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{cache: gocache.New(artifactTTL, 2*artifactTTL)}
}

// Put stores a document under the given identifier.
func (s *ArtifactStore) Put(id string, data []byte) {
	s.cache.Set(id, data, gocache.DefaultExpiration)
}

// Get returns a stored document.
func (s *ArtifactStore) Get(id string) ([]byte, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}
