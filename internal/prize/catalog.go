// Package prize holds the wheel's prize catalog and the weighted draw over it.
package prize

import "strings"

// SlotDegrees is the arc each segment covers on the wheel.
const SlotDegrees = 360.0 / float64(segmentCount)

const segmentCount = 10

// BigWinValue is the smallest cash prize announced as a big win.
const BigWinValue = 100_000

// Segment is one slot of the wheel.
type Segment struct {
	// Label is what gets recorded in history, e.g. "10k".
	Label string `json:"label"`

	// DisplayLabel replaces Label on screen when set.
	DisplayLabel string `json:"display_label,omitempty"`

	// Color is the slot colour as #rrggbb.
	Color string `json:"color"`

	// Value is the cash amount in VND. The greeting slot has none.
	Value int `json:"value"`

	// Grand marks the holiday greeting slot.
	Grand bool `json:"grand,omitempty"`
}

// Title is the text shown for the segment.
func (s Segment) Title() string {
	if s.DisplayLabel != "" {
		return s.DisplayLabel
	}
	return s.Label
}

var catalog = [segmentCount]Segment{
	{Label: "1k", Color: "#e63946", Value: 1_000},
	{Label: "2k", Color: "#f77f00", Value: 2_000},
	{Label: "5k", Color: "#fcbf49", Value: 5_000},
	{Label: "10k", Color: "#06d6a0", Value: 10_000},
	{Label: "20k", Color: "#118ab2", Value: 20_000},
	{Label: "50k", Color: "#7209b7", Value: 50_000},
	{Label: "100k", Color: "#f72585", Value: 100_000},
	{Label: "200k", Color: "#4cc9f0", Value: 200_000},
	{Label: "500k", Color: "#ffd700", Value: 500_000},
	{Label: "CMNM", DisplayLabel: "Chúc mừng năm mới", Color: "#ef476f", Grand: true},
}

// Catalog returns the segments in wheel order. Callers get their own copy.
func Catalog() []Segment {
	out := make([]Segment, len(catalog))
	copy(out, catalog[:])
	return out
}

// Index returns the wheel position of the segment with the given label, ignoring case.
func Index(label string) (int, bool) {
	for i, s := range catalog {
		if strings.EqualFold(s.Label, label) {
			return i, true
		}
	}
	return -1, false
}

// Lookup returns the segment with the given label, ignoring case.
func Lookup(label string) (Segment, bool) {
	i, ok := Index(label)
	if !ok {
		return Segment{}, false
	}
	return catalog[i], true
}
