// Package tabular detects table regions in positioned document text.
// Everything here is pure geometry over coordinate lists; no PDF
// library types leak in, so the heuristics are testable on synthetic
// input.
package tabular

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"agridocs/internal/domain"
)

// Item is one positioned word on a page. Y grows upward (PDF user
// space); X grows rightward.
type Item struct {
	X    float64
	Y    float64
	W    float64
	Text string
}

// Row is a horizontal band of items sharing (approximately) one Y.
type Row struct {
	Y     float64
	Items []Item
}

// Region is one detected table region on a page.
type Region struct {
	Headers    []string
	Rows       [][]string
	Confidence float64
}

// PageResult separates the tabular and free-text portions of a page.
type PageResult struct {
	Regions []Region
	// FreeText is the non-table rows joined top-to-bottom.
	FreeText string
}

const (
	// rowTolerance is the Y rounding bucket for grouping items into rows.
	rowTolerance = 3.0
	// gapVarianceRatio: a row is column-aligned when the variance of its
	// inter-item gaps stays below this fraction of the mean gap.
	gapVarianceRatio = 0.5
	// minTableRows is the minimum contiguous table-like run length.
	minTableRows = 2
)

var numericCell = regexp.MustCompile(`^[\s€$£%]*[\d.,\-]+[\s€$£%]*$`)

// GroupRows buckets items by rounded vertical coordinate and returns
// rows sorted top-to-bottom, each row's items sorted left-to-right.
func GroupRows(items []Item) []Row {
	if len(items) == 0 {
		return nil
	}
	buckets := make(map[int][]Item)
	for _, it := range items {
		key := int(math.Round(it.Y / rowTolerance))
		buckets[key] = append(buckets[key], it)
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	// Higher Y first: top of the page comes first.
	sort.Sort(sort.Reverse(sort.IntSlice(keys)))

	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		items := buckets[k]
		sort.Slice(items, func(i, j int) bool { return items[i].X < items[j].X })
		rows = append(rows, Row{Y: float64(k) * rowTolerance, Items: items})
	}
	return rows
}

// IsTableRow reports whether a row looks column-aligned: at least two
// items whose horizontal gaps have low variance relative to the mean.
// Single-gap rows (two items) qualify by definition.
func IsTableRow(r Row) bool {
	if len(r.Items) < 2 {
		return false
	}
	gaps := make([]float64, 0, len(r.Items)-1)
	for i := 1; i < len(r.Items); i++ {
		gap := r.Items[i].X - (r.Items[i-1].X + r.Items[i-1].W)
		if gap < 0 {
			gap = 0
		}
		gaps = append(gaps, gap)
	}
	if len(gaps) == 1 {
		return true
	}

	var sum float64
	for _, g := range gaps {
		sum += g
	}
	mean := sum / float64(len(gaps))
	if mean <= 0 {
		return false
	}
	var variance float64
	for _, g := range gaps {
		variance += (g - mean) * (g - mean)
	}
	variance /= float64(len(gaps))

	return variance < gapVarianceRatio*mean
}

// DetectPage splits a page's items into table regions and free text.
// Contiguous runs of table-like rows (>= minTableRows) become regions
// with the first row as headers; everything else joins FreeText in
// reading order.
func DetectPage(items []Item) PageResult {
	rows := GroupRows(items)

	var result PageResult
	var freeLines []string
	var run []Row

	flush := func() {
		if len(run) >= minTableRows {
			result.Regions = append(result.Regions, buildRegion(run))
		} else {
			for _, r := range run {
				freeLines = append(freeLines, rowText(r))
			}
		}
		run = nil
	}

	for _, r := range rows {
		if IsTableRow(r) {
			run = append(run, r)
			continue
		}
		flush()
		freeLines = append(freeLines, rowText(r))
	}
	flush()

	result.FreeText = strings.TrimSpace(strings.Join(freeLines, "\n"))
	return result
}

func buildRegion(run []Row) Region {
	headers := cellValues(run[0])
	rows := make([][]string, 0, len(run)-1)
	for _, r := range run[1:] {
		rows = append(rows, cellValues(r))
	}
	return Region{
		Headers:    headers,
		Rows:       rows,
		Confidence: StructuralConfidence(headers, rows),
	}
}

func cellValues(r Row) []string {
	cells := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		cells = append(cells, strings.TrimSpace(it.Text))
	}
	return cells
}

func rowText(r Row) string {
	parts := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		parts = append(parts, strings.TrimSpace(it.Text))
	}
	return strings.Join(parts, " ")
}

// StructuralConfidence scores a table's structural regularity in 0..1.
// Consistent column counts dominate; a numeric-heavy body adds a bonus
// since subsidy tables are mostly figures. Inconsistency and empty
// cells lower the score but never reject the table.
func StructuralConfidence(headers []string, rows [][]string) float64 {
	if len(rows) == 0 {
		return 0.3
	}

	want := len(headers)
	consistent := 0
	numeric := 0
	empty := 0
	cells := 0
	for _, row := range rows {
		if len(row) == want {
			consistent++
		}
		for _, cell := range row {
			cells++
			trimmed := strings.TrimSpace(cell)
			if trimmed == "" {
				empty++
				continue
			}
			if numericCell.MatchString(trimmed) {
				numeric++
			}
		}
	}

	consistency := float64(consistent) / float64(len(rows))
	score := 0.4 + 0.4*consistency

	if cells > 0 {
		numericShare := float64(numeric) / float64(cells)
		score += 0.2 * numericShare

		emptyShare := float64(empty) / float64(cells)
		score -= 0.2 * emptyShare
	}

	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ToExtractedTable converts a region into the shared table model.
func (r Region) ToExtractedTable(pageNumber, tableIndex int) domain.ExtractedTable {
	return domain.ExtractedTable{
		Headers:      r.Headers,
		Rows:         r.Rows,
		Confidence:   r.Confidence,
		PageNumber:   pageNumber,
		TableIndex:   tableIndex,
		SourceFormat: domain.SourcePDF,
	}
}
