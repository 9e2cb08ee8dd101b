package tabular

import "strings"

// mergeSimilarityThreshold: tables on consecutive pages merge when
// their header similarity exceeds this value.
const mergeSimilarityThreshold = 0.8

// MergedRegion is a table region together with the pages it spans.
type MergedRegion struct {
	Region
	Pages []int
}

// HeaderSimilarity computes Jaccard similarity between two header
// sets after lowercasing and trimming each header. Headers differing
// only in case or surrounding whitespace compare equal.
func HeaderSimilarity(a, b []string) float64 {
	setA := normalizeHeaderSet(a)
	setB := normalizeHeaderSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for h := range setA {
		if _, ok := setB[h]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func normalizeHeaderSet(headers []string) map[string]struct{} {
	set := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		n := strings.ToLower(strings.TrimSpace(h))
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// MergeAcrossPages joins tables that continue across consecutive
// pages. A table merges into the previous one only when it sits on
// the page directly after it and its headers match the run's first
// table with similarity above the threshold. Merged regions keep the
// first part's headers, concatenate rows in page order, take the
// lowest confidence among the parts, and record every page covered.
// Input must be in page order; pages[i] is the page of tables[i].
func MergeAcrossPages(tables []Region, pages []int) []MergedRegion {
	var out []MergedRegion
	for i, t := range tables {
		page := pages[i]
		if len(out) > 0 {
			prev := &out[len(out)-1]
			lastPage := prev.Pages[len(prev.Pages)-1]
			if page == lastPage+1 && HeaderSimilarity(prev.Headers, t.Headers) > mergeSimilarityThreshold {
				prev.Rows = append(prev.Rows, t.Rows...)
				if t.Confidence < prev.Confidence {
					prev.Confidence = t.Confidence
				}
				prev.Pages = append(prev.Pages, page)
				continue
			}
		}
		out = append(out, MergedRegion{Region: t, Pages: []int{page}})
	}
	return out
}
