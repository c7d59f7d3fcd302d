// Package agg folds commit records into contributor, timeline and insight rollups.
package agg

import (
	"sort"
	"time"

	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
)

// Output holds everything derived from one pass over the commit records.
type Output struct {
	Contributors []schema.ContributorStats
	Timeline     schema.TimelineSeries
	Insights     schema.InsightSummary
}

// Aggregate performs a single left-to-right fold over records. Contributors are keyed by
// author name and sorted by commit count, with first-seen order breaking ties. Empty
// input yields empty collections and sentinel insights. A record without a usable
// timestamp or with negative counts stops the fold with an aggregation error.
func Aggregate(records []schema.CommitRecord) (*Output, error) {
	// 1. Initialize aggregation state
	contribIndex := make(map[string]int)
	contributors := make([]schema.ContributorStats, 0)
	timeline := make(schema.TimelineSeries)
	typeCounts := make(map[schema.Classification]int)
	typeOrder := make([]schema.Classification, 0, len(schema.AllClassifications))
	totalFiles := 0

	// 2. Fold every record
	for i, rec := range records {
		day, err := validateRecord(i, rec)
		if err != nil {
			return nil, err
		}

		idx, ok := contribIndex[rec.AuthorName]
		if !ok {
			idx = len(contributors)
			contribIndex[rec.AuthorName] = idx
			contributors = append(contributors, schema.ContributorStats{Name: rec.AuthorName})
		}
		c := &contributors[idx]
		c.Commits++
		c.Insertions += rec.Insertions
		c.Deletions += rec.Deletions
		c.FilesChanged += rec.FilesChanged

		timeline[day]++

		if _, seen := typeCounts[rec.Classification]; !seen {
			typeOrder = append(typeOrder, rec.Classification)
		}
		typeCounts[rec.Classification]++
		totalFiles += rec.FilesChanged
	}

	// 3. Rank contributors
	sort.SliceStable(contributors, func(i, j int) bool {
		return contributors[i].Commits > contributors[j].Commits
	})

	// 4. Derive insights
	insights := schema.InsightSummary{
		MostActiveContributor: schema.UnknownContributor,
		MostCommonCommitType:  mostCommonType(typeOrder, typeCounts),
		TotalContributors:     len(contributors),
		CommitTypes:           typeCounts,
	}
	if len(contributors) > 0 {
		insights.MostActiveContributor = contributors[0].Name
	}
	if len(records) > 0 {
		insights.AvgFilesPerCommit = float64(totalFiles) / float64(len(records))
	}

	return &Output{
		Contributors: contributors,
		Timeline:     timeline,
		Insights:     insights,
	}, nil
}

// validateRecord returns the calendar day of a record, or an aggregation error
// when the record cannot be counted faithfully.
func validateRecord(i int, rec schema.CommitRecord) (string, error) {
	day := rec.Day()
	if day == "" {
		return "", contract.NewAggregationError(i, rec.Hash, "missing timestamp")
	}
	if _, err := time.Parse(time.DateOnly, day); err != nil {
		return "", contract.NewAggregationError(i, rec.Hash, "malformed timestamp "+rec.Timestamp)
	}
	if rec.FilesChanged < 0 || rec.Insertions < 0 || rec.Deletions < 0 {
		return "", contract.NewAggregationError(i, rec.Hash, "negative change counts")
	}
	return day, nil
}

// mostCommonType picks the label with the highest count; among tied labels the one
// encountered first wins.
func mostCommonType(order []schema.Classification, counts map[schema.Classification]int) schema.Classification {
	best := schema.UnknownClassification
	bestCount := 0
	for _, label := range order {
		if counts[label] > bestCount {
			best, bestCount = label, counts[label]
		}
	}
	return best
}

// SortedDays returns the timeline keys in ascending calendar order.
func SortedDays(timeline schema.TimelineSeries) []string {
	days := make([]string, 0, len(timeline))
	for d := range timeline {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

// TotalCommits sums the commit counts of every contributor.
func TotalCommits(contributors []schema.ContributorStats) int {
	total := 0
	for _, c := range contributors {
		total += c.Commits
	}
	return total
}
