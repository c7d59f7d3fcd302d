// Package extract turns raw repository data into normalized records.
package extract

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/huangsam/repolens/core/classify"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
	"go.uber.org/zap"
)

// Commits reads at most maxCommits commits from handle, most recent first, and
// normalizes each one. One extra commit is requested so that truncated reports
// whether history older than the cap exists. A handle that cannot enumerate
// history yields a repository read error; nothing is returned in that case.
func Commits(ctx context.Context, handle contract.RepositoryHandle, maxCommits int) (records []schema.CommitRecord, truncated bool, err error) {
	if maxCommits <= 0 {
		return []schema.CommitRecord{}, false, nil
	}
	raws, err := handle.Commits(ctx, maxCommits+1)
	if err != nil {
		if !errors.Is(err, contract.ErrRepositoryRead) {
			err = contract.NewRepositoryReadError(err)
		}
		return nil, false, err
	}
	if len(raws) > maxCommits {
		raws = raws[:maxCommits]
		truncated = true
	}

	records = make([]schema.CommitRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, ToRecord(raw))
	}
	return records, truncated, nil
}

// ToRecord normalizes one raw commit. Missing stats count as zero, and a file
// reported more than once is only counted once toward FilesChanged.
func ToRecord(raw schema.RawCommit) schema.CommitRecord {
	message := strings.TrimSpace(raw.Message)

	seen := make(map[string]struct{}, len(raw.Files))
	var insertions, deletions int
	for _, f := range raw.Files {
		seen[f.Path] = struct{}{}
		insertions += max(f.Additions, 0)
		deletions += max(f.Deletions, 0)
	}

	return schema.CommitRecord{
		Hash:           ShortHash(raw.Hash),
		Message:        message,
		AuthorName:     raw.AuthorName,
		AuthorEmail:    raw.AuthorEmail,
		Timestamp:      formatTimestamp(raw.When),
		Classification: classify.Classify(message),
		FilesChanged:   len(seen),
		Insertions:     insertions,
		Deletions:      deletions,
	}
}

// ShortHash returns the display prefix of a full commit hash.
func ShortHash(hash string) string {
	if len(hash) <= schema.ShortHashLength {
		return hash
	}
	return hash[:schema.ShortHashLength]
}

// formatTimestamp keeps the commit's own offset. A zero time is left empty so
// aggregation rejects the record instead of bucketing it under year one.
func formatTimestamp(when time.Time) string {
	if when.IsZero() {
		return ""
	}
	return when.Format(time.RFC3339)
}

// Files lists the tracked files at HEAD. The walk is best effort: any failure is
// logged and treated as an empty tree. The structure summary covers every file,
// while the returned list is cut to maxFiles in tree order.
func Files(ctx context.Context, handle contract.RepositoryHandle, maxFiles int) ([]schema.FileEntry, schema.FileStructure, bool) {
	entries, err := handle.FileTree(ctx)
	if err != nil {
		if !errors.Is(err, contract.ErrTreeRead) {
			err = contract.NewTreeReadError(err)
		}
		contract.LogWarn("File tree unavailable, continuing without file inventory", err)
		return []schema.FileEntry{}, SummarizeStructure(nil), false
	}

	structure := SummarizeStructure(entries)
	truncated := false
	if maxFiles >= 0 && len(entries) > maxFiles {
		entries = entries[:maxFiles]
		truncated = true
	}
	if entries == nil {
		entries = []schema.FileEntry{}
	}
	contract.LogDebug("File inventory collected",
		zap.Int("total", structure.TotalFiles),
		zap.Int("listed", len(entries)))
	return entries, structure, truncated
}
