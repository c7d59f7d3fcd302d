package contract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/repolens/schema"
)

// Separators used in the custom log format. They cannot appear in commit metadata.
const (
	recordSep = "\x1e"
	fieldSep  = "\x1f"
)

// logFormat prints hash, parents, author name, author email, strict ISO committer date and the
// raw body, followed by the --numstat lines of the commit.
const logFormat = "--pretty=format:" + recordSep + "%H" + fieldSep + "%P" + fieldSep + "%an" + fieldSep + "%ae" + fieldSep + "%cI" + fieldSep + "%B" + fieldSep

// LocalGitClient implements RepositoryAccess by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct {
	Depth int // Shallow clone depth; 0 clones full history
}

var _ RepositoryAccess = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient(depth int) *LocalGitClient {
	return &LocalGitClient{Depth: depth}
}

// Run executes a git command in repoPath and returns its stdout.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := args
	if repoPath != "" {
		fullArgs = append([]string{"-C", repoPath}, args...)
	}
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git %s failed: %s", args[0], stderr)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// Clone implements the RepositoryAccess interface.
func (c *LocalGitClient) Clone(ctx context.Context, url, destPath string) (RepositoryHandle, error) {
	args := []string{"clone", "--quiet", "--no-checkout"}
	if c.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(c.Depth))
	}
	args = append(args, "--", url, destPath)
	if _, err := c.Run(ctx, "", args...); err != nil {
		return nil, NewCloneError(err, url)
	}
	return &localRepository{client: c, path: destPath}, nil
}

// localRepository is a RepositoryHandle backed by the git binary.
type localRepository struct {
	client *LocalGitClient
	path   string
}

// Commits implements the RepositoryHandle interface.
func (r *localRepository) Commits(ctx context.Context, maxCount int) ([]schema.RawCommit, error) {
	if maxCount <= 0 {
		return []schema.RawCommit{}, nil
	}
	// Merges are diffed against their first parent and renames are not detected,
	// which matches the go-git driver.
	out, err := r.client.Run(ctx, r.path, "log", "-n", strconv.Itoa(maxCount),
		"--numstat", "--no-renames", "--diff-merges=first-parent", logFormat, "HEAD")
	if err != nil {
		return nil, NewRepositoryReadError(err)
	}
	commits, err := ParseCommitLog(out)
	if err != nil {
		return nil, NewRepositoryReadError(err)
	}
	return commits, nil
}

// FileTree implements the RepositoryHandle interface.
func (r *localRepository) FileTree(ctx context.Context) ([]schema.FileEntry, error) {
	out, err := r.client.Run(ctx, r.path, "ls-tree", "-r", "-l", "HEAD")
	if err != nil {
		return nil, NewTreeReadError(err)
	}
	return ParseTreeListing(out), nil
}

// HeadHash implements the RepositoryHandle interface.
func (r *localRepository) HeadHash(ctx context.Context) (string, error) {
	out, err := r.client.Run(ctx, r.path, "rev-parse", "HEAD")
	if err != nil {
		return "", NewRepositoryReadError(err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ParseCommitLog parses output produced with logFormat and --numstat.
func ParseCommitLog(out []byte) ([]schema.RawCommit, error) {
	chunks := strings.Split(string(out), recordSep)
	commits := make([]schema.RawCommit, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		fields := strings.SplitN(chunk, fieldSep, 7)
		if len(fields) < 7 {
			return nil, fmt.Errorf("malformed log record: %d fields", len(fields))
		}
		when, err := time.Parse(time.RFC3339, strings.TrimSpace(fields[4]))
		if err != nil {
			return nil, fmt.Errorf("commit %s: %w", fields[0], err)
		}
		commits = append(commits, schema.RawCommit{
			Hash:        strings.TrimSpace(fields[0]),
			Parents:     strings.Fields(fields[1]),
			AuthorName:  fields[2],
			AuthorEmail: fields[3],
			When:        when,
			Message:     fields[5],
			Files:       parseNumstat(fields[6]),
		})
	}
	return commits, nil
}

// parseNumstat parses the --numstat lines trailing one commit.
func parseNumstat(block string) []schema.FileStat {
	var stats []schema.FileStat
	for line := range strings.SplitSeq(block, "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), "\t", 3)
		if len(parts) < 3 {
			continue
		}
		stats = append(stats, schema.FileStat{
			Path:      parts[2],
			Additions: parseChurnValue(parts[0]),
			Deletions: parseChurnValue(parts[1]),
		})
	}
	return stats
}

// parseChurnValue reads a numstat count. Binary files report "-", which counts as zero.
func parseChurnValue(s string) int {
	if s == "-" {
		return 0
	}
	if val, err := strconv.Atoi(s); err == nil && val >= 0 {
		return val
	}
	return 0
}

// ParseTreeListing parses `git ls-tree -r -l` output into file entries.
// Submodule entries carry no size and are skipped.
func ParseTreeListing(out []byte) []schema.FileEntry {
	var entries []schema.FileEntry
	for line := range strings.SplitSeq(string(out), "\n") {
		meta, filePath, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) != 4 || fields[1] != "blob" {
			continue
		}
		size, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, schema.FileEntry{
			Path:      filePath,
			Extension: path.Ext(filePath),
			Size:      size,
		})
	}
	return entries
}
