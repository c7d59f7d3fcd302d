package contract

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/huangsam/repolens/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfGitNotAvailable skips the test if git binary is not found in PATH
func skipIfGitNotAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
}

// gitIn runs git inside dir with a fixed identity and fails the test on error.
func gitIn(t *testing.T, dir string, args ...string) {
	t.Helper()
	full := append([]string{"-C", dir, "-c", "user.name=Alice", "-c", "user.email=alice@example.com", "-c", "commit.gpgsign=false"}, args...)
	out, err := exec.Command("git", full...).CombinedOutput()
	require.NoError(t, err, string(out))
}

// makeSourceRepo creates a repository with two commits and returns its path.
func makeSourceRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	gitIn(t, dir, "init", "--quiet")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))
	gitIn(t, dir, "add", ".")
	gitIn(t, dir, "commit", "--quiet", "-m", "feat: add main")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "README.md"), []byte("# docs\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))
	gitIn(t, dir, "add", ".")
	gitIn(t, dir, "commit", "--quiet", "-m", "docs: add readme\n\nLonger body.")
	return dir
}

// makeMergeAndRenameRepo creates, oldest first: a root commit with a 20-line file,
// a side branch commit, a main branch commit, a no-ff merge of the side branch and
// a pure rename of the first file.
func makeMergeAndRenameRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	gitIn(t, dir, "init", "--quiet")
	write("a.txt", strings.Repeat("line\n", 20))
	gitIn(t, dir, "add", ".")
	gitIn(t, dir, "commit", "--quiet", "-m", "feat: add a")
	gitIn(t, dir, "checkout", "--quiet", "-b", "side")
	write("side.txt", "one\ntwo\nthree\n")
	gitIn(t, dir, "add", ".")
	gitIn(t, dir, "commit", "--quiet", "-m", "feat: side file")
	gitIn(t, dir, "checkout", "--quiet", "-")
	write("main.txt", "main\n")
	gitIn(t, dir, "add", ".")
	gitIn(t, dir, "commit", "--quiet", "-m", "chore: main work")
	gitIn(t, dir, "merge", "--quiet", "--no-ff", "-m", "Merge side branch", "side")
	gitIn(t, dir, "mv", "a.txt", "b.txt")
	gitIn(t, dir, "commit", "--quiet", "-m", "refactor: rename a to b")
	return dir
}

func findCommit(t *testing.T, commits []schema.RawCommit, prefix string) schema.RawCommit {
	t.Helper()
	for _, c := range commits {
		if strings.HasPrefix(c.Message, prefix) {
			return c
		}
	}
	require.Failf(t, "commit not found", "no commit message starts with %q", prefix)
	return schema.RawCommit{}
}

func TestParseCommitLog(t *testing.T) {
	out := []byte(recordSep + "abcdef0123456789" + fieldSep + "1111 2222" + fieldSep + "Alice" + fieldSep + "alice@example.com" + fieldSep +
		"2024-01-05T09:00:00+02:00" + fieldSep + "feat: login\n\nbody\n" + fieldSep + "\n10\t2\tsrc/a.go\n-\t-\tlogo.png\n3\t0\tsrc/new/b.go\n" +
		recordSep + "fedcba9876543210" + fieldSep + "" + fieldSep + "Bob" + fieldSep + "bob@example.com" + fieldSep +
		"2024-01-04T23:59:00Z" + fieldSep + "initial" + fieldSep + "\n")

	commits, err := ParseCommitLog(out)
	require.NoError(t, err)
	require.Len(t, commits, 2)

	first := commits[0]
	assert.Equal(t, "abcdef0123456789", first.Hash)
	assert.Equal(t, []string{"1111", "2222"}, first.Parents)
	assert.Equal(t, "Alice", first.AuthorName)
	assert.Equal(t, "alice@example.com", first.AuthorEmail)
	assert.Equal(t, "feat: login\n\nbody\n", first.Message)
	_, offset := first.When.Zone()
	assert.Equal(t, 2*3600, offset)
	assert.Equal(t, []schema.FileStat{
		{Path: "src/a.go", Additions: 10, Deletions: 2},
		{Path: "logo.png", Additions: 0, Deletions: 0},
		{Path: "src/new/b.go", Additions: 3, Deletions: 0},
	}, first.Files)

	second := commits[1]
	assert.Empty(t, second.Parents)
	assert.Empty(t, second.Files)
}

func TestParseCommitLogMalformed(t *testing.T) {
	_, err := ParseCommitLog([]byte(recordSep + "abc" + fieldSep + "only two"))
	assert.Error(t, err)

	_, err = ParseCommitLog([]byte(recordSep + "abc" + fieldSep + fieldSep + "A" + fieldSep + "a@x" + fieldSep + "yesterday" + fieldSep + "m" + fieldSep))
	assert.Error(t, err)

	commits, err := ParseCommitLog(nil)
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestParseChurnValue(t *testing.T) {
	assert.Equal(t, 0, parseChurnValue("-"))
	assert.Equal(t, 12, parseChurnValue("12"))
	assert.Equal(t, 0, parseChurnValue("-4"))
	assert.Equal(t, 0, parseChurnValue("x"))
}

func TestParseTreeListing(t *testing.T) {
	out := []byte("100644 blob 8f94139338f9404f26296befa88755fc2598c289      42\tREADME\n" +
		"100644 blob 2e65efe2a145dda7ee51d1741299f848e5bf752e    1200\tsrc/main.go\n" +
		"160000 commit 1234567890abcdef1234567890abcdef12345678       -\tvendor/lib\n" +
		"garbage line\n")

	entries := ParseTreeListing(out)
	assert.Equal(t, []schema.FileEntry{
		{Path: "README", Extension: "", Size: 42},
		{Path: "src/main.go", Extension: ".go", Size: 1200},
	}, entries)
}

func TestNewLocalGitClient(t *testing.T) {
	client := NewLocalGitClient(5)
	assert.NotNil(t, client)
	assert.Equal(t, 5, client.Depth)
}

func TestLocalGitClient_CloneAndRead(t *testing.T) {
	skipIfGitNotAvailable(t)
	ctx := context.Background()

	source := makeSourceRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")

	handle, err := NewLocalGitClient(0).Clone(ctx, source, dest)
	require.NoError(t, err)

	commits, err := handle.Commits(ctx, 10)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "docs: add readme\n\nLonger body.\n", commits[0].Message)
	assert.Equal(t, "Alice", commits[0].AuthorName)
	assert.Len(t, commits[0].Files, 2)
	assert.Len(t, commits[1].Parents, 0)

	capped, err := handle.Commits(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, capped, 1)

	files, err := handle.FileTree(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"docs/README.md", "main.go"}, []string{files[0].Path, files[1].Path})

	head, err := handle.HeadHash(ctx)
	require.NoError(t, err)
	assert.Equal(t, commits[0].Hash, head)
}

func TestLocalGitClient_MergeAndRenameStats(t *testing.T) {
	skipIfGitNotAvailable(t)
	ctx := context.Background()

	source := makeMergeAndRenameRepo(t)
	handle, err := NewLocalGitClient(0).Clone(ctx, source, filepath.Join(t.TempDir(), "clone"))
	require.NoError(t, err)

	commits, err := handle.Commits(ctx, 10)
	require.NoError(t, err)
	require.Len(t, commits, 5)

	// Merges are diffed against their first parent.
	merge := findCommit(t, commits, "Merge")
	assert.Len(t, merge.Parents, 2)
	assert.Equal(t, []schema.FileStat{{Path: "side.txt", Additions: 3, Deletions: 0}}, merge.Files)

	// A rename is the old path deleted plus the new path added.
	rename := findCommit(t, commits, "refactor: rename")
	assert.ElementsMatch(t, []schema.FileStat{
		{Path: "a.txt", Additions: 0, Deletions: 20},
		{Path: "b.txt", Additions: 20, Deletions: 0},
	}, rename.Files)

	root := findCommit(t, commits, "feat: add a")
	assert.Equal(t, []schema.FileStat{{Path: "a.txt", Additions: 20, Deletions: 0}}, root.Files)
}

func TestLocalGitClient_CloneFailure(t *testing.T) {
	skipIfGitNotAvailable(t)

	missing := filepath.Join(t.TempDir(), "does-not-exist")
	_, err := NewLocalGitClient(0).Clone(context.Background(), missing, filepath.Join(t.TempDir(), "clone"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrClone))
}

func TestLocalGitClient_EmptyRepository(t *testing.T) {
	skipIfGitNotAvailable(t)
	ctx := context.Background()

	source := t.TempDir()
	gitIn(t, source, "init", "--quiet")

	handle, err := NewLocalGitClient(0).Clone(ctx, source, filepath.Join(t.TempDir(), "clone"))
	require.NoError(t, err)

	_, err = handle.Commits(ctx, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRepositoryRead))
}
