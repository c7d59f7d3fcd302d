// Package gitrepo implements repository access on top of go-git.
package gitrepo

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
	"go.uber.org/zap"
)

// Cloner implements contract.RepositoryAccess with go-git.
type Cloner struct {
	Depth int                  // Shallow clone depth; 0 clones full history
	Auth  transport.AuthMethod // Optional credentials for private remotes
}

var _ contract.RepositoryAccess = &Cloner{} // Compile-time check

// NewCloner creates a go-git backed cloner.
func NewCloner(depth int) *Cloner {
	return &Cloner{Depth: depth}
}

// Clone implements the contract.RepositoryAccess interface. Only objects are fetched;
// no worktree is checked out since every read goes through the object store.
func (c *Cloner) Clone(ctx context.Context, url, destPath string) (contract.RepositoryHandle, error) {
	repo, err := git.PlainCloneContext(ctx, destPath, false, &git.CloneOptions{
		URL:        url,
		Auth:       c.Auth,
		Depth:      c.Depth,
		NoCheckout: true,
		Tags:       git.NoTags,
	})
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return &emptyRepository{cause: err}, nil
	}
	if err != nil {
		return nil, contract.NewCloneError(err, url)
	}
	return &Repository{repo: repo, path: destPath}, nil
}

// Repository is a contract.RepositoryHandle over an opened go-git repository.
type Repository struct {
	repo *git.Repository
	path string
}

var _ contract.RepositoryHandle = &Repository{} // Compile-time check

// Open opens an existing repository on disk.
func Open(repoPath string) (*Repository, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve path %s", repoPath)
	}
	repo, err := git.PlainOpen(absPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open git repository at %s", absPath)
	}
	return &Repository{repo: repo, path: absPath}, nil
}

// Path returns where the repository lives on disk.
func (r *Repository) Path() string {
	return r.path
}

// HeadHash implements the contract.RepositoryHandle interface.
func (r *Repository) HeadHash(_ context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", contract.NewRepositoryReadError(err)
	}
	return head.Hash().String(), nil
}

// Commits implements the contract.RepositoryHandle interface. The log is walked in
// committer-time order and abandoned as soon as maxCount commits were read.
func (r *Repository) Commits(ctx context.Context, maxCount int) ([]schema.RawCommit, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, contract.NewRepositoryReadError(err)
	}
	iter, err := r.repo.Log(&git.LogOptions{
		From:  head.Hash(),
		Order: git.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, contract.NewRepositoryReadError(err)
	}
	defer iter.Close()

	commits := make([]schema.RawCommit, 0, max(maxCount, 0))
	err = iter.ForEach(func(c *object.Commit) error {
		if len(commits) >= maxCount {
			return storer.ErrStop
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, toRawCommit(ctx, c))
		return nil
	})
	if err != nil {
		return nil, contract.NewRepositoryReadError(err)
	}
	return commits, nil
}

// toRawCommit copies commit metadata and per-file stats. Stats that cannot be computed,
// such as for a commit whose parent is missing from a shallow clone, are left empty.
func toRawCommit(ctx context.Context, c *object.Commit) schema.RawCommit {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, h := range c.ParentHashes {
		parents = append(parents, h.String())
	}
	raw := schema.RawCommit{
		Hash:        c.Hash.String(),
		Parents:     parents,
		AuthorName:  c.Author.Name,
		AuthorEmail: c.Author.Email,
		When:        c.Committer.When,
		Message:     c.Message,
	}

	files, err := fileStats(ctx, c)
	if err != nil {
		contract.LogDebug("commit stats unavailable", zap.String("hash", raw.Hash), zap.Error(err))
		return raw
	}
	raw.Files = files
	return raw
}

// fileStats diffs c against its first parent, or against the empty tree for a root
// commit. Renames are not detected: a moved file is a deletion of the old path plus an
// addition of the new one. Binary files are listed with zero line counts.
func fileStats(ctx context.Context, c *object.Commit) ([]schema.FileStat, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	parentTree := &object.Tree{}
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, err
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, err
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, &object.DiffTreeOptions{DetectRenames: false})
	if err != nil {
		return nil, err
	}
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return nil, err
	}

	filePatches := patch.FilePatches()
	stats := make([]schema.FileStat, 0, len(filePatches))
	for _, fp := range filePatches {
		from, to := fp.Files()
		var stat schema.FileStat
		if to != nil {
			stat.Path = to.Path()
		} else if from != nil {
			stat.Path = from.Path()
		}
		for _, chunk := range fp.Chunks() {
			switch chunk.Type() {
			case fdiff.Add:
				stat.Additions += countLines(chunk.Content())
			case fdiff.Delete:
				stat.Deletions += countLines(chunk.Content())
			}
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

// countLines counts lines the way git numstat does; a missing final newline still ends a line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// FileTree implements the contract.RepositoryHandle interface.
func (r *Repository) FileTree(_ context.Context) ([]schema.FileEntry, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, contract.NewTreeReadError(err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, contract.NewTreeReadError(err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, contract.NewTreeReadError(err)
	}

	var entries []schema.FileEntry
	err = tree.Files().ForEach(func(f *object.File) error {
		entries = append(entries, schema.FileEntry{
			Path:      f.Name,
			Extension: path.Ext(f.Name),
			Size:      f.Size,
		})
		return nil
	})
	if err != nil {
		return nil, contract.NewTreeReadError(err)
	}
	return entries, nil
}

// emptyRepository stands in for a remote that has no commits yet.
type emptyRepository struct {
	cause error
}

func (e *emptyRepository) Commits(context.Context, int) ([]schema.RawCommit, error) {
	return nil, contract.NewRepositoryReadError(e.cause)
}

func (e *emptyRepository) FileTree(context.Context) ([]schema.FileEntry, error) {
	return nil, contract.NewTreeReadError(e.cause)
}

func (e *emptyRepository) HeadHash(context.Context) (string, error) {
	return "", contract.NewRepositoryReadError(e.cause)
}
