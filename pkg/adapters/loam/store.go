// Package loam stores character cards as markdown files with YAML frontmatter,
// so a card library can be edited by hand and kept under version control.
package loam

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/povrewrite/pkg/domain"
)

const cardExt = ".md"

// Store adapts a Loam repository to ports.DocumentStore.
type Store struct {
	root string
	Repo *loam.TypedRepository[CardMetadata]
}

// Open initializes a Loam repository rooted at dir and wraps it in a Store.
func Open(dir string) (*Store, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve library path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create library dir: %w", err)
	}

	repo, err := loam.Init(absPath,
		loam.WithVersioning(false),
		loam.WithForceTemp(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(absPath, loam.NewTypedRepository[CardMetadata](repo)), nil
}

// New wraps an existing typed repository. root must be the directory the repository writes to.
func New(root string, repo *loam.TypedRepository[CardMetadata]) *Store {
	return &Store{root: root, Repo: repo}
}

func (s *Store) path(id string) string {
	return filepath.Join(s.root, filepath.FromSlash(id)+cardExt)
}

// Load reads a card by ID (file name without extension).
func (s *Store) Load(ctx context.Context, id string) (*domain.Document, error) {
	if _, err := os.Stat(s.path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to stat card %s: %w", id, err)
	}

	doc, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	return toDocument(doc.Data, doc.Content), nil
}

// Save writes the card, replacing any previous version.
func (s *Store) Save(ctx context.Context, id string, doc *domain.Document) error {
	if id == "" {
		return fmt.Errorf("document id cannot be empty")
	}
	if doc == nil {
		return fmt.Errorf("%w: nil document", domain.ErrConfiguration)
	}
	err := s.Repo.Save(ctx, &loam.DocumentModel[CardMetadata]{
		ID:      id + cardExt,
		Content: doc.Description,
		Data:    toMetadata(doc),
	})
	if err != nil {
		return fmt.Errorf("loam save failed for %s: %w", id, err)
	}
	return nil
}

// Delete removes the card file. Deleting a missing card is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return nil
}

// List returns the IDs of every card in the library, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if !strings.HasSuffix(doc.ID, cardExt) && filepath.Ext(doc.ID) != "" {
			continue
		}
		ids = append(ids, trimExtension(doc.ID))
	}
	sort.Strings(ids)
	return ids, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
