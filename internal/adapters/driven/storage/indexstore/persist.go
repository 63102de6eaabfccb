package indexstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/samber/oops"

	"github.com/custodia-labs/kurator/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/kurator/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/kurator/internal/core/domain"
)

// Artifact file names inside a generation directory.
const (
	IndexFile    = "index.vec"
	PassagesFile = "passages.db"
)

// Persist writes both artifacts into dir, which must not already hold them.
func (s *Store) Persist(ctx context.Context, dir string) error {
	errb := oops.In("indexstore").With("dir", dir, "generation", s.generation)

	if err := os.MkdirAll(dir, 0700); err != nil {
		return errb.Wrapf(err, "creating generation directory")
	}

	data, err := s.index.MarshalBinary()
	if err != nil {
		return errb.Wrapf(err, "encoding vector index")
	}
	if err := os.WriteFile(filepath.Join(dir, IndexFile), data, 0600); err != nil {
		return errb.Wrapf(err, "writing vector index")
	}

	db, err := sqlite.Open(filepath.Join(dir, PassagesFile))
	if err != nil {
		return errb.Wrapf(err, "opening passage records")
	}
	defer db.Close()

	if err := db.WritePassages(ctx, s.passages); err != nil {
		return errb.Wrapf(err, "writing passage records")
	}
	if err := db.WriteSources(ctx, s.sources); err != nil {
		return errb.Wrapf(err, "writing ingestion manifest")
	}
	meta := map[string]string{
		sqlite.MetaGeneration:     s.generation,
		sqlite.MetaDimensions:     strconv.Itoa(s.index.Dimensions()),
		sqlite.MetaPassageCount:   strconv.Itoa(len(s.passages)),
		sqlite.MetaEmbeddingModel: s.model,
		sqlite.MetaCreatedAt:      s.createdAt.Format(time.RFC3339Nano),
	}
	if err := db.SetMeta(ctx, meta); err != nil {
		return errb.Wrapf(err, "writing generation metadata")
	}
	return nil
}

// Load reads a generation directory written by Persist. It fails with
// domain.ErrStoreNotFound when neither artifact exists, domain.ErrStoreCorrupt
// when only one exists or they disagree, and domain.ErrDimensionMismatch when
// expectedDim is positive and differs from the stored dimensions.
func Load(ctx context.Context, dir string, expectedDim int) (*Store, error) {
	errb := oops.In("indexstore").With("dir", dir)

	indexPath := filepath.Join(dir, IndexFile)
	passagesPath := filepath.Join(dir, PassagesFile)
	hasIndex, hasPassages := fileExists(indexPath), fileExists(passagesPath)

	switch {
	case !hasIndex && !hasPassages:
		return nil, errb.Code("store_not_found").Wrapf(domain.ErrStoreNotFound, "no index store artifacts")
	case !hasIndex:
		return nil, errb.Code("store_corrupt").Wrapf(domain.ErrStoreCorrupt, "%s missing beside %s", IndexFile, PassagesFile)
	case !hasPassages:
		return nil, errb.Code("store_corrupt").Wrapf(domain.ErrStoreCorrupt, "%s missing beside %s", PassagesFile, IndexFile)
	}

	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, errb.Wrapf(err, "reading vector index")
	}
	index := &flat.Index{}
	if err := index.UnmarshalBinary(data); err != nil {
		return nil, errb.Code("store_corrupt").Wrapf(fmt.Errorf("%w: %w", domain.ErrStoreCorrupt, err), "decoding vector index")
	}

	db, err := sqlite.Open(passagesPath)
	if err != nil {
		return nil, errb.Wrapf(err, "opening passage records")
	}
	defer db.Close()

	passages, err := db.ReadPassages(ctx)
	if err != nil {
		return nil, errb.Wrapf(err, "reading passage records")
	}
	sources, err := db.ReadSources(ctx)
	if err != nil {
		return nil, errb.Wrapf(err, "reading ingestion manifest")
	}
	meta, err := db.Meta(ctx)
	if err != nil {
		return nil, errb.Wrapf(err, "reading generation metadata")
	}

	if index.Len() != len(passages) {
		return nil, errb.Code("store_corrupt").With("vectors", index.Len(), "passages", len(passages)).
			Wrapf(domain.ErrStoreCorrupt, "index holds %d vectors but %d passage records", index.Len(), len(passages))
	}
	if n, err := sqlite.MetaInt(meta, sqlite.MetaPassageCount); err != nil || n != len(passages) {
		return nil, errb.Code("store_corrupt").Wrapf(domain.ErrStoreCorrupt, "recorded passage count does not match records")
	}
	if d, err := sqlite.MetaInt(meta, sqlite.MetaDimensions); err != nil || d != index.Dimensions() {
		return nil, errb.Code("store_corrupt").Wrapf(domain.ErrStoreCorrupt, "recorded dimensions do not match vector index")
	}
	if expectedDim > 0 && expectedDim != index.Dimensions() {
		return nil, errb.Code("dimension_mismatch").With("expected", expectedDim, "stored", index.Dimensions()).
			Wrapf(domain.ErrDimensionMismatch, "store has %d dimensions, embedder produces %d", index.Dimensions(), expectedDim)
	}

	for i := range passages {
		passages[i].Embedding = index.Vector(i)
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, meta[sqlite.MetaCreatedAt])
	return &Store{
		generation: meta[sqlite.MetaGeneration],
		model:      meta[sqlite.MetaEmbeddingModel],
		createdAt:  createdAt,
		index:      index,
		passages:   passages,
		sources:    sources,
	}, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
