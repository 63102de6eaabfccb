package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
	"github.com/custodia-labs/kurator/internal/core/ports/driving"
	"github.com/custodia-labs/kurator/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService turns document sets into index store generations.
type IngestService struct {
	parsers   driven.ParserRegistry
	pipeline  driven.PassagePipeline
	embedder  driven.EmbeddingService
	repo      driven.IndexRepository
	workers   int
	batchSize int
}

// NewIngestService creates an ingestion service.
func NewIngestService(
	parsers driven.ParserRegistry,
	pipeline driven.PassagePipeline,
	embedder driven.EmbeddingService,
	repo driven.IndexRepository,
	settings domain.IngestSettings,
) *IngestService {
	workers := settings.Workers
	if workers <= 0 {
		workers = 1
	}
	batch := settings.BatchSize
	if batch <= 0 {
		batch = 32
	}
	return &IngestService{
		parsers:   parsers,
		pipeline:  pipeline,
		embedder:  embedder,
		repo:      repo,
		workers:   workers,
		batchSize: batch,
	}
}

// docJob is one source document and its processing outcome.
type docJob struct {
	doc      domain.SourceDocument
	parser   driven.Parser
	passages []domain.Passage
	err      error
}

// Ingest parses, chunks and embeds the documents under paths, merges them
// with unchanged sources when incremental, and persists a new generation.
func (s *IngestService) Ingest(
	ctx context.Context, paths []string, opts domain.IngestOptions,
) (*domain.IngestReport, error) {
	start := time.Now()
	logger.Section("Ingestion")

	if s.embedder == nil {
		return nil, fmt.Errorf("ingest: %w", domain.ErrEmbeddingUnavailable)
	}

	report := &domain.IngestReport{Failed: make(map[string]string)}

	jobs, err := s.collect(paths, report)
	if err != nil {
		return nil, err
	}

	var (
		kept        []domain.Passage
		keptSources []domain.SourceRecord
	)
	if opts.Incremental {
		jobs, kept, keptSources, err = s.carryOver(ctx, jobs, report)
		if err != nil {
			return nil, err
		}
	}

	workers := s.workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}
	logger.Info("Processing %d documents with %d workers", len(jobs), workers)

	if err := s.process(ctx, jobs, workers); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	passages := kept
	sources := keptSources
	now := time.Now().UTC()
	for _, job := range jobs {
		if job.err != nil {
			logger.Warn("Skipping %s: %v", job.doc.ID, job.err)
			report.Failed[job.doc.ID] = job.err.Error()
			continue
		}
		passages = append(passages, job.passages...)
		sources = append(sources, domain.SourceRecord{
			SourceID:    job.doc.ID,
			Path:        job.doc.Path,
			ContentHash: job.doc.ContentHash,
			Passages:    len(job.passages),
			IngestedAt:  now,
		})
		report.Processed = append(report.Processed, job.doc.ID)
	}

	if len(passages) == 0 {
		return report, fmt.Errorf("ingest: %w: no passages produced", domain.ErrInvalidInput)
	}

	SortPassages(passages)
	sort.Slice(sources, func(i, j int) bool { return sources[i].SourceID < sources[j].SourceID })

	store, err := s.repo.Save(ctx, driven.StoreBuild{
		Passages:       passages,
		Sources:        sources,
		EmbeddingModel: s.embedder.ModelName(),
	})
	if err != nil {
		return report, fmt.Errorf("ingest: %w", err)
	}

	info := store.Info()
	report.Generation = info.Generation
	report.Passages = info.Passages
	report.Duration = time.Since(start)
	sort.Strings(report.Processed)
	sort.Strings(report.Unchanged)

	logger.Info("Generation %s: %d passages from %d sources (%d failed) in %s",
		report.Generation, report.Passages, len(sources), len(report.Failed), report.Duration.Round(time.Millisecond))
	return report, nil
}

// collect expands paths into hashed documents. Directories are walked,
// skipping hidden entries and unsupported extensions; a file named
// explicitly with an unsupported extension is reported as failed.
func (s *IngestService) collect(paths []string, report *domain.IngestReport) ([]*docJob, error) {
	defer logger.Timed("collect")()

	var jobs []*docJob
	seen := make(map[string]struct{})

	add := func(path, sourceID string, explicit bool) error {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		parser, err := s.parsers.ForExtension(ext)
		if err != nil {
			if explicit {
				report.Failed[sourceID] = err.Error()
			}
			logger.Debug("Skipping %s: %v", path, err)
			return nil
		}
		if _, dup := seen[sourceID]; dup {
			logger.Warn("Duplicate source id %s from %s ignored", sourceID, path)
			return nil
		}
		seen[sourceID] = struct{}{}

		content, err := os.ReadFile(path)
		if err != nil {
			report.Failed[sourceID] = err.Error()
			return nil
		}
		abs, _ := filepath.Abs(path)
		jobs = append(jobs, &docJob{
			doc: domain.SourceDocument{
				ID:          sourceID,
				Path:        abs,
				Format:      ext,
				ContentHash: HashContent(content),
				Content:     content,
			},
			parser: parser,
		})
		return nil
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("ingest: %w: %w", domain.ErrNotFound, err)
		}
		if !info.IsDir() {
			if err := add(root, filepath.Base(root), true); err != nil {
				return nil, err
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			return add(path, filepath.ToSlash(rel), false)
		})
		if err != nil {
			return nil, fmt.Errorf("ingest: walk %s: %w", root, err)
		}
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("ingest: %w: no supported documents under %s",
			domain.ErrInvalidInput, strings.Join(paths, ", "))
	}
	return jobs, nil
}

// carryOver keeps the passages of sources whose content hash is unchanged
// in the current generation, plus sources that are no longer on disk.
// It returns the jobs still to process.
func (s *IngestService) carryOver(
	ctx context.Context, jobs []*docJob, report *domain.IngestReport,
) ([]*docJob, []domain.Passage, []domain.SourceRecord, error) {
	prev, err := s.repo.Load(ctx)
	if errors.Is(err, domain.ErrStoreNotFound) {
		logger.Info("No current generation, running a full ingest")
		return jobs, nil, nil, nil
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ingest: %w", err)
	}

	if model := prev.Info().EmbeddingModel; model != s.embedder.ModelName() {
		logger.Warn("Embedding model changed from %s to %s, running a full ingest", model, s.embedder.ModelName())
		return jobs, nil, nil, nil
	}

	records := make(map[string]domain.SourceRecord, len(prev.Sources()))
	for _, r := range prev.Sources() {
		records[r.SourceID] = r
	}

	keep := make(map[string]bool, len(records))
	var todo []*docJob
	for _, job := range jobs {
		rec, ok := records[job.doc.ID]
		if ok && rec.ContentHash == job.doc.ContentHash {
			keep[job.doc.ID] = true
			report.Unchanged = append(report.Unchanged, job.doc.ID)
			continue
		}
		keep[job.doc.ID] = false
		todo = append(todo, job)
	}
	// Sources that vanished from disk stay until a full rebuild.
	for id := range records {
		if _, listed := keep[id]; !listed {
			keep[id] = true
			report.Unchanged = append(report.Unchanged, id)
		}
	}

	var (
		passages []domain.Passage
		sources  []domain.SourceRecord
	)
	for _, p := range prev.Passages() {
		if keep[p.SourceID] {
			passages = append(passages, p)
		}
	}
	for _, r := range prev.Sources() {
		if keep[r.SourceID] {
			sources = append(sources, r)
		}
	}

	logger.Info("Incremental: %d unchanged, %d to process", len(report.Unchanged), len(todo))
	return todo, passages, sources, nil
}

// process runs each job with bounded parallelism. Per-document failures
// are recorded on the job; only cancellation aborts the run.
func (s *IngestService) process(ctx context.Context, jobs []*docJob, workers int) error {
	defer logger.Timed("process")()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	done := 0
	for _, job := range jobs {
		g.Go(func() error {
			job.passages, job.err = s.processDocument(gctx, &job.doc, job.parser)
			if err := gctx.Err(); err != nil {
				return err
			}
			mu.Lock()
			done++
			logger.Debug("[%d/%d] %s: %d passages", done, len(jobs), job.doc.ID, len(job.passages))
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// processDocument parses, runs the pipeline and embeds one document.
func (s *IngestService) processDocument(
	ctx context.Context, doc *domain.SourceDocument, parser driven.Parser,
) ([]domain.Passage, error) {
	segments, err := parser.Parse(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	var passages []domain.Passage
	for _, seg := range segments {
		out, err := s.pipeline.Process(ctx, seg)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		passages = append(passages, out...)
	}

	for start := 0; start < len(passages); start += s.batchSize {
		end := min(start+s.batchSize, len(passages))
		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = passages[start+i].Text
		}
		vecs, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed: %w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embed: %w: got %d vectors for %d texts",
				domain.ErrEmbeddingUnavailable, len(vecs), len(texts))
		}
		for i, v := range vecs {
			passages[start+i].Embedding = domain.NormalizeVector(v)
		}
	}
	return passages, nil
}

// SortPassages orders passages by source, unit and chunk so a generation's
// layout does not depend on worker scheduling.
func SortPassages(passages []domain.Passage) {
	sort.SliceStable(passages, func(i, j int) bool {
		a, b := passages[i], passages[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.UnitIndex != b.UnitIndex {
			return a.UnitIndex < b.UnitIndex
		}
		if a.UnitKind != b.UnitKind {
			return a.UnitKind < b.UnitKind
		}
		return a.ChunkIndex < b.ChunkIndex
	})
}

// HashContent returns the hex SHA-256 of content.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
