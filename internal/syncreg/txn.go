package syncreg

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/replica/internal/cube"
	"github.com/roach88/replica/internal/schema"
)

// Source reads persisted coverage inside a transaction.
type Source interface {
	ReadCoverage(ctx context.Context) (rows []Row, generation string, err error)
}

// Sink replaces persisted coverage inside a write transaction.
type Sink interface {
	Source
	WriteCoverage(ctx context.Context, rows []Row, generation string) error
}

// Load reads the registry. On any failure the registry returned is empty
// and the error is a *LoadError.
func Load(ctx context.Context, src Source, catalog schema.Resolver) (*Registry, error) {
	rows, generation, err := src.ReadCoverage(ctx)
	if err != nil {
		return New(), &LoadError{Code: ErrCodeReadFailed, Message: "read coverage", CubeIndex: -1, Err: err}
	}
	cubes, err := DecodeRows(rows, catalog)
	if err != nil {
		slog.Error("coverage registry is corrupt, treating nothing as synced", "error", err)
		return New(), err
	}
	r := &Registry{set: cube.NewSet(cubes...), generation: generation}
	slog.Debug("coverage loaded", "cubes", r.Len(), "generation", generation)
	return r, nil
}

// Save replaces the persisted registry and stamps it with a new generation.
func Save(ctx context.Context, sink Sink, r *Registry, gen TokenGenerator) error {
	rows, err := EncodeRows(r.Cubes())
	if err != nil {
		return err
	}
	generation := gen.Generate()
	if err := sink.WriteCoverage(ctx, rows, generation); err != nil {
		return fmt.Errorf("write coverage: %w", err)
	}
	r.generation = generation
	r.dirty = false
	slog.Debug("coverage saved", "cubes", r.Len(), "generation", generation)
	return nil
}

// View loads the registry and hands it to fn. Corrupt state is logged and
// fn sees an empty registry; read failures are returned.
func View(ctx context.Context, src Source, catalog schema.Resolver, fn func(*Registry) error) error {
	r, err := loadTolerant(ctx, src, catalog)
	if err != nil {
		return err
	}
	return fn(r)
}

// Update loads the registry, runs fn and saves the result when fn changed
// it. Corrupt state is replaced by whatever fn leaves behind. The registry
// must not be retained after Update returns.
func Update(ctx context.Context, sink Sink, catalog schema.Resolver, gen TokenGenerator, fn func(*Registry) error) error {
	r, err := loadTolerant(ctx, sink, catalog)
	if err != nil {
		return err
	}
	if err := fn(r); err != nil {
		return err
	}
	if !r.Dirty() {
		return nil
	}
	return Save(ctx, sink, r, gen)
}

func loadTolerant(ctx context.Context, src Source, catalog schema.Resolver) (*Registry, error) {
	r, err := Load(ctx, src, catalog)
	if err == nil {
		return r, nil
	}
	if IsCorrupt(err) {
		// Marked dirty so the next save overwrites the corrupt rows.
		r.dirty = true
		return r, nil
	}
	return nil, err
}
