package bake

import (
	"fmt"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-prt/internal/scene"
	"github.com/Faultbox/midgard-prt/pkg/formats"
)

// CachePath returns the cache file of the mesh at position index in its
// scene: <dir>/<index>_<mesh>_<kind>.dat. The index keeps meshes that share a
// name apart.
func CachePath(dir string, index int, mesh string, kind Kind) string {
	return filepath.Join(dir, fmt.Sprintf("%d_%s_%s.dat", index, mesh, kind))
}

// loadCache returns the cached transfers of every mesh, or nil if any mesh
// misses. Bounces couple meshes, so a partial hit cannot be reused.
func (b *Baker) loadCache(s *scene.Scene) []*Transfer {
	if b.opts.CacheDir == "" || b.opts.Rebake {
		return nil
	}

	transfers := make([]*Transfer, len(s.Meshes))
	for i, m := range s.Meshes {
		kind, coeffCount := b.layout(m)
		path := CachePath(b.opts.CacheDir, i, m.Name, kind)

		cache, err := formats.LoadTransferFile(path, m.VertexCount(), coeffCount)
		if err != nil {
			b.log.Warn("transfer cache miss, rebaking scene",
				zap.String("mesh", m.Name),
				zap.String("path", path),
				zap.Error(err))
			return nil
		}

		transfers[i] = &Transfer{
			Mesh:       m.Name,
			Kind:       kind,
			CoeffCount: coeffCount,
			Coeffs:     cache.Coeffs,
		}
		b.log.Debug("transfer cache hit", zap.String("mesh", m.Name), zap.String("path", path))
	}
	return transfers
}

// saveCache writes every transfer and returns all failures combined.
func (b *Baker) saveCache(transfers []*Transfer) error {
	if b.opts.CacheDir == "" {
		return nil
	}

	var errs error
	for i, t := range transfers {
		path := CachePath(b.opts.CacheDir, i, t.Mesh, t.Kind)
		cache := formats.NewTransferCache(t.VertexCount(), t.CoeffCount, t.Coeffs)
		if err := cache.SaveFile(path); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("saving %s transfer of %q: %w", t.Kind, t.Mesh, err))
			continue
		}
		b.log.Debug("transfer cache written", zap.String("mesh", t.Mesh), zap.String("path", path))
	}
	return errs
}
