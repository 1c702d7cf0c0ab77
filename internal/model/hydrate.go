package model

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/rzpsarthak13/orius/internal/core"
)

const blobChunkSize = 32 * 1024

// Hydrate returns a copy of row in which every lazy blob has been read
// into memory. Long-text columns become UTF-8 strings; binary columns and
// columns the schema does not declare become byte slices. Other values
// are copied unchanged. A nil schema declares nothing.
func Hydrate(ctx context.Context, s *core.Schema, row core.Row) (core.Row, error) {
	out := make(core.Row, len(row))
	for name, value := range row {
		blob, ok := value.(core.LazyBlob)
		if !ok {
			out[name] = value
			continue
		}

		data, err := readBlob(ctx, blob)
		if err != nil {
			return nil, fmt.Errorf("failed to read blob column %s: %w", name, err)
		}

		var col core.Column
		declared := false
		if s != nil {
			col, declared = s.Column(name)
		}
		if declared && (col.Kind == core.KindText || col.Kind == core.KindString) {
			out[name] = string(data)
		} else {
			out[name] = data
		}
	}
	return out, nil
}

// HydrateAll hydrates rows concurrently, at most limit at a time (no bound
// when limit < 1). Row order is preserved. The first failure cancels the
// remaining reads and is returned.
func HydrateAll(ctx context.Context, s *core.Schema, rows []core.Row, limit int) ([]core.Row, error) {
	out := make([]core.Row, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			h, err := Hydrate(gctx, s, row)
			if err != nil {
				return err
			}
			out[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// readBlob drains a blob stream chunk by chunk until EOF, an error, or the
// end of ctx.
func readBlob(ctx context.Context, blob core.LazyBlob) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := blob.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	chunk := make([]byte, blobChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := rc.Read(chunk)
		buf.Write(chunk[:n])
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
