package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// ZstdStore compresses blobs before handing them to the wrapped store.
// Keys are unchanged; callers see plain bytes on both ends.
type ZstdStore struct {
	Inner BlobStore
}

func NewZstdStore(inner BlobStore) *ZstdStore { return &ZstdStore{Inner: inner} }

func (z *ZstdStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	go func() {
		enc, err := zstd.NewWriter(pw)
		if err != nil {
			pw.CloseWithError(fmt.Errorf("zstd encoder: %w", err))
			return
		}
		if _, err := io.Copy(enc, r); err != nil {
			_ = enc.Close()
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(enc.Close())
	}()
	key, err := z.Inner.Put(ctx, key, pr)
	// Unblock the encoder if the inner store stopped reading early.
	_ = pr.CloseWithError(io.ErrClosedPipe)
	return key, err
}

func (z *ZstdStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := z.Inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(rc)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &zstdReadCloser{dec: dec, src: rc}, nil
}

type zstdReadCloser struct {
	dec *zstd.Decoder
	src io.ReadCloser
}

func (z *zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.src.Close()
}
