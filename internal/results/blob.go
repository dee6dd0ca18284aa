package results

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // gs:// driver
	_ "gocloud.dev/blob/s3blob"   // s3:// driver
	"gocloud.dev/gcerrors"

	"github.com/axym-research/ingestbench/internal/bench"
)

// blobStore persists result records in a cloud bucket so runs on ephemeral
// benchmark hosts survive the host.
type blobStore struct {
	bucket *blob.Bucket
	prefix string
}

func newBlobStore(ctx context.Context, bucketURL, prefix string) (*blobStore, error) {
	if bucketURL == "" {
		return nil, fmt.Errorf("results backend is blob but bucket_url is empty")
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open results bucket %s: %w", bucketURL, err)
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &blobStore{bucket: bucket, prefix: prefix}, nil
}

func (s *blobStore) Save(ctx context.Context, res *bench.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	// Write to a temp key first, then copy into place, so a reader never
	// sees a half-written record.
	key := s.prefix + Key(res.Name)
	tempKey := key + ".tmp." + uuid.New().String()

	w, err := s.bucket.NewWriter(ctx, tempKey, nil)
	if err != nil {
		return fmt.Errorf("create writer for %s: %w", tempKey, err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write result to %s: %w", tempKey, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", tempKey, err)
	}

	if err := s.bucket.Copy(ctx, key, tempKey, nil); err != nil {
		s.bucket.Delete(ctx, tempKey)
		return fmt.Errorf("finalize result %s: %w", key, err)
	}
	if err := s.bucket.Delete(ctx, tempKey); err != nil {
		return fmt.Errorf("delete temp result %s: %w", tempKey, err)
	}
	return nil
}

func (s *blobStore) Load(ctx context.Context, name string) (*bench.Result, error) {
	key := s.prefix + Key(name)
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read result %s: %w", key, err)
	}
	var res bench.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse result %s: %w", key, err)
	}
	return &res, nil
}

func (s *blobStore) List(ctx context.Context) ([]*bench.Result, error) {
	var out []*bench.Result
	iter := s.bucket.List(&blob.ListOptions{Prefix: s.prefix + "ingest_"})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list results: %w", err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		data, err := s.bucket.ReadAll(ctx, obj.Key)
		if err != nil {
			return nil, fmt.Errorf("read result %s: %w", obj.Key, err)
		}
		var res bench.Result
		if err := json.Unmarshal(data, &res); err != nil {
			return nil, fmt.Errorf("parse result %s: %w", obj.Key, err)
		}
		out = append(out, &res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *blobStore) Close() error {
	if s.bucket != nil {
		return s.bucket.Close()
	}
	return nil
}
