// Package objectstore wraps Google Cloud Storage as the pipeline's bucket,
// following the connect/enable/Close lifecycle the validator service used
// for its Firestore client, adapted to a blocking object-store client rather
// than a no-op-capable one since every stage needs the bucket to function.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Client wraps a GCS bucket handle with the logging and functional-option
// conventions used throughout this codebase's other clients.
type Client struct {
	bucket *storage.BucketHandle
	raw    *storage.Client
	name   string
	logger *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger overrides the default component-prefixed logger.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient opens a GCS client scoped to the given bucket. credentialsFile
// may be empty, in which case application-default credentials are used.
func NewClient(ctx context.Context, bucketName, credentialsFile string, opts ...ClientOption) (*Client, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("objectstore: bucket name cannot be empty")
	}

	var gcsOpts []option.ClientOption
	if credentialsFile != "" {
		gcsOpts = append(gcsOpts, option.WithCredentialsFile(credentialsFile))
	}

	raw, err := storage.NewClient(ctx, gcsOpts...)
	if err != nil {
		return nil, fmt.Errorf("objectstore: failed to create GCS client: %w", err)
	}

	client := &Client{
		bucket: raw.Bucket(bucketName),
		raw:    raw,
		name:   bucketName,
		logger: log.New(log.Writer(), "[ObjectStore] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(client)
	}

	client.logger.Printf("connected to bucket %s", bucketName)
	return client, nil
}

// Close releases the underlying GCS client.
func (c *Client) Close() error {
	if c.raw != nil {
		return c.raw.Close()
	}
	return nil
}

// Get reads an object fully into memory. Returns os.ErrNotExist-wrapping
// error (via errors.Is(err, ErrNotExist)) when the key does not exist.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := c.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("objectstore: %s: %w", key, ErrNotExist)
		}
		return nil, fmt.Errorf("objectstore: failed to open %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("objectstore: failed to read %s: %w", key, err)
	}
	return data, nil
}

// Put writes an object, overwriting any existing content at the key.
func (c *Client) Put(ctx context.Context, key string, data []byte) error {
	w := c.bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return fmt.Errorf("objectstore: failed to write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("objectstore: failed to finalize %s: %w", key, err)
	}
	return nil
}

// PutAtomic writes data to a temporary key then copies it into place, so
// readers never observe a partially written object at the final key.
func (c *Client) PutAtomic(ctx context.Context, key string, data []byte) error {
	tmpKey := key + ".tmp"
	if err := c.Put(ctx, tmpKey, data); err != nil {
		return err
	}
	src := c.bucket.Object(tmpKey)
	dst := c.bucket.Object(key)
	if _, err := dst.CopierFrom(src).Run(ctx); err != nil {
		return fmt.Errorf("objectstore: failed to publish %s: %w", key, err)
	}
	if err := src.Delete(ctx); err != nil {
		c.logger.Printf("warning: failed to clean up temp object %s: %v", tmpKey, err)
	}
	return nil
}

// Exists reports whether an object is present at key.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.bucket.Object(key).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("objectstore: failed to stat %s: %w", key, err)
}

// List returns all object keys under prefix.
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	it := c.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("objectstore: failed to list %s: %w", prefix, err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

// ErrNotExist marks an object-store key that does not exist. Callers treat
// it as "start from empty" for maps, checkpoints, and history files.
var ErrNotExist = os.ErrNotExist
