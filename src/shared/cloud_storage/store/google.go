package store

import (
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
	"google.golang.org/api/option"
)

var _ FileStore = GoogleFileStore{}

func NewGoogleFileStore(storageHost string, opts ...option.ClientOption) (GoogleFileStore, error) {
	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return GoogleFileStore{}, errors.Wrap(err, "Failed to create Google Cloud Storage client")
	}

	return GoogleFileStore{
		storageHost: storageHost,
		client:      client,
	}, nil
}

type GoogleFileStore struct {
	storageHost string
	client      *storage.Client
}

func (g GoogleFileStore) GetFile(ctx context.Context, fileURL string) ([]byte, error) {
	bucket, objectPath, err := g.splitFileURL(fileURL)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to split file URL into bucket and object path")
	}

	reader, err := g.client.Bucket(bucket).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to open reader for storage object")
	}
	defer reader.Close()

	contents, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read storage object contents")
	}

	return contents, nil
}

func (g GoogleFileStore) WriteFile(ctx context.Context, fileURL string, fileContent []byte) error {
	bucket, objectPath, err := g.splitFileURL(fileURL)
	if err != nil {
		return errors.Wrap(err, "Failed to split file URL into bucket and object path")
	}

	writer := g.client.Bucket(bucket).Object(objectPath).NewWriter(ctx)

	if _, err := writer.Write(fileContent); err != nil {
		_ = writer.Close()
		return errors.Wrap(err, "Failed to write contents to storage object")
	}

	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "Failed to finalize storage object write")
	}

	return nil
}

func (g GoogleFileStore) splitFileURL(fileURL string) (bucket string, objectPath string, err error) {
	prefix := g.storageHost + "/"
	if !strings.HasPrefix(fileURL, prefix) {
		return "", "", errors.Newf("File URL is not hosted on storage host %s", g.storageHost)
	}

	remainder := strings.TrimPrefix(fileURL, prefix)
	parts := strings.SplitN(remainder, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("File URL does not contain a bucket and object path")
	}

	return parts[0], parts[1], nil
}
