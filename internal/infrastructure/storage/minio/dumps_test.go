package minio

import (
	"context"
	"errors"
	"io"
	"testing"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RxMatch-Intelligence/internal/config"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

type fakeObjectAPI struct {
	buckets map[string]bool
	stored  map[string][]byte
	listErr error
}

func newFakeObjectAPI() *fakeObjectAPI {
	return &fakeObjectAPI{buckets: map[string]bool{}, stored: map[string][]byte{}}
}

func (f *fakeObjectAPI) BucketExists(_ context.Context, name string) (bool, error) {
	return f.buckets[name], nil
}

func (f *fakeObjectAPI) MakeBucket(_ context.Context, name string, _ miniogo.MakeBucketOptions) error {
	f.buckets[name] = true
	return nil
}

func (f *fakeObjectAPI) GetObject(_ context.Context, _, _ string, _ miniogo.GetObjectOptions) (*miniogo.Object, error) {
	return nil, errors.New("not implemented in fake")
}

func (f *fakeObjectAPI) PutObject(_ context.Context, _, name string, reader io.Reader, size int64, _ miniogo.PutObjectOptions) (miniogo.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return miniogo.UploadInfo{}, err
	}
	f.stored[name] = data
	return miniogo.UploadInfo{Key: name, Size: size}, nil
}

func (f *fakeObjectAPI) ListObjects(_ context.Context, _ string, opts miniogo.ListObjectsOptions) <-chan miniogo.ObjectInfo {
	ch := make(chan miniogo.ObjectInfo)
	go func() {
		defer close(ch)
		if f.listErr != nil {
			ch <- miniogo.ObjectInfo{Err: f.listErr}
			return
		}
		for name := range f.stored {
			if opts.Prefix == "" || len(name) >= len(opts.Prefix) && name[:len(opts.Prefix)] == opts.Prefix {
				ch <- miniogo.ObjectInfo{Key: name}
			}
		}
	}()
	return ch
}

func TestNewDumpStoreRequiresEndpoint(t *testing.T) {
	_, err := NewDumpStore(config.MinIOConfig{}, logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestEnsureBucketCreatesWhenAbsent(t *testing.T) {
	api := newFakeObjectAPI()
	store := &DumpStore{api: api, bucket: "rxmatch-dumps", logger: logging.NewNopLogger()}

	require.NoError(t, store.ensureBucket(context.Background()))
	assert.True(t, api.buckets["rxmatch-dumps"])

	// Second call is a no-op against the existing bucket.
	require.NoError(t, store.ensureBucket(context.Background()))
}

func TestPutStoresObject(t *testing.T) {
	api := newFakeObjectAPI()
	store := &DumpStore{api: api, bucket: "rxmatch-dumps", logger: logging.NewNopLogger()}

	size, err := store.Put(context.Background(), "dumps/catalog.json", []byte(`[{"brand_name":"Crocin Advance"}]`))

	require.NoError(t, err)
	assert.Equal(t, int64(33), size)
	assert.Contains(t, api.stored, "dumps/catalog.json")
}

func TestListFiltersByPrefix(t *testing.T) {
	api := newFakeObjectAPI()
	api.stored["dumps/a.json"] = []byte("{}")
	api.stored["other/b.json"] = []byte("{}")
	store := &DumpStore{api: api, bucket: "rxmatch-dumps", logger: logging.NewNopLogger()}

	names, err := store.List(context.Background(), "dumps/")

	require.NoError(t, err)
	assert.Equal(t, []string{"dumps/a.json"}, names)
}

func TestListSurfacesIterationError(t *testing.T) {
	api := newFakeObjectAPI()
	api.listErr = errors.New("connection reset")
	store := &DumpStore{api: api, bucket: "rxmatch-dumps", logger: logging.NewNopLogger()}

	_, err := store.List(context.Background(), "")

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInternal))
}
