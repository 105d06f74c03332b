package artifact

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gopika-sys/Employee-Retention-Analysis/internal/hrtest"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/model"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/pipeline"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func trainedBundle(t *testing.T) (*Bundle, [][]float64) {
	t.Helper()
	records, labels, err := pipeline.ParseRecords(hrtest.Dataset(300, 11), true)
	require.NoError(t, err)
	tr := pipeline.NewTransformer()
	X, err := tr.Fit(records)
	require.NoError(t, err)
	rf := model.NewRandomForest(model.WithNEstimators(5), model.WithForestMaxDepth(4), model.WithForestMaxFeatures(3))
	require.NoError(t, rf.Fit(X, labels))
	b := NewBundle(rf, tr, Meta{Owner: "alice", Accuracy: 0.9, TrainedAt: time.Unix(1700000000, 0).UTC(), TrainRows: 240, TestRows: 60})
	return b, X
}

func TestValidateOwner(t *testing.T) {
	for _, ok := range []string{"alice", "user_42", "A-b-C", string(bytes.Repeat([]byte("x"), 64))} {
		assert.NoError(t, ValidateOwner(ok), ok)
	}
	for _, bad := range []string{"", "../etc", "a b", "a/b", "ü", string(bytes.Repeat([]byte("x"), 65))} {
		assert.ErrorIs(t, ValidateOwner(bad), ErrInvalidOwner, bad)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	b, X := trainedBundle(t)
	blob, err := Encode(b)
	require.NoError(t, err)
	assert.Equal(t, magic[:], blob[:4])

	back, err := Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, b.ID, back.ID)
	assert.Equal(t, b.Meta, back.Meta)

	want, err := b.Forest.PredictProba(X)
	require.NoError(t, err)
	got, err := back.Forest.PredictProba(X)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeRejectsOtherVersion(t *testing.T) {
	b, _ := trainedBundle(t)
	blob, err := Encode(b)
	require.NoError(t, err)
	binary.BigEndian.PutUint16(blob[4:], FormatVersion+1)
	_, err = Decode(blob)
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("nope"))
	assert.ErrorIs(t, err, ErrCorrupt)
	_, err = Decode(append(append([]byte{}, magic[:]...), 0, byte(FormatVersion), 1, 2, 3))
	assert.ErrorIs(t, err, ErrCorrupt)
}

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Bucket+"/"+*in.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	s3s, err := NewS3Store(&fakeS3{objects: map[string][]byte{}}, "models", "")
	require.NoError(t, err)
	fsCached, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return map[string]Backend{
		"file":   fs,
		"redis":  NewRedisStore(&fakeRedis{data: map[string]string{}}, ""),
		"s3":     s3s,
		"cached": NewCachedStore(fsCached, 16*1024*1024),
	}
}

func TestStoreRoundTripEveryBackend(t *testing.T) {
	b, X := trainedBundle(t)
	want, err := b.Forest.PredictProba(X)
	require.NoError(t, err)

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := NewStore(backend)

			_, err := store.Load(ctx, "alice")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Save(ctx, "alice", b))
			back, err := store.Load(ctx, "alice")
			require.NoError(t, err)
			got, err := back.Forest.PredictProba(X)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			_, err = store.Load(ctx, "bob")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreOverwritesOnRetrain(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	store := NewStore(fs)

	first, _ := trainedBundle(t)
	second, _ := trainedBundle(t)
	require.NoError(t, store.Save(ctx, "alice", first))
	require.NoError(t, store.Save(ctx, "alice", second))
	back, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, second.ID, back.ID)

	entries, err := os.ReadDir(fs.Dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice"+fileExt, entries[0].Name())
}

func TestStoreRejectsInvalidOwnerAndBundle(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	store := NewStore(fs)
	b, _ := trainedBundle(t)

	assert.ErrorIs(t, store.Save(ctx, "../x", b), ErrInvalidOwner)
	_, err = store.Load(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidOwner)
	assert.ErrorIs(t, store.Save(ctx, "alice", &Bundle{Version: FormatVersion}), ErrCorrupt)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, fs.Put(context.Background(), "k", []byte("v1")))
	require.NoError(t, fs.Put(context.Background(), "k", []byte("v2")))
	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
	got, err := fs.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

type countingBackend struct {
	Backend
	gets int
}

func (c *countingBackend) Get(ctx context.Context, key string) ([]byte, error) {
	c.gets++
	return c.Backend.Get(ctx, key)
}

func TestCachedStoreReadsThrough(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, fs.Put(ctx, "k", []byte("v1")))
	inner := &countingBackend{Backend: fs}
	cached := NewCachedStore(inner, 1024*1024)

	for i := 0; i < 3; i++ {
		got, err := cached.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)
	}
	assert.Equal(t, 1, inner.gets)

	require.NoError(t, cached.Put(ctx, "k", []byte("v2")))
	got, err := cached.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
	assert.Equal(t, 1, inner.gets)

	_, err = cached.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "cached-file", cached.Name())
}

func TestCachedStoreOversizedBlobFallsThrough(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	big := bytes.Repeat([]byte("x"), 8*1024)
	require.NoError(t, fs.Put(ctx, "big", big))
	inner := &countingBackend{Backend: fs}
	cached := NewCachedStore(inner, 1024*1024)

	for i := 0; i < 2; i++ {
		got, err := cached.Get(ctx, "big")
		require.NoError(t, err)
		assert.Equal(t, big, got)
	}
	assert.Equal(t, 2, inner.gets)
	assert.Equal(t, int64(0), cached.cache.EntryCount())
}
