package aws

import (
	"bytes"
	"context"
	"errors"
	"flyer-server/core"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3 keeps objects in a map.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[aws.ToString(in.Key)] = data
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	delete(f.objects, aws.ToString(in.Key))
	f.mu.Unlock()
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestCreateFindListDelete(t *testing.T) {
	fake := newFakeS3()
	store := NewStoreWithClient(fake, "bucket")
	ctx := context.Background()

	a, err := store.Create(ctx, &core.Export{SessionID: "s1", OwnerID: "bob", Data: []byte(`{"layers":[]}`)})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	store.Create(ctx, &core.Export{SessionID: "s2", Data: []byte(`{}`)})
	b, _ := store.Create(ctx, &core.Export{SessionID: "s1", Data: []byte(`{}`)})

	if _, ok := fake.objects["exports/s1/"+a]; !ok {
		t.Errorf("export not stored under its session prefix: %v", fake.objects)
	}

	got, err := store.FindID(ctx, a)
	if err != nil {
		t.Fatalf("FindID() failed: %v", err)
	}
	if got.OwnerID != "bob" || string(got.Data) != `{"layers":[]}` {
		t.Errorf("FindID() = %+v", got)
	}

	list, err := store.List(ctx, "s1")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != a || list[1].ID != b || list[0].Data != nil {
		t.Errorf("List() = %+v", list)
	}

	if err := store.Delete(ctx, a); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.FindID(ctx, a); !errors.Is(err, core.ErrExportNotFound) {
		t.Errorf("FindID() after delete error = %v", err)
	}
	if err := store.Delete(ctx, a); !errors.Is(err, core.ErrExportNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestRejectsPathLikeIDs(t *testing.T) {
	store := NewStoreWithClient(newFakeS3(), "bucket")
	ctx := context.Background()

	if _, err := store.Create(ctx, &core.Export{SessionID: "../x"}); err == nil {
		t.Error("Create() accepted a path-like session id")
	}
	if _, err := store.FindID(ctx, "a/b"); !errors.Is(err, core.ErrExportNotFound) {
		t.Errorf("FindID(a/b) error = %v", err)
	}
}
