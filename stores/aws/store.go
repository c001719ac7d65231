package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flyer-server/core"
	"fmt"
	"io"
	"log"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const exportPrefix = "exports/"

// Client is the part of the S3 API the store uses.
type Client interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type s3Store struct {
	client Client
	bucket string
}

type record struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	OwnerID   string          `json:"ownerId,omitempty"`
	Name      string          `json:"name,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	Data      json.RawMessage `json:"data"`
}

// NewStore creates an S3-backed export store using the default credential chain.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}
	return NewStoreWithClient(s3.NewFromConfig(cfg), bucketName)
}

func NewStoreWithClient(client Client, bucketName string) *s3Store {
	return &s3Store{client: client, bucket: bucketName}
}

// exportKey places exports under their session so a listing is one prefix scan.
func exportKey(sessionID, id string) string {
	return exportPrefix + sessionID + "/" + id
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && path.Base(id) == id
}

func (s *s3Store) Create(ctx context.Context, export *core.Export) (string, error) {
	if !validID(export.SessionID) {
		return "", fmt.Errorf("invalid session id %q", export.SessionID)
	}
	export.ID = ulid.Make().String()
	if export.CreatedAt.IsZero() {
		export.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(record{
		ID:        export.ID,
		SessionID: export.SessionID,
		OwnerID:   export.OwnerID,
		Name:      export.Name,
		CreatedAt: export.CreatedAt,
		Data:      export.Data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal export: %w", err)
	}

	// The session key holds the data; the index key lets FindID resolve a bare id.
	key := exportKey(export.SessionID, export.ID)
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}); err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(indexKey(export.ID)),
		Body:   strings.NewReader(key),
	}); err != nil {
		return "", fmt.Errorf("failed to index export: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"export_id":  export.ID,
		"session_id": export.SessionID,
		"bucket":     s.bucket,
	}).Info("Export created successfully")
	return export.ID, nil
}

func indexKey(id string) string { return "index/" + id }

func (s *s3Store) FindID(ctx context.Context, id string) (*core.Export, error) {
	if !validID(id) {
		return nil, fmt.Errorf("export %s: %w", id, core.ErrExportNotFound)
	}
	key, err := s.read(ctx, indexKey(id))
	if err != nil {
		return nil, s.notFound(id, err)
	}
	data, err := s.read(ctx, string(key))
	if err != nil {
		return nil, s.notFound(id, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal export: %w", err)
	}
	return rec.export(), nil
}

func (s *s3Store) List(ctx context.Context, sessionID string) ([]*core.Export, error) {
	if !validID(sessionID) {
		return []*core.Export{}, nil
	}
	output, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(exportPrefix + sessionID + "/"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list exports for session %s: %w", sessionID, err)
	}

	exports := make([]*core.Export, 0, len(output.Contents))
	for _, object := range output.Contents {
		data, err := s.read(ctx, aws.ToString(object.Key))
		if err != nil {
			logrus.WithField("key", aws.ToString(object.Key)).WithError(err).Warn("Failed to read export object, skipping")
			continue
		}
		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			logrus.WithField("key", aws.ToString(object.Key)).WithError(err).Warn("Failed to unmarshal export, skipping")
			continue
		}
		e := rec.export()
		e.Data = nil
		exports = append(exports, e)
	}
	sort.Slice(exports, func(i, j int) bool { return exports[i].ID < exports[j].ID })
	return exports, nil
}

func (s *s3Store) Delete(ctx context.Context, id string) error {
	e, err := s.FindID(ctx, id)
	if err != nil {
		return err
	}
	for _, key := range []string{exportKey(e.SessionID, id), indexKey(id)} {
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}); err != nil {
			return fmt.Errorf("failed to delete export %s: %w", id, err)
		}
	}
	logrus.WithField("export_id", id).Info("Export deleted successfully")
	return nil
}

func (s *s3Store) read(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (s *s3Store) notFound(id string, err error) error {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("export %s: %w", id, core.ErrExportNotFound)
	}
	return fmt.Errorf("failed to get export %s: %w", id, err)
}

func (r *record) export() *core.Export {
	return &core.Export{
		ID:        r.ID,
		SessionID: r.SessionID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		Data:      r.Data,
	}
}
