package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/supabase-community/postgrest-go"
	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

var Validate = validator.New()

const DefaultStorageBucket = "product-files"

type SupabaseRepo struct {
	supabaseClient *supabase.Client
	url            string
	key            string
	bucket         string
}

// SupabaseNewRepo wraps a service-role client. Authorization is enforced by
// the services, so row level security is bypassed here. anonKey backs the
// per-user clients for profile reads and writes made with a caller's token.
func SupabaseNewRepo(supabaseClient *supabase.Client, url, anonKey, bucket string) *SupabaseRepo {
	if bucket == "" {
		bucket = DefaultStorageBucket
	}
	return &SupabaseRepo{
		supabaseClient: supabaseClient,
		url:            url,
		key:            anonKey,
		bucket:         bucket,
	}
}

// GetAuthenticatedClient returns a Supabase client with the given access token
func (su *SupabaseRepo) GetAuthenticatedClient(accessToken string) (*supabase.Client, error) {
	if su.url == "" || su.key == "" {
		return su.supabaseClient, nil
	}

	options := &supabase.ClientOptions{
		Headers: map[string]string{
			"Authorization": "Bearer " + accessToken,
		},
	}

	return supabase.NewClient(su.url, su.key, options)
}

// SignedURL issues a time-limited download link for a file in the product bucket.
func (su *SupabaseRepo) SignedURL(ctx context.Context, path string, expiresIn time.Duration) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file path is required")
	}
	res, err := withContext(ctx, func() (storage_go.SignedUrlResponse, error) {
		return su.supabaseClient.Storage.CreateSignedUrl(su.bucket, path, int(expiresIn.Seconds()))
	})
	if err != nil {
		return "", Upstream("create signed url", err)
	}
	if res.SignedURL == "" {
		return "", Upstream("create signed url", fmt.Errorf("empty url for %s", path))
	}
	return res.SignedURL, nil
}

type queryResult struct {
	raw   []byte
	count int64
}

// execute runs a PostgREST request and gives up when ctx is done. The
// client has no context support, so an abandoned request finishes in the
// background and its result is dropped.
func execute(ctx context.Context, fb *postgrest.FilterBuilder) ([]byte, int64, error) {
	res, err := withContext(ctx, func() (queryResult, error) {
		raw, count, err := fb.Execute()
		return queryResult{raw: raw, count: count}, err
	})
	return res.raw, res.count, err
}

func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{val: v, err: err}
	}()
	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func decodeRows[T any](raw []byte) ([]*T, error) {
	var rows []*T
	if len(raw) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rows: %v", err)
	}
	return rows, nil
}

func decodeOne[T any](raw []byte, what string) (*T, error) {
	rows, err := decodeRows[T](raw)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, NotFoundf("%s not found", what)
	}
	return rows[0], nil
}

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	if dbName == "" {
		dbName = AnalyticsDbName
	}
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

func (mdb *MongodbRepo) GetCollection(ctx context.Context, dbName, colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialised")
	}
	return mdb.mongodbClient.Database(dbName).Collection(colName), nil
}
