package services

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "github.com/avigen/faceguard/internal/server/config"
)

func testS3Config() *sc.Config {
	cfg := &sc.Config{}
	cfg.LoadDefaults()
	return cfg
}

func stubAWS(t *testing.T, putErr, presignErr error, presignURL string) (*[]string, *[]string) {
	t.Helper()

	origLoad := loadDefaultAWSConfig
	origNewClient := newS3ClientFromConfig
	origNewPresign := newS3PresignClient
	origPut := putObject
	origPresign := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewClient
		newS3PresignClient = origNewPresign
		putObject = origPut
		presignGetObject = origPresign
	})

	var putKeys, presignKeys []string

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		putKeys = append(putKeys, *in.Key)
		if putErr != nil {
			return nil, putErr
		}
		return &s3.PutObjectOutput{}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		presignKeys = append(presignKeys, *in.Key)
		if presignErr != nil {
			return nil, presignErr
		}
		return &v4.PresignedHTTPRequest{URL: presignURL}, nil
	}

	return &putKeys, &presignKeys
}

func TestS3BlobStore_Put(t *testing.T) {
	putKeys, presignKeys := stubAWS(t, nil, nil, "https://s3/faces/u1.jpg?sig=x")
	store := NewS3BlobStore(testS3Config())

	url, err := store.Put(context.Background(), "faces/u1.jpg", []byte{0xff, 0xd8})
	require.NoError(t, err)
	assert.Equal(t, "https://s3/faces/u1.jpg?sig=x", url)
	assert.Equal(t, []string{"faces/u1.jpg"}, *putKeys)
	assert.Equal(t, []string{"faces/u1.jpg"}, *presignKeys)
}

func TestS3BlobStore_PutError(t *testing.T) {
	boom := errors.New("upload refused")
	_, presignKeys := stubAWS(t, boom, nil, "")
	store := NewS3BlobStore(testS3Config())

	_, err := store.Put(context.Background(), "faces/u1.jpg", []byte{1})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, *presignKeys)
}

func TestS3BlobStore_PresignError(t *testing.T) {
	boom := errors.New("presign failed")
	stubAWS(t, nil, boom, "")
	store := NewS3BlobStore(testS3Config())

	_, err := store.Put(context.Background(), "faces/u1.jpg", []byte{1})
	require.ErrorIs(t, err, boom)
}

func TestS3BlobStore_ConfigLoadError(t *testing.T) {
	stubAWS(t, nil, nil, "")
	boom := errors.New("no credentials")
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, boom
	}
	store := NewS3BlobStore(testS3Config())

	_, err := store.Put(context.Background(), "faces/u1.jpg", []byte{1})
	require.ErrorIs(t, err, boom)
}
