package cloudwriter

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	objects map[string][]byte
	err     error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3WriterUploadsOnClose(t *testing.T) {
	putter := &fakePutter{objects: map[string][]byte{}}
	factory := NewS3WriterFactoryWithClient(context.Background(), putter)

	w, err := factory.NewWriter("till", "orders/year=2026/month=10/day=03/data.parquet")
	require.NoError(t, err)
	_, err = w.Write([]byte("PAR1"))
	require.NoError(t, err)
	_, err = w.Write([]byte("rows"))
	require.NoError(t, err)
	assert.Empty(t, putter.objects)

	require.NoError(t, w.Close())
	assert.Equal(t, []byte("PAR1rows"), putter.objects["till/orders/year=2026/month=10/day=03/data.parquet"])

	require.NoError(t, w.Close())
	_, err = w.Write([]byte("late"))
	assert.Error(t, err)
}

func TestS3WriterErrors(t *testing.T) {
	boom := errors.New("access denied")
	factory := NewS3WriterFactoryWithClient(context.Background(), &fakePutter{err: boom})

	_, err := factory.NewWriter("", "x")
	assert.Error(t, err)

	w, err := factory.NewWriter("till", "x")
	require.NoError(t, err)
	assert.ErrorIs(t, w.Close(), boom)
}
