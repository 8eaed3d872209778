package statuscheck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type buckets struct{ known map[string]bool }

func (b buckets) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if b.known[aws.ToString(in.Bucket)] {
		return &s3.HeadBucketOutput{}, nil
	}
	return nil, errors.New("NotFound: bucket does not exist")
}

func TestSummaryAllHealthy(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	c := New(Options{
		Redis:     pinger{},
		S3:        buckets{known: map[string]bool{"pages": true}},
		S3Bucket:  "pages",
		Renderer:  func(context.Context) error { return nil },
		OutputDir: out,
	})
	sum := c.Summary(context.Background())
	assert.True(t, sum.Healthy())
	for _, st := range sum.All() {
		assert.True(t, st.OK, st.Name)
		assert.True(t, st.Configured, st.Name)
	}

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSummaryUnconfiguredIsHealthy(t *testing.T) {
	sum := New(Options{}).Summary(context.Background())
	assert.True(t, sum.Healthy())
	assert.False(t, sum.Redis.Configured)
	assert.Equal(t, "REDIS_URL not set", sum.Redis.Message)
	assert.Equal(t, "Bucket not configured", sum.S3.Message)
}

func TestSummaryReportsFailures(t *testing.T) {
	c := New(Options{
		Redis:    pinger{err: context.DeadlineExceeded},
		S3:       buckets{},
		S3Bucket: "missing",
		Renderer: func(context.Context) error { return errors.New(strings.Repeat("x", 300)) },
	})
	sum := c.Summary(context.Background())
	assert.False(t, sum.Healthy())
	assert.Equal(t, "timeout", sum.Redis.Message)
	assert.Contains(t, sum.S3.Message, "NotFound")
	assert.Len(t, sum.Renderer.Message, 120)
}
