package statuscheck

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// BucketHeader is the slice of the S3 client used to probe the mirror bucket.
type BucketHeader interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Options configures the Checker. Nil dependencies are reported as not configured.
type Options struct {
	Redis     RedisPinger
	S3        BucketHeader
	S3Bucket  string
	Renderer  func(ctx context.Context) error
	OutputDir string
}

// Status represents the readiness of a subsystem.
type Status struct {
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	Configured bool   `json:"configured"`
	Message    string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
	Redis    Status `json:"redis"`
	S3       Status `json:"s3"`
	Renderer Status `json:"renderer"`
	Output   Status `json:"output"`
}

// Healthy is false when any configured subsystem failed.
func (s Summary) Healthy() bool {
	for _, st := range s.All() {
		if st.Configured && !st.OK {
			return false
		}
	}
	return true
}

// All lists the statuses in report order.
func (s Summary) All() []Status { return []Status{s.Redis, s.S3, s.Renderer, s.Output} }

// Checker aggregates health checks for the optional backends of a run.
type Checker struct {
	opts Options
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
	return &Checker{opts: opts}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Redis:    c.checkRedis(ctx),
		S3:       c.checkS3(ctx),
		Renderer: c.checkRenderer(ctx),
		Output:   c.checkOutput(),
	}
}

func (c *Checker) checkRedis(ctx context.Context) Status {
	st := Status{Name: "redis"}
	if c.opts.Redis == nil {
		st.Message = "REDIS_URL not set"
		return st
	}
	st.Configured = true
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.opts.Redis.Ping(ctx); err != nil {
		st.Message = trimError(err)
		return st
	}
	st.OK, st.Message = true, "Connected"
	return st
}

func (c *Checker) checkS3(ctx context.Context) Status {
	st := Status{Name: "s3"}
	if c.opts.S3 == nil || c.opts.S3Bucket == "" {
		st.Message = "Bucket not configured"
		return st
	}
	st.Configured = true
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := c.opts.S3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &c.opts.S3Bucket}); err != nil {
		st.Message = trimError(err)
		return st
	}
	st.OK, st.Message = true, "Connected"
	return st
}

func (c *Checker) checkRenderer(ctx context.Context) Status {
	st := Status{Name: "renderer"}
	if c.opts.Renderer == nil {
		st.Message = "not checked"
		return st
	}
	st.Configured = true
	if err := c.opts.Renderer(ctx); err != nil {
		st.Message = trimError(err)
		return st
	}
	st.OK, st.Message = true, "Available"
	return st
}

// checkOutput verifies that pages can be created in the output directory.
func (c *Checker) checkOutput() Status {
	st := Status{Name: "output"}
	if c.opts.OutputDir == "" {
		st.Message = "not checked"
		return st
	}
	st.Configured = true
	if err := os.MkdirAll(c.opts.OutputDir, 0o755); err != nil {
		st.Message = trimError(err)
		return st
	}
	f, err := os.CreateTemp(c.opts.OutputDir, ".repage-probe-")
	if err != nil {
		st.Message = trimError(err)
		return st
	}
	f.Close()
	_ = os.Remove(f.Name())
	st.OK, st.Message = true, fmt.Sprintf("Writable (%s)", filepath.Clean(c.opts.OutputDir))
	return st
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
