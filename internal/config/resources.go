package config

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jmylchreest/campaign-brief/internal/apperr"
)

// Resource names shared by both binaries.
const (
	DenylistResource      = "denylist.txt"
	BlockPhrasesResource  = "block_phrases.txt"
	ConsentXPathsResource = "consent_xpaths.txt"
)

// ErrResourceNotFound is returned by a ResourceSource when a resource does not exist.
var ErrResourceNotFound = errors.New("resource not found")

// ResourceSource reads named text resources (instruction templates, phrase lists).
type ResourceSource interface {
	Read(ctx context.Context, name string) ([]byte, error)
	String() string
}

// InstructionResource returns the resource name of an instruction template.
func InstructionResource(name string) string {
	return path.Join("instructions", name+".txt")
}

// DirSource reads resources from a local directory.
type DirSource struct {
	Dir string
}

func (s DirSource) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrResourceNotFound)
	}
	return data, err
}

func (s DirSource) String() string {
	return "dir:" + s.Dir
}

// S3Source reads resources from an S3-compatible bucket under a key prefix.
type S3Source struct {
	client *s3.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3Source builds an S3 client from the resource settings.
// Static credentials are used when both key parts are set, otherwise the default AWS chain applies.
func NewS3Source(ctx context.Context, cfg *Config, logger *slog.Logger) (*S3Source, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.ResourceS3Region),
	}
	if cfg.ResourceS3KeyID != "" && cfg.ResourceS3Secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.ResourceS3KeyID, cfg.ResourceS3Secret, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.ResourceS3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.ResourceS3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Source{
		client: client,
		bucket: cfg.ResourceS3Bucket,
		prefix: cfg.ResourceS3Prefix,
		logger: logger,
	}, nil
}

func (s *S3Source) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *S3Source) Read(ctx context.Context, name string) ([]byte, error) {
	key := s.key(name)
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%s: %w", key, ErrResourceNotFound)
		}
		return nil, fmt.Errorf("failed to fetch s3://%s/%s: %w", s.bucket, key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", s.bucket, key, err)
	}

	s.logger.Debug("loaded resource from S3", "bucket", s.bucket, "key", key, "bytes", len(data))
	return data, nil
}

func (s *S3Source) String() string {
	return "s3://" + s.bucket + "/" + s.prefix
}

// LayeredSource tries each source in order and returns the first hit.
// Errors other than ErrResourceNotFound stop the lookup.
type LayeredSource []ResourceSource

func (l LayeredSource) Read(ctx context.Context, name string) ([]byte, error) {
	for _, src := range l {
		data, err := src.Read(ctx, name)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrResourceNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrResourceNotFound)
}

func (l LayeredSource) String() string {
	names := make([]string, len(l))
	for i, src := range l {
		names[i] = src.String()
	}
	return strings.Join(names, ",")
}

// NewResourceSource returns the source configured by cfg: S3 (when a bucket is set)
// layered over the local resource directory.
func NewResourceSource(ctx context.Context, cfg *Config, logger *slog.Logger) (ResourceSource, error) {
	dir := DirSource{Dir: cfg.ResourceDir}
	if !cfg.S3Enabled() {
		return dir, nil
	}
	s3src, err := NewS3Source(ctx, cfg, logger)
	if err != nil {
		return nil, &apperr.ConfigurationError{Key: "RESOURCE_S3_BUCKET", Err: err}
	}
	return LayeredSource{s3src, dir}, nil
}

// LoadInstructions reads one instruction template per name. Any missing or empty
// template is a ConfigurationError.
func LoadInstructions(ctx context.Context, src ResourceSource, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		res := InstructionResource(name)
		data, err := src.Read(ctx, res)
		if err != nil {
			return nil, &apperr.ConfigurationError{Key: res, Err: err}
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, &apperr.ConfigurationError{Key: res, Err: errors.New("instruction is empty")}
		}
		out[name] = text
	}
	return out, nil
}

// LoadPhraseList reads a one-entry-per-line resource. A missing resource yields fallback.
func LoadPhraseList(ctx context.Context, src ResourceSource, name string, fallback []string) ([]string, error) {
	data, err := src.Read(ctx, name)
	if errors.Is(err, ErrResourceNotFound) {
		return fallback, nil
	}
	if err != nil {
		return nil, &apperr.ConfigurationError{Key: name, Err: err}
	}
	return ParseLines(data), nil
}

// ParseLines splits a phrase list into trimmed entries, skipping blanks and # comments.
func ParseLines(data []byte) []string {
	var out []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
