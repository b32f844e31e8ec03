package storage

import (
	"fmt"
	"io"
	"strings"
	"time"

	"studio-service/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// ErrObjectExists guards against silently replacing a delivered asset.
var ErrObjectExists = fmt.Errorf("object already exists")

// ObjectInfo describes one stored deliverable file.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Client wraps the S3 bucket holding project deliverables, laid out as
// {project_id}/{preview|full}/{filename}.
type Client struct {
	bucketName string
	signTTL    time.Duration
	svc        *s3.S3
}

func NewClient(cfg config.StorageConfig) (*Client, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		bucketName: cfg.Bucket,
		signTTL:    cfg.SignedURLTTL,
		svc:        s3.New(sess),
	}, nil
}

// Exists reports whether an object is already stored under key.
func (c *Client) Exists(key string) (bool, error) {
	_, err := c.svc.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.RequestFailure); ok && aerr.StatusCode() == 404 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Upload writes one object. A name collision fails rather than replacing the
// stored file.
func (c *Client) Upload(src io.Reader, key, contentType string) error {
	exists, err := c.Exists(key)
	if err != nil {
		return fmt.Errorf("failed to check for existing object: %w", err)
	}
	if exists {
		return ErrObjectExists
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
		Body:   aws.ReadSeekCloser(src),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	_, err = c.svc.PutObject(input)
	return err
}

// List returns all objects under a prefix.
func (c *Client) List(prefix string) ([]ObjectInfo, error) {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var objects []ObjectInfo
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucketName),
		Prefix: aws.String(prefix),
	}

	err := c.svc.ListObjectsV2Pages(input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if key == prefix || aws.Int64Value(obj.Size) == 0 {
				continue
			}
			objects = append(objects, ObjectInfo{
				Key:          key,
				Name:         key[strings.LastIndex(key, "/")+1:],
				Size:         aws.Int64Value(obj.Size),
				LastModified: aws.TimeValue(obj.LastModified),
			})
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return objects, nil
}

// DeletePrefix removes every object under a prefix. Used when an admin
// deletes a project, cascading over both namespaces.
func (c *Client) DeletePrefix(prefix string) error {
	objects, err := c.List(prefix)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		return nil
	}

	identifiers := make([]*s3.ObjectIdentifier, 0, len(objects))
	for _, obj := range objects {
		identifiers = append(identifiers, &s3.ObjectIdentifier{Key: aws.String(obj.Key)})
	}

	_, err = c.svc.DeleteObjects(&s3.DeleteObjectsInput{
		Bucket: aws.String(c.bucketName),
		Delete: &s3.Delete{Objects: identifiers},
	})
	return err
}

// SignedURL issues a time-limited GET URL for one object. The URL expires
// after the configured window and is never persisted.
func (c *Client) SignedURL(key string) (string, error) {
	req, _ := c.svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
	})

	url, err := req.Presign(c.signTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %s: %w", key, err)
	}
	return url, nil
}
