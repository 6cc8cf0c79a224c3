package storage

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"massiliafm/config"
	"massiliafm/logger"
)

var minioClient *minio.Client

// InitMinio initializes the MinIO client and makes sure the station
// bucket exists.
func InitMinio(cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	logger.Info("MinIO client initialized", logger.String("bucket", cfg.MinioBucket))
	return nil
}

// GetMinioClient returns the MinIO client instance.
func GetMinioClient() *minio.Client {
	return minioClient
}

var unsafeObjectChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// ObjectName builds a collision-resistant object path for an upload:
// folder/<unix-millis>-<sanitized filename>, filename capped at 140
// characters the way the original upload flow did.
func ObjectName(folder, filename string) string {
	safe := unsafeObjectChars.ReplaceAllString(filename, "_")
	if len(safe) > 140 {
		safe = safe[:140]
	}
	if safe == "" {
		safe = "upload"
	}
	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), safe)
	if folder != "" {
		return folder + "/" + name
	}
	return name
}

// PresignedUpload is the response to a signed-URL request: the client
// PUTs the file to UploadURL, then registers PublicURL as the track's
// audio or cover location.
type PresignedUpload struct {
	UploadURL string `json:"signedUrl"`
	Path      string `json:"path"`
	PublicURL string `json:"publicUrl"`
}

// PresignUpload creates a time-limited PUT URL for a direct browser
// upload into the station bucket.
func PresignUpload(ctx context.Context, cfg *config.Config, folder, filename string) (*PresignedUpload, error) {
	if minioClient == nil {
		return nil, fmt.Errorf("MinIO client not initialized")
	}

	objectPath := ObjectName(folder, filename)
	u, err := minioClient.PresignedPutObject(ctx, cfg.MinioBucket, objectPath, 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload for %s: %w", objectPath, err)
	}

	return &PresignedUpload{
		UploadURL: u.String(),
		Path:      objectPath,
		PublicURL: PublicURL(cfg, objectPath),
	}, nil
}

// PublicURL returns the URL the browser uses to fetch a stored object.
func PublicURL(cfg *config.Config, objectPath string) string {
	base := cfg.MinioPublicURL
	if base == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s", scheme, cfg.MinioEndpoint)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), cfg.MinioBucket, objectPath)
}

// ObjectPathFromURL extracts the object path from a public URL served
// out of the station bucket, or "" when the URL points elsewhere.
func ObjectPathFromURL(cfg *config.Config, rawURL string) string {
	marker := "/" + cfg.MinioBucket + "/"
	idx := strings.Index(rawURL, marker)
	if idx < 0 {
		return ""
	}
	return rawURL[idx+len(marker):]
}

// RemoveObject deletes a stored object, used when a track is deleted.
func RemoveObject(ctx context.Context, cfg *config.Config, objectPath string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}
	if err := minioClient.RemoveObject(ctx, cfg.MinioBucket, objectPath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", objectPath, err)
	}
	return nil
}

// PutObject streams a server-side upload into the bucket.
func PutObject(ctx context.Context, cfg *config.Config, objectPath, contentType string, reader io.Reader, size int64) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}
	_, err := minioClient.PutObject(ctx, cfg.MinioBucket, objectPath, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", objectPath, err)
	}
	return nil
}
