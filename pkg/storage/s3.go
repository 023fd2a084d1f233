package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// FolderChatAudio is the S3 prefix for chat audio attachments.
const FolderChatAudio = "chat-audio"

// AllowedAudioTypes maps accepted audio MIME types to object extensions.
var AllowedAudioTypes = map[string]string{
	"audio/webm":  ".webm",
	"audio/ogg":   ".ogg",
	"audio/mpeg":  ".mp3",
	"audio/mp4":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
}

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	AudioBucket          string
	PresignExpireMinutes int
}

// S3 issues pre-signed URLs for chat audio uploads.
type S3 struct {
	client *s3.Client
	cfg    S3Config
	logger *zap.Logger
}

// NewS3 creates an S3 client using credentials from config, falling back to the default chain.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
		logger.Info("S3 client using static credentials", zap.String("region", cfg.Region), zap.String("audio_bucket", cfg.AudioBucket))
	} else {
		logger.Warn("S3 client using default credential chain")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3{client: s3.NewFromConfig(awsCfg), cfg: cfg, logger: logger}, nil
}

// AudioExtension returns the object extension for an accepted audio content type.
func AudioExtension(contentType string) (string, bool) {
	ext, ok := AllowedAudioTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}

// ChatAudioKey returns chat-audio/{workspace_id}/{consultation_id}/{object}{ext}.
func ChatAudioKey(workspaceID, consultationID, object, ext string) string {
	return path.Join(FolderChatAudio, workspaceID, consultationID, object+ext)
}

// PresignAudioUpload returns a pre-signed PUT URL for key in the audio bucket.
func (s *S3) PresignAudioUpload(ctx context.Context, key, contentType string) (string, time.Time, error) {
	expires := s.presignExpire()
	req, err := s3.NewPresignClient(s.client).PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AudioBucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign put: %w", err)
	}
	return req.URL, time.Now().Add(expires), nil
}

// ObjectURL returns the unsigned URL stored on the chat message.
func (s *S3) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.AudioBucket, s.cfg.Region, key)
}

func (s *S3) presignExpire() time.Duration {
	if s.cfg.PresignExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.cfg.PresignExpireMinutes) * time.Minute
}
