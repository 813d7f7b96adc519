package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Store keeps uploaded lesson and submission files on Cloudinary.
type Store struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary store.
func New(cfg Config, logger zerolog.Logger) (*Store, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Store{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload sends the file to Cloudinary and returns its secure URL.
// name is expected to be already sanitized and unique.
func (s *Store) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))

	params := uploader.UploadParams{
		Folder:         s.folder,
		PublicID:       strings.TrimSuffix(name, filepath.Ext(name)),
		ResourceType:   resourceType(ext),
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(false),
	}
	// raw assets keep their extension in the public id so downloads retain it
	if params.ResourceType == "raw" {
		params.PublicID = name
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Str("resource_type", params.ResourceType).Msg("file uploaded to cloudinary")

	return result.SecureURL, nil
}

func resourceType(ext string) string {
	switch ext {
	case ".pdf", ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return "image"
	case ".mp3", ".wav", ".ogg", ".m4a", ".mp4", ".webm":
		return "video"
	default:
		return "raw"
	}
}
