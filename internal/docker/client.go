package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
)

// NewClient creates a Docker client and validates daemon is accessible.
// Returns an error if the Docker daemon is not running or not accessible.
func NewClient(ctx context.Context) (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf(`Docker daemon not accessible: %w

Bots configured with an image need Docker:
  • macOS: Docker Desktop
  • Linux: sudo systemctl start docker`, err)
	}

	return cli, nil
}

// ImageAPI is the subset of the Docker client CheckImages needs.
type ImageAPI interface {
	ImageInspectWithRaw(ctx context.Context, imageID string) (types.ImageInspect, []byte, error)
}

// CheckImages verifies every bot image exists locally before any container
// is created, so a missing image fails the match before either side starts.
// Duplicate and empty names are skipped.
func CheckImages(ctx context.Context, api ImageAPI, images ...string) error {
	var missing []string
	seen := map[string]bool{}
	for _, image := range images {
		if image == "" || seen[image] {
			continue
		}
		seen[image] = true
		if _, _, err := api.ImageInspectWithRaw(ctx, image); err != nil {
			if client.IsErrNotFound(err) {
				missing = append(missing, image)
				continue
			}
			return fmt.Errorf("failed to inspect bot image %s: %w", image, err)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("bot image not found locally: %s (build it with 'docker build -t <image> .' or fetch it with 'docker pull')",
			strings.Join(missing, ", "))
	}
	return nil
}
