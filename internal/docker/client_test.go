package docker

import (
	"context"
	"errors"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notFoundError struct{ image string }

func (e notFoundError) Error() string { return "No such image: " + e.image }
func (notFoundError) NotFound()       {}

type fakeImages struct {
	present  map[string]bool
	err      error
	inspects []string
}

func (f *fakeImages) ImageInspectWithRaw(_ context.Context, image string) (types.ImageInspect, []byte, error) {
	f.inspects = append(f.inspects, image)
	if f.err != nil {
		return types.ImageInspect{}, nil, f.err
	}
	if !f.present[image] {
		return types.ImageInspect{}, nil, notFoundError{image}
	}
	return types.ImageInspect{ID: "sha256:" + image}, nil, nil
}

func TestCheckImages(t *testing.T) {
	ctx := context.Background()

	t.Run("all present", func(t *testing.T) {
		api := &fakeImages{present: map[string]bool{"alpha:1": true}}
		require.NoError(t, CheckImages(ctx, api, "alpha:1", "", "alpha:1"))
		assert.Equal(t, []string{"alpha:1"}, api.inspects, "duplicates and empty names are skipped")
	})

	t.Run("missing images are listed", func(t *testing.T) {
		api := &fakeImages{present: map[string]bool{"alpha:1": true}}
		err := CheckImages(ctx, api, "beta:2", "alpha:1", "gamma:3")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bot image not found locally: beta:2, gamma:3")
		assert.Contains(t, err.Error(), "docker pull")
	})

	t.Run("daemon errors are returned", func(t *testing.T) {
		api := &fakeImages{err: errors.New("connection reset")}
		err := CheckImages(ctx, api, "alpha:1")
		assert.ErrorContains(t, err, "failed to inspect bot image alpha:1")
	})
}
