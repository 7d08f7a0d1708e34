package docker

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/dyluth/arena/internal/transport"
)

const (
	// maxStderrSize caps how much container stderr is retained (64KB).
	maxStderrSize = 64 * 1024

	// cleanupTimeout bounds the stop/remove calls made from Terminate.
	cleanupTimeout = 30 * time.Second
)

// ContainerAPI is the subset of the Docker client the launcher needs.
// *client.Client satisfies it.
type ContainerAPI interface {
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerAttach(ctx context.Context, container string, options container.AttachOptions) (types.HijackedResponse, error)
	ContainerStart(ctx context.Context, container string, options container.StartOptions) error
	ContainerStop(ctx context.Context, container string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, container string, options container.RemoveOptions) error
}

// Launcher runs a bot image as a container whose stdin/stdout carry the
// line protocol. It implements transport.Launcher.
type Launcher struct {
	API     ContainerAPI
	Image   string
	Command []string
	Name    string
	Labels  map[string]string

	// NetworkDisabled isolates the bot from the network. Defaults to true
	// through NewLauncher.
	NetworkDisabled bool
}

// NewLauncher builds a launcher for one side of a match.
func NewLauncher(api ContainerAPI, image string, command []string, matchID, color, botName string) *Launcher {
	return &Launcher{
		API:             api,
		Image:           image,
		Command:         command,
		Name:            BotContainerName(matchID, color),
		Labels:          BuildLabels(matchID, color, botName, image),
		NetworkDisabled: true,
	}
}

// Launch creates the container, attaches to its streams and starts it.
// Attaching before start guarantees no early output is lost.
func (l *Launcher) Launch(ctx context.Context) (transport.Process, error) {
	cfg := &container.Config{
		Image:           l.Image,
		Cmd:             l.Command,
		Labels:          l.Labels,
		OpenStdin:       true,
		StdinOnce:       true,
		AttachStdin:     true,
		AttachStdout:    true,
		AttachStderr:    true,
		NetworkDisabled: l.NetworkDisabled,
	}
	hostCfg := &container.HostConfig{AutoRemove: false}

	created, err := l.API.ContainerCreate(ctx, cfg, hostCfg, nil, nil, l.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot container %s: %w", l.Name, err)
	}

	resp, err := l.API.ContainerAttach(ctx, created.ID, container.AttachOptions{
		Stream: true,
		Stdin:  true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		l.remove(created.ID)
		return nil, fmt.Errorf("failed to attach to bot container %s: %w", l.Name, err)
	}

	if err := l.API.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		resp.Close()
		l.remove(created.ID)
		return nil, fmt.Errorf("failed to start bot container %s: %w", l.Name, err)
	}

	stdoutR, stdoutW := io.Pipe()
	p := &containerProcess{
		api:    l.API,
		id:     created.ID,
		resp:   resp,
		stdout: stdoutR,
		stderr: transport.NewStderrBuffer(maxStderrSize),
	}
	go func() {
		_, err := stdcopy.StdCopy(stdoutW, p.stderr, resp.Reader)
		stdoutW.CloseWithError(err)
	}()
	return p, nil
}

func (l *Launcher) remove(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	_ = l.API.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
}

type containerProcess struct {
	api    ContainerAPI
	id     string
	resp   types.HijackedResponse
	stdout *io.PipeReader
	stderr *transport.StderrBuffer

	once    sync.Once
	termErr error
}

func (p *containerProcess) Stdin() io.WriteCloser { return hijackedStdin{resp: p.resp} }
func (p *containerProcess) Stdout() io.Reader     { return p.stdout }
func (p *containerProcess) Stderr() string        { return p.stderr.String() }

// Terminate stops the container with grace and then force-removes it.
func (p *containerProcess) Terminate(grace time.Duration) error {
	p.once.Do(func() {
		_ = p.resp.CloseWrite()

		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()

		timeout := int(math.Ceil(grace.Seconds()))
		if err := p.api.ContainerStop(ctx, p.id, container.StopOptions{Timeout: &timeout}); err != nil {
			p.termErr = fmt.Errorf("failed to stop bot container: %w", err)
		}
		p.resp.Close()
		if err := p.api.ContainerRemove(ctx, p.id, container.RemoveOptions{Force: true}); err != nil && p.termErr == nil {
			p.termErr = fmt.Errorf("failed to remove bot container: %w", err)
		}
		p.stdout.Close()
	})
	return p.termErr
}

// hijackedStdin writes to the attached connection; Close half-closes it so
// the bot sees end of input.
type hijackedStdin struct {
	resp types.HijackedResponse
}

func (h hijackedStdin) Write(b []byte) (int, error) { return h.resp.Conn.Write(b) }
func (h hijackedStdin) Close() error                { return h.resp.CloseWrite() }
