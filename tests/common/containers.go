// Package common provides shared test infrastructure
package common

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RequireDocker skips the test unless container tests are enabled.
func RequireDocker(t *testing.T) {
	t.Helper()
	if os.Getenv("TRADEBOOK_TEST_DOCKER") != "true" {
		t.Skip("Docker tests disabled (set TRADEBOOK_TEST_DOCKER=true to enable)")
	}
}

// containerSpec describes a position store backend to run for tests.
type containerSpec struct {
	name  string
	image string
	port  string
	env   map[string]string
	cmd   []string
	ready wait.Strategy
}

// sharedContainer is started at most once per test process.
type sharedContainer struct {
	once      sync.Once
	container testcontainers.Container
	host      string
	port      string
	err       error
}

func (s *sharedContainer) start(t *testing.T, spec containerSpec) {
	t.Helper()
	RequireDocker(t)

	s.once.Do(func() {
		s.err = s.run(context.Background(), spec)
	})
	if s.err != nil {
		t.Fatalf("%s container failed: %v", spec.name, s.err)
	}
}

func (s *sharedContainer) run(ctx context.Context, spec containerSpec) error {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        spec.image,
			ExposedPorts: []string{spec.port},
			Env:          spec.env,
			Cmd:          spec.cmd,
			WaitingFor:   spec.ready,
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("start %s: %w", spec.name, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return fmt.Errorf("get %s host: %w", spec.name, err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(spec.port))
	if err != nil {
		container.Terminate(ctx)
		return fmt.Errorf("get %s port: %w", spec.name, err)
	}

	s.container = container
	s.host = host
	s.port = mapped.Port()
	return nil
}

// Cleanup terminates the container. Call from TestMain if needed.
func (s *sharedContainer) Cleanup() {
	if s != nil && s.container != nil {
		s.container.Terminate(context.Background())
	}
}

const (
	postgresUser     = "tradebook"
	postgresPassword = "tradebook"
	postgresDatabase = "tradebook_test"
)

var postgres sharedContainer

// PostgresContainer is the shared PostgreSQL instance for gorm store tests.
type PostgresContainer struct {
	*sharedContainer
}

// StartPostgres starts the shared PostgreSQL container for the test run.
func StartPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	postgres.start(t, containerSpec{
		name:  "PostgreSQL",
		image: "postgres:16-alpine",
		port:  "5432/tcp",
		env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDatabase,
		},
		ready: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			// The server restarts once after init; wait for the second start.
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(60 * time.Second),
	})
	return &PostgresContainer{&postgres}
}

// DSN returns a connection string for the test database.
func (c *PostgresContainer) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, c.host, c.port, postgresDatabase)
}
