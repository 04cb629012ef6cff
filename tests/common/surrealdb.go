package common

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/wait"
)

// Credentials and namespace of the shared SurrealDB test instance.
const (
	SurrealUser      = "tradebook"
	SurrealPassword  = "tradebook"
	SurrealNamespace = "tradebook_test"
)

var surreal sharedContainer

// SurrealDBContainer is the shared SurrealDB instance for position store tests.
type SurrealDBContainer struct {
	*sharedContainer
}

// StartSurrealDB starts the shared SurrealDB container for the test run.
func StartSurrealDB(t *testing.T) *SurrealDBContainer {
	t.Helper()
	surreal.start(t, containerSpec{
		name:  "SurrealDB",
		image: "surrealdb/surrealdb:v3.0.0",
		port:  "8000/tcp",
		cmd:   []string{"start", "--user", SurrealUser, "--pass", SurrealPassword},
		ready: wait.ForAll(
			wait.ForListeningPort("8000/tcp"),
			wait.ForLog("Started web server"),
		).WithDeadline(60 * time.Second),
	})
	return &SurrealDBContainer{&surreal}
}

// Address returns the WebSocket RPC endpoint.
func (c *SurrealDBContainer) Address() string {
	return fmt.Sprintf("ws://%s:%s/rpc", c.host, c.port)
}

// Database returns a database name unique to t. SurrealDB rejects "/" in
// names, which subtests produce.
func (c *SurrealDBContainer) Database(t *testing.T, prefix string) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return fmt.Sprintf("%s_%s_%d", prefix, name, time.Now().UnixNano()%100000)
}
