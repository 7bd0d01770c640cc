//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/notam-airspace-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/notam-airspace-etl/internal/domain"
	"github.com/couchcryptid/notam-airspace-etl/internal/observability"
	"github.com/couchcryptid/notam-airspace-etl/internal/pipeline"
	"github.com/couchcryptid/notam-airspace-etl/internal/projector"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// fixtureNow falls inside the validity window of every fixture notice.
var fixtureNow = time.Date(2025, time.January, 13, 12, 0, 0, 0, time.UTC)

// mockNotice is one entry of data/mock/notams.json.
type mockNotice struct {
	Key    string `json:"key"`
	Source string `json:"source"`
	Text   string `json:"text"`
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadMockData(t *testing.T) []mockNotice {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", "notams.json"))
	require.NoError(t, err, "read mock notices")

	var notices []mockNotice
	require.NoError(t, json.Unmarshal(data, &notices), "decode mock notices")
	require.NotEmpty(t, notices)
	return notices
}

func noticeMessage(n mockNotice) kafkago.Message {
	return kafkago.Message{
		Key:     []byte(n.Key),
		Value:   []byte(n.Text),
		Headers: []kafkago.Header{{Key: "source", Value: []byte(n.Source)}},
		Time:    fixtureNow,
	}
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("notam-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "find controller")

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

// startPostgres runs a Postgres container and returns its connection string.
func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("airspace"),
		tcpostgres.WithUsername("etl"),
		tcpostgres.WithPassword("etl"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "postgres connection string")
	return dsn
}

// newSQLiteService builds a service over a temporary SQLite store with the
// clock pinned to fixtureNow.
func newSQLiteService(t *testing.T, proj *projector.Projector, metrics *observability.Metrics) (*pipeline.Service, *domain.Parser) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "airspace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clock := clockwork.NewFakeClockAt(fixtureNow)
	parser := domain.NewParser(domain.WithClock(clock))
	svc := pipeline.NewService(parser, store, proj, discardLogger(), metrics, pipeline.WithServiceClock(clock))
	return svc, parser
}
