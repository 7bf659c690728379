package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for golang-migrate
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/config"
)

// PostgresTestImage is the stock image the shop fixture is loaded into.
const PostgresTestImage = "postgres:16-alpine"

const (
	testDBName     = "shop"
	testDBUser     = "assistant"
	testDBPassword = "test_password"
)

// TestDB is a Postgres container loaded with the shop fixture.
type TestDB struct {
	Container  testcontainers.Container
	Pool       *pgxpool.Pool
	ConnStr    string
	Datasource config.DatasourceConfig
}

var (
	sharedOnce sync.Once
	shared     *TestDB
	sharedErr  error
)

// GetTestDB returns the Postgres container shared by every test in the run,
// starting it on first use. It skips under -short.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedOnce.Do(func() {
		shared, sharedErr = startShopPostgres(context.Background())
	})
	if sharedErr != nil {
		t.Fatalf("Failed to set up test database: %v", sharedErr)
	}
	return shared
}

func startShopPostgres(ctx context.Context) (*TestDB, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        PostgresTestImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       testDBName,
				"POSTGRES_USER":     testDBUser,
				"POSTGRES_PASSWORD": testDBPassword,
			},
			// initdb restarts the server once; the second ready line is the real one
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	ds, err := datasourceFor(ctx, container)
	if err != nil {
		return nil, err
	}
	connStr := (&url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(ds.User, ds.Password),
		Host:     fmt.Sprintf("%s:%d", ds.Host, ds.Port),
		Path:     "/" + ds.Database,
		RawQuery: "sslmode=disable",
	}).String()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pingUntil(ctx, pool, 5*time.Second); err != nil {
		pool.Close()
		return nil, err
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()
	if err := ApplyFixtures(db, "postgres", nil); err != nil {
		pool.Close()
		return nil, err
	}

	return &TestDB{Container: container, Pool: pool, ConnStr: connStr, Datasource: ds}, nil
}

// datasourceFor describes the container the way the application config would.
func datasourceFor(ctx context.Context, c testcontainers.Container) (config.DatasourceConfig, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return config.DatasourceConfig{}, fmt.Errorf("container host: %w", err)
	}
	mapped, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return config.DatasourceConfig{}, fmt.Errorf("container port: %w", err)
	}
	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		return config.DatasourceConfig{}, fmt.Errorf("invalid mapped port %q: %w", mapped.Port(), err)
	}

	return config.DatasourceConfig{
		Type:           config.DatasourcePostgres,
		Host:           host,
		Port:           port,
		User:           testDBUser,
		Password:       testDBPassword,
		Database:       testDBName,
		Schema:         "public",
		SSLMode:        "disable",
		MaxConnections: 4,
	}, nil
}

func pingUntil(ctx context.Context, pool *pgxpool.Pool, within time.Duration) error {
	deadline := time.Now().Add(within)
	for {
		err := pool.Ping(ctx)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("postgres not reachable: %w", err)
		}
		time.Sleep(250 * time.Millisecond)
	}
}
