package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

const codeConstraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

// ErrConstraint is returned when a uniqueness constraint rejects a write.
var ErrConstraint = errors.New("graph constraint violation")

type Config struct {
	URI      string
	User     string
	Password string
	Database string
}

// Neo4jRunner 基于 neo4j-go-driver 的 Runner
type Neo4jRunner struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

var _ Runner = (*Neo4jRunner)(nil)

// NewNeo4jRunner 连接并校验 Neo4j
func NewNeo4jRunner(ctx context.Context, cfg Config, logger *zap.Logger) (*Neo4jRunner, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}
	return &Neo4jRunner{driver: driver, database: cfg.Database, logger: logger}, nil
}

func (r *Neo4jRunner) Run(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	res, err := neo4j.ExecuteQuery(ctx, r.driver, cypher, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(r.database))
	if err != nil {
		var neoErr *neo4j.Neo4jError
		if errors.As(err, &neoErr) && neoErr.Code == codeConstraintViolation {
			return nil, fmt.Errorf("%w: %s", ErrConstraint, neoErr.Msg)
		}
		return nil, err
	}

	out := make([]Record, 0, len(res.Records))
	for _, rec := range res.Records {
		row := make(Record, len(rec.Keys))
		for i, k := range rec.Keys {
			row[k] = rec.Values[i]
		}
		out = append(out, row)
	}
	r.logger.Debug("cypher executed", zap.Int("rows", len(out)))
	return out, nil
}

func (r *Neo4jRunner) Ping(ctx context.Context) error {
	return r.driver.VerifyConnectivity(ctx)
}

func (r *Neo4jRunner) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

var constraints = []string{
	"CREATE CONSTRAINT store_id IF NOT EXISTS FOR (s:Store) REQUIRE s.id IS UNIQUE",
	"CREATE CONSTRAINT store_subdomain IF NOT EXISTS FOR (s:Store) REQUIRE s.subdomain IS UNIQUE",
	"CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE",
	"CREATE CONSTRAINT user_email IF NOT EXISTS FOR (u:User) REQUIRE u.email IS UNIQUE",
	"CREATE CONSTRAINT product_id IF NOT EXISTS FOR (p:Product) REQUIRE p.id IS UNIQUE",
	"CREATE CONSTRAINT blog_post_id IF NOT EXISTS FOR (b:BlogPost) REQUIRE b.id IS UNIQUE",
	"CREATE CONSTRAINT industry_id IF NOT EXISTS FOR (i:Industry) REQUIRE i.id IS UNIQUE",
}

// EnsureConstraints creates the uniqueness constraints the repositories rely on.
func EnsureConstraints(ctx context.Context, r Runner) error {
	for _, c := range constraints {
		if _, err := r.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("failed to ensure constraint: %w", err)
		}
	}
	return nil
}
