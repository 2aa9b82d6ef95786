package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/m-mizutani/goerr/v2"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/interfaces"
)

const (
	userMapTable     = "user_mappings"
	usernameMapTable = "username_mappings"
	threadMapTable   = "thread_mappings"

	operationTimeout = 5 * time.Second
)

// Postgres is the durable mapping repository. Concurrent writers are
// serialized by row-level upserts; no application-side locking is used.
type Postgres struct {
	db          *sql.DB
	userMap     *mappingRepository
	usernameMap *mappingRepository
	threadMap   *mappingRepository
}

var _ interfaces.Repository = &Postgres{}

// New opens a connection pool, verifies connectivity and ensures the
// schema exists. A failure here is the signal for the caller to fall
// back to the in-memory backend.
func New(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open postgres connection")
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to ping postgres")
	}

	p := &Postgres{
		db:          db,
		userMap:     &mappingRepository{db: db, table: userMapTable},
		usernameMap: &mappingRepository{db: db, table: usernameMapTable},
		threadMap:   &mappingRepository{db: db, table: threadMapTable},
	}

	if err := p.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return p, nil
}

// Migrate creates the mapping tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	for _, table := range []string{userMapTable, usernameMapTable, threadMapTable} {
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				source TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, table)

		execCtx, cancel := context.WithTimeout(ctx, operationTimeout)
		_, err := p.db.ExecContext(execCtx, query)
		cancel()
		if err != nil {
			return goerr.Wrap(err, "failed to create mapping table", goerr.V("table", table))
		}
	}
	return nil
}

func (p *Postgres) UserMap() interfaces.MappingRepository {
	return p.userMap
}

func (p *Postgres) UsernameMap() interfaces.MappingRepository {
	return p.usernameMap
}

func (p *Postgres) ThreadMap() interfaces.MappingRepository {
	return p.threadMap
}

func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
