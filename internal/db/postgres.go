package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"sql-executor/internal/config"
)

// PostgresConnection is one live session to a PostgreSQL instance. The
// pool underneath is pinned to a single physical connection so session
// state (transactions, named cursors) behaves like a plain session.
type PostgresConnection struct {
	logger *slog.Logger
	db     *sql.DB
	sess   *sql.Conn
	inTx   bool
}

func NewPostgresConnection(logger *slog.Logger) *PostgresConnection {
	return &PostgresConnection{logger: logger.With("vendor", "postgres")}
}

func (c *PostgresConnection) Vendor() Vendor {
	return VendorPostgres
}

func (c *PostgresConnection) Connect(ctx context.Context, cfg *config.Config, environment string) error {
	params, err := cfg.Params(environment, string(VendorPostgres))
	if err != nil {
		return connErr(VendorPostgres, err)
	}

	// Reconnect in place: drop the old session first.
	_ = c.Close()

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		params.Host, params.Port, params.User, params.Password, params.DBName)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return connErr(VendorPostgres, err)
	}
	db.SetMaxOpenConns(1)

	sess, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return connErr(VendorPostgres, err)
	}
	if err := sess.PingContext(ctx); err != nil {
		sess.Close()
		db.Close()
		return connErr(VendorPostgres, err)
	}

	c.db = db
	c.sess = sess
	c.inTx = false
	c.logger.Debug("Connected to PostgreSQL", "host", params.Host, "dbname", params.DBName)
	return nil
}

func (c *PostgresConnection) IsTerminated(ctx context.Context) bool {
	if c.sess == nil {
		return true
	}
	return c.sess.PingContext(ctx) != nil
}

func (c *PostgresConnection) Close() error {
	var err error
	if c.sess != nil {
		err = c.sess.Close()
		c.sess = nil
	}
	if c.db != nil {
		if dbErr := c.db.Close(); err == nil {
			err = dbErr
		}
		c.db = nil
		c.logger.Debug("PostgreSQL connection closed")
	}
	c.inTx = false
	return err
}

func (c *PostgresConnection) Commit(ctx context.Context) error {
	if c.sess == nil {
		return ErrNotConnected
	}
	if !c.inTx {
		return nil
	}
	if _, err := c.sess.ExecContext(ctx, "COMMIT"); err != nil {
		return connErr(VendorPostgres, err)
	}
	c.inTx = false
	return nil
}

func (c *PostgresConnection) Rollback(ctx context.Context) error {
	if c.sess == nil || !c.inTx {
		return nil
	}
	if _, err := c.sess.ExecContext(ctx, "ROLLBACK"); err != nil {
		return connErr(VendorPostgres, err)
	}
	c.inTx = false
	return nil
}

// beginTx opens a session-level transaction if none is pending. Every
// cursor execute runs inside one so Commit/Rollback control atomicity,
// matching driver-level autobegin semantics.
func (c *PostgresConnection) beginTx(ctx context.Context) error {
	if c.sess == nil {
		return ErrNotConnected
	}
	if c.inTx {
		return nil
	}
	if _, err := c.sess.ExecContext(ctx, "BEGIN"); err != nil {
		return err
	}
	c.inTx = true
	return nil
}

func (c *PostgresConnection) Cursor(ctx context.Context, clientSide bool) (Cursor, error) {
	if c.sess == nil {
		return nil, ErrNotConnected
	}
	if clientSide {
		return &clientCursor{
			vendor:  VendorPostgres,
			sess:    c.sess,
			beginTx: c.beginTx,
			logger:  c.logger,
		}, nil
	}
	name := "sqlexec_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	return &postgresServerCursor{
		conn:   c,
		name:   name,
		logger: c.logger,
	}, nil
}

// postgresServerCursor streams a result set through a named server-side
// cursor (DECLARE / FETCH FORWARD), so the driver never buffers more
// than one page of rows. WITH HOLD keeps the cursor alive across the
// commit issued when a batch sequence finishes cleanly.
type postgresServerCursor struct {
	conn     *PostgresConnection
	name     string
	logger   *slog.Logger
	declared bool
	cols     []string
}

func (c *postgresServerCursor) Execute(ctx context.Context, query string, args ...any) error {
	if len(args) > 0 {
		return queryErr(VendorPostgres,
			fmt.Errorf("server-side cursor does not support bind parameters; use a client-side cursor"))
	}
	if err := c.conn.beginTx(ctx); err != nil {
		return connErr(VendorPostgres, err)
	}
	stmt := fmt.Sprintf("DECLARE %s NO SCROLL CURSOR WITH HOLD FOR %s", c.name, query)
	if _, err := c.conn.sess.ExecContext(ctx, stmt); err != nil {
		return queryErr(VendorPostgres, err)
	}
	c.declared = true
	c.cols = nil
	c.logger.Debug("Declared server-side cursor", "cursor", c.name)
	return nil
}

func (c *postgresServerCursor) fetch(ctx context.Context, clause string) ([]Row, error) {
	if !c.declared {
		return nil, nil
	}
	rows, err := c.conn.sess.QueryContext(ctx, fmt.Sprintf("FETCH %s FROM %s", clause, c.name))
	if err != nil {
		return nil, queryErr(VendorPostgres, err)
	}
	rs, err := newResultSet(rows)
	if err != nil {
		return nil, queryErr(VendorPostgres, err)
	}
	defer rs.close()
	out, err := rs.fetchAll()
	if err != nil {
		return out, queryErr(VendorPostgres, err)
	}
	if c.cols == nil {
		c.cols = rs.columns()
	}
	return out, nil
}

func (c *postgresServerCursor) FetchOne(ctx context.Context) (Row, error) {
	rows, err := c.fetch(ctx, "NEXT")
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (c *postgresServerCursor) FetchMany(ctx context.Context, n int) ([]Row, error) {
	return c.fetch(ctx, fmt.Sprintf("FORWARD %d", n))
}

func (c *postgresServerCursor) FetchAll(ctx context.Context) ([]Row, error) {
	return c.fetch(ctx, "ALL")
}

func (c *postgresServerCursor) Columns() []string {
	return c.cols
}

func (c *postgresServerCursor) Close() error {
	if !c.declared || c.conn.sess == nil {
		return nil
	}
	c.declared = false
	if _, err := c.conn.sess.ExecContext(context.Background(), "CLOSE "+c.name); err != nil {
		// The session may already be gone; closing is best effort.
		c.logger.Debug("Failed to close server-side cursor", "cursor", c.name, "error", err)
		return err
	}
	return nil
}
