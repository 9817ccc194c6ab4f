package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"

	go_ora "github.com/sijms/go-ora/v2"

	"sql-executor/internal/config"
)

// OracleConnection is one live session to an Oracle instance. The
// config section may name the target by service_name or by sid.
type OracleConnection struct {
	logger *slog.Logger
	db     *sql.DB
	sess   *sql.Conn
	inTx   bool
}

func NewOracleConnection(logger *slog.Logger) *OracleConnection {
	return &OracleConnection{logger: logger.With("vendor", "oracle")}
}

func (c *OracleConnection) Vendor() Vendor {
	return VendorOracle
}

func (c *OracleConnection) Connect(ctx context.Context, cfg *config.Config, environment string) error {
	params, err := cfg.Params(environment, string(VendorOracle))
	if err != nil {
		return connErr(VendorOracle, err)
	}
	port, err := strconv.Atoi(params.Port)
	if err != nil {
		return connErr(VendorOracle, fmt.Errorf("invalid port %q: %w", params.Port, err))
	}

	_ = c.Close()

	options := map[string]string{}
	service := params.ServiceName
	if service == "" && params.SID != "" {
		options["SID"] = params.SID
	}
	dsn := go_ora.BuildUrl(params.Host, port, service, params.User, params.Password, options)

	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return connErr(VendorOracle, err)
	}
	db.SetMaxOpenConns(1)

	sess, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return connErr(VendorOracle, err)
	}
	if err := sess.PingContext(ctx); err != nil {
		sess.Close()
		db.Close()
		return connErr(VendorOracle, err)
	}

	c.db = db
	c.sess = sess
	c.inTx = false
	c.logger.Debug("Connected to Oracle", "host", params.Host, "service", service, "sid", params.SID)
	return nil
}

func (c *OracleConnection) IsTerminated(ctx context.Context) bool {
	if c.sess == nil {
		return true
	}
	return c.sess.PingContext(ctx) != nil
}

func (c *OracleConnection) Close() error {
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
		c.logger.Debug("Oracle connection closed")
	}
	c.inTx = false
	return err
}

func (c *OracleConnection) Commit(ctx context.Context) error {
	if c.sess == nil {
		return ErrNotConnected
	}
	if !c.inTx {
		return nil
	}
	if _, err := c.sess.ExecContext(ctx, "COMMIT"); err != nil {
		return connErr(VendorOracle, err)
	}
	c.inTx = false
	return nil
}

func (c *OracleConnection) Rollback(ctx context.Context) error {
	if c.sess == nil || !c.inTx {
		return nil
	}
	if _, err := c.sess.ExecContext(ctx, "ROLLBACK"); err != nil {
		return connErr(VendorOracle, err)
	}
	c.inTx = false
	return nil
}

// beginTx only marks the transaction as open: Oracle starts one
// implicitly with the first DML statement, there is no BEGIN.
func (c *OracleConnection) beginTx(ctx context.Context) error {
	if c.sess == nil {
		return ErrNotConnected
	}
	c.inTx = true
	return nil
}

// Cursor always returns a client-side cursor; Oracle has no named
// streaming cursor distinction, fetches are still chunked.
func (c *OracleConnection) Cursor(ctx context.Context, clientSide bool) (Cursor, error) {
	if c.sess == nil {
		return nil, ErrNotConnected
	}
	return &clientCursor{
		vendor:  VendorOracle,
		sess:    c.sess,
		beginTx: c.beginTx,
		logger:  c.logger,
	}, nil
}
