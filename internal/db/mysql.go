package db

import (
	"context"
	"database/sql"
	"log/slog"
	"net"

	"github.com/go-sql-driver/mysql"

	"sql-executor/internal/config"
)

// MySQLConnection is one live session to a MySQL instance. Additive
// vendor beyond Postgres/Oracle; same client-side cursor semantics as
// Oracle.
type MySQLConnection struct {
	logger *slog.Logger
	db     *sql.DB
	sess   *sql.Conn
	inTx   bool
}

func NewMySQLConnection(logger *slog.Logger) *MySQLConnection {
	return &MySQLConnection{logger: logger.With("vendor", "mysql")}
}

func (c *MySQLConnection) Vendor() Vendor {
	return VendorMySQL
}

func (c *MySQLConnection) Connect(ctx context.Context, cfg *config.Config, environment string) error {
	params, err := cfg.Params(environment, string(VendorMySQL))
	if err != nil {
		return connErr(VendorMySQL, err)
	}

	_ = c.Close()

	mc := mysql.NewConfig()
	mc.User = params.User
	mc.Passwd = params.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(params.Host, params.Port)
	mc.DBName = params.DBName
	mc.ParseTime = true

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return connErr(VendorMySQL, err)
	}
	db.SetMaxOpenConns(1)

	sess, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return connErr(VendorMySQL, err)
	}
	if err := sess.PingContext(ctx); err != nil {
		sess.Close()
		db.Close()
		return connErr(VendorMySQL, err)
	}

	c.db = db
	c.sess = sess
	c.inTx = false
	c.logger.Debug("Connected to MySQL", "host", params.Host, "dbname", params.DBName)
	return nil
}

func (c *MySQLConnection) IsTerminated(ctx context.Context) bool {
	if c.sess == nil {
		return true
	}
	return c.sess.PingContext(ctx) != nil
}

func (c *MySQLConnection) Close() error {
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
		c.logger.Debug("MySQL connection closed")
	}
	c.inTx = false
	return err
}

func (c *MySQLConnection) Commit(ctx context.Context) error {
	if c.sess == nil {
		return ErrNotConnected
	}
	if !c.inTx {
		return nil
	}
	if _, err := c.sess.ExecContext(ctx, "COMMIT"); err != nil {
		return connErr(VendorMySQL, err)
	}
	c.inTx = false
	return nil
}

func (c *MySQLConnection) Rollback(ctx context.Context) error {
	if c.sess == nil || !c.inTx {
		return nil
	}
	if _, err := c.sess.ExecContext(ctx, "ROLLBACK"); err != nil {
		return connErr(VendorMySQL, err)
	}
	c.inTx = false
	return nil
}

func (c *MySQLConnection) beginTx(ctx context.Context) error {
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

func (c *MySQLConnection) Cursor(ctx context.Context, clientSide bool) (Cursor, error) {
	if c.sess == nil {
		return nil, ErrNotConnected
	}
	return &clientCursor{
		vendor:  VendorMySQL,
		sess:    c.sess,
		beginTx: c.beginTx,
		logger:  c.logger,
	}, nil
}
