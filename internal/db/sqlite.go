package db

import (
	"errors"
	"net/url"
	"strconv"

	"modernc.org/sqlite"

	"github.com/tordrt/datadict/internal/dict"
)

func init() {
	Register("sqlite", dict.SQLite, func() Driver {
		return &sqlDriver{driverName: "sqlite", dsn: sqliteDSN}
	})

	errorCoders = append(errorCoders, func(err error) (string, bool) {
		var liteErr *sqlite.Error
		if errors.As(err, &liteErr) {
			return strconv.Itoa(liteErr.Code()), true
		}
		return "", false
	})
}

// sqliteDSN returns cfg.DSN or the database path with cfg.Params as a query string
func sqliteDSN(cfg Config) (string, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = cfg.Database
	}
	if dsn == "" {
		dsn = ":memory:"
	}
	if len(cfg.Params) > 0 {
		q := url.Values{}
		for k, v := range cfg.Params {
			q.Set(k, v)
		}
		dsn += "?" + q.Encode()
	}
	return dsn, nil
}
