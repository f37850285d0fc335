//go:build cgo

package db

import (
	"errors"
	"strconv"

	"github.com/mattn/go-sqlite3"

	"github.com/tordrt/datadict/internal/dict"
)

func init() {
	Register("sqlite3", dict.SQLite, func() Driver {
		return &sqlDriver{driverName: "sqlite3", dsn: sqliteDSN}
	})

	errorCoders = append(errorCoders, func(err error) (string, bool) {
		var cgoErr sqlite3.Error
		if errors.As(err, &cgoErr) {
			return strconv.Itoa(int(cgoErr.ExtendedCode)), true
		}
		return "", false
	})
}
