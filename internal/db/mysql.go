package db

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/tordrt/datadict/internal/dict"
)

func init() {
	Register("mysql", dict.MySQL, func() Driver {
		return &sqlDriver{driverName: "mysql", dsn: mysqlDSN}
	})

	errorCoders = append(errorCoders, func(err error) (string, bool) {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) {
			return strconv.Itoa(int(myErr.Number)), true
		}
		return "", false
	})
}

// mysqlDSN validates cfg.DSN or builds one from the connection fields
func mysqlDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		if _, err := mysql.ParseDSN(cfg.DSN); err != nil {
			return "", fmt.Errorf("invalid mysql dsn: %w", err)
		}
		return cfg.DSN, nil
	}

	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.DBName = cfg.Database
	mc.Net = "tcp"
	host, port := cfg.Host, cfg.Port
	if host == "" {
		host = "127.0.0.1"
	}
	if port == 0 {
		port = 3306
	}
	mc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	if len(cfg.Params) > 0 {
		mc.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			mc.Params[k] = v
		}
	}
	return mc.FormatDSN(), nil
}
