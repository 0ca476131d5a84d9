package hefestos

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Driver names registered by the drivers hefestos imports
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const (
	defaultMySQLPort    = "3306"
	defaultPostgresPort = "5432"

	sqliteBusyTimeoutMs = 5000
	sqliteDirPerm       = 0750
)

// ConnConfig is the resolved (address, user, password) triple a connection is
// opened with. Address encodes driver and location:
//
//	mysql:host=localhost;port=3306;dbname=app
//	pgsql:host=localhost;dbname=app;sslmode=disable
//	postgres://localhost/app?sslmode=disable
//	sqlite:/var/lib/app/app.sqlite
//	sqlite::memory:
type ConnConfig struct {
	Address  string
	User     string
	Password string
}

// driverDSN translates an address template into a driver name and a data
// source name understood by that driver.
func driverDSN(cfg ConnConfig) (driver, dsn string, err error) {
	scheme, rest, found := strings.Cut(cfg.Address, ":")
	if !found {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Address)
	}

	switch strings.ToLower(scheme) {
	case "mysql":
		return DriverMySQL, mysqlDSN(rest, cfg.User, cfg.Password), nil
	case "pgsql":
		return DriverPostgres, pgsqlDSN(parsePairs(rest), cfg.User, cfg.Password), nil
	case "postgres", "postgresql":
		dsn, err = pq.ParseURL(cfg.Address)
		if err != nil {
			return "", "", fmt.Errorf("parsing postgres url: %w", err)
		}
		return DriverPostgres, appendCredentials(dsn, cfg.User, cfg.Password), nil
	case "sqlite", "sqlite3":
		dsn, err = sqliteDSN(rest)
		return DriverSQLite, dsn, err
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, scheme)
	}
}

// parsePairs parses "key=value;key=value" into a map. Keys are lower-cased.
func parsePairs(in string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(in, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || key == "" {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return out
}

func mysqlDSN(rest, user, password string) string {
	pairs := parsePairs(rest)

	c := mysql.NewConfig()
	c.User = user
	c.Passwd = password
	c.DBName = pairs["dbname"]
	c.ParseTime = true

	if socket := pairs["unix_socket"]; socket != "" {
		c.Net = "unix"
		c.Addr = socket
	} else {
		host := pairs["host"]
		if host == "" {
			host = "localhost"
		}
		port := pairs["port"]
		if port == "" {
			port = defaultMySQLPort
		}
		c.Net = "tcp"
		c.Addr = net.JoinHostPort(host, port)
	}

	if charset := pairs["charset"]; charset != "" {
		c.Params = map[string]string{"charset": charset}
	}

	return c.FormatDSN()
}

func pgsqlDSN(pairs map[string]string, user, password string) string {
	if pairs["port"] == "" {
		pairs["port"] = defaultPostgresPort
	}
	if pairs["sslmode"] == "" {
		pairs["sslmode"] = "disable"
	}
	if user != "" {
		pairs["user"] = user
	}
	if password != "" {
		pairs["password"] = password
	}

	keys := make([]string, 0, len(pairs))
	for key := range pairs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+quoteConnValue(pairs[key]))
	}
	return strings.Join(parts, " ")
}

// appendCredentials adds user and password to a key/value connection string
// produced by pq.ParseURL, overriding the ones in the URL.
func appendCredentials(dsn, user, password string) string {
	if user != "" {
		dsn += " user=" + quoteConnValue(user)
	}
	if password != "" {
		dsn += " password=" + quoteConnValue(password)
	}
	return strings.TrimSpace(dsn)
}

func quoteConnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// sqliteDSN builds a go-sqlite3 connection string, creating the database
// directory when needed.
// See: https://github.com/mattn/go-sqlite3#connection-string
func sqliteDSN(path string) (string, error) {
	path = strings.TrimPrefix(path, "//")
	if path == "" {
		return "", fmt.Errorf("%w: empty sqlite path", ErrUnsupportedDriver)
	}

	if path == ":memory:" {
		return "file::memory:?cache=shared&_foreign_keys=on", nil
	}

	if err := os.MkdirAll(filepath.Dir(path), sqliteDirPerm); err != nil {
		return "", fmt.Errorf("creating database directory: %w", err)
	}

	return fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on", path, sqliteBusyTimeoutMs), nil
}
