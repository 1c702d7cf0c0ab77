package database

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Registered driver names.
const (
	DriverFirebird = "firebirdsql"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

var driverAliases = map[string]string{
	"":            DriverFirebird,
	"firebird":    DriverFirebird,
	"firebirdsql": DriverFirebird,
	"fdb":         DriverFirebird,
	"mysql":       DriverMySQL,
	"mariadb":     DriverMySQL,
	"postgres":    DriverPostgres,
	"postgresql":  DriverPostgres,
	"pq":          DriverPostgres,
	"sqlite":      DriverSQLite,
	"sqlite3":     DriverSQLite,
}

var defaultPorts = map[string]int{
	DriverFirebird: 3050,
	DriverMySQL:    3306,
	DriverPostgres: 5432,
}

// Config describes one database connection pool.
type Config struct {
	Driver   string
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// SSLMode is only used by postgres.
	SSLMode string

	// Params are appended to the DSN as driver options.
	Params map[string]string

	PoolSize          int
	MaxIdleConns      int
	ConnMaxLifetime   time.Duration
	ConnMaxIdleTime   time.Duration
	ConnectionTimeout time.Duration

	// QueryRate limits statements per second. Zero disables throttling.
	QueryRate  float64
	QueryBurst int
}

// NormalizeDriver resolves a driver alias to a registered driver name.
func NormalizeDriver(name string) (string, error) {
	driver, ok := driverAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unsupported database driver: %s", name)
	}
	return driver, nil
}

// DSN returns the registered driver name and the data source name for cfg.
func (cfg Config) DSN() (string, string, error) {
	driver, err := NormalizeDriver(cfg.Driver)
	if err != nil {
		return "", "", err
	}
	if cfg.Database == "" {
		return "", "", fmt.Errorf("database name is required")
	}

	port := cfg.Port
	if port == 0 {
		port = defaultPorts[driver]
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	switch driver {
	case DriverFirebird:
		// An absolute path keeps its leading slash after the separator.
		dsn := fmt.Sprintf("%s:%s@%s/%s",
			url.QueryEscape(cfg.Username),
			url.QueryEscape(cfg.Password),
			net.JoinHostPort(host, strconv.Itoa(port)),
			cfg.Database)
		return driver, dsn + encodeParams(cfg.Params), nil

	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.Username
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
		mc.DBName = cfg.Database
		mc.ParseTime = true
		mc.Timeout = cfg.ConnectionTimeout
		if len(cfg.Params) > 0 {
			mc.Params = make(map[string]string, len(cfg.Params))
			for k, v := range cfg.Params {
				mc.Params[k] = v
			}
		}
		return driver, mc.FormatDSN(), nil

	case DriverPostgres:
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		q := url.Values{}
		q.Set("sslmode", sslMode)
		if cfg.ConnectionTimeout > 0 {
			q.Set("connect_timeout", strconv.Itoa(int(cfg.ConnectionTimeout.Seconds())))
		}
		for k, v := range cfg.Params {
			q.Set(k, v)
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.Username, cfg.Password),
			Host:     net.JoinHostPort(host, strconv.Itoa(port)),
			Path:     "/" + cfg.Database,
			RawQuery: q.Encode(),
		}
		return driver, u.String(), nil

	default:
		return driver, cfg.Database + encodeParams(cfg.Params), nil
	}
}

// encodeParams renders params as a sorted query string, or "" when empty.
func encodeParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(params[k]))
	}
	return "?" + strings.Join(parts, "&")
}
