package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses the process command line. It returns the flag values as
// a partial config and the positional arguments left after the flags.
//
// Flags:
//
//	-a sandbox server address in format [host]:[port]
//	-grpc-address sandbox grpc address in format [host]:[port]
//	-adapter remote record store base URL
//	-request-timeout outbound request timeout (e.g., "30s")
//	-u/-p remote record store user name and password
//	-d database DSN
//	-driver database driver (sqlite3 | pgx)
//	-retry retry budget for transient write failures
//	-batch-size records per write call
//	-sync-interval outbox push interval in watch mode
//	-page-size sandbox query page size
//	-token-sign-key sandbox token signing key
//	-token-duration sandbox token lifetime
//	-c/-config json file path with configs
func parseFlags(arguments []string) (*StructuredConfig, []string, error) {
	fs := flag.NewFlagSet("recordsync", flag.ContinueOnError)

	var serverAddress, grpcServerAddress NetAddress
	var adapterAddress, username, password string
	var requestTimeout, syncInterval, tokenDuration time.Duration
	var databaseDSN, driver string
	var retry, batchSize, pageSize int
	var tokenSignKey string
	var jsonConfigPath string

	fs.Var(&serverAddress, "a", "Net address host:port")
	fs.Var(&grpcServerAddress, "grpc-address", "Net grpc server address host:port")
	fs.StringVar(&adapterAddress, "adapter", "", "Remote record store base URL")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.StringVar(&username, "u", "", "Remote user name")
	fs.StringVar(&password, "p", "", "Remote password")
	fs.StringVar(&databaseDSN, "d", "", "Database DSN")
	fs.StringVar(&driver, "driver", "", "Database driver: sqlite3 or pgx")
	fs.IntVar(&retry, "retry", -1, "Retry budget for transient write failures")
	fs.IntVar(&batchSize, "batch-size", 0, "Records per write call")
	fs.DurationVar(&syncInterval, "sync-interval", 0, "Outbox push interval (e.g., 1m)")
	fs.IntVar(&pageSize, "page-size", 0, "Sandbox query page size")
	fs.StringVar(&tokenSignKey, "token-sign-key", "", "Token signing key")
	fs.DurationVar(&tokenDuration, "token-duration", 0, "Token duration (e.g., 1h, 30m)")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	if err := fs.Parse(arguments); err != nil {
		return nil, nil, fmt.Errorf("error parsing flags: %w", err)
	}

	cfg := &StructuredConfig{
		Adapter: Adapter{
			HTTPAddress:    adapterAddress,
			RequestTimeout: requestTimeout,
			Username:       username,
			Password:       password,
		},
		Sync: Sync{
			BatchSize: batchSize,
		},
		Storage: Storage{
			DB: DB{
				DSN:    databaseDSN,
				Driver: driver,
			},
		},
		Workers: Workers{
			SyncInterval: syncInterval,
		},
		Server: Server{
			HTTPAddress:   serverAddress.String(),
			GRPCAddress:   grpcServerAddress.String(),
			PageSize:      pageSize,
			TokenSignKey:  tokenSignKey,
			TokenDuration: tokenDuration,
		},
		JSONFilePath: jsonConfigPath,
	}
	if retry >= 0 {
		cfg.Sync.Retry = &retry
	}

	return cfg, fs.Args(), nil
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" && host != "" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
