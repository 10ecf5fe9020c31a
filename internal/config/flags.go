package config

import (
	"errors"
	"flag"
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

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a hub server address in format [host]:[port]
//	-d client database DSN (SQLite path)
//	-hub-db hub event-log DSN (PostgreSQL)
//	-api-address write/delta API base URL
//	-realtime-address broadcast hub base URL
//	-c/-config json file path with configs
//	-token-sign-key token verification key
//	-token-issuer token issuer name
//	-broadcast-key hub ingest authorization key
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-sync-interval periodic sync job interval
//	-connectivity-interval reachability poll interval
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var databaseDSN string
	var hubDatabaseDSN string
	var apiAddress string
	var realtimeAddress string
	var jsonConfigPath string
	var tokenSignKey string
	var tokenIssuer string
	var broadcastKey string
	var requestTimeout time.Duration
	var syncInterval time.Duration
	var connectivityInterval time.Duration

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Client database DSN (SQLite path)")
	flag.StringVar(&hubDatabaseDSN, "hub-db", "", "Hub event-log DSN (PostgreSQL)")
	flag.StringVar(&apiAddress, "api-address", "", "Write/delta API base URL")
	flag.StringVar(&realtimeAddress, "realtime-address", "", "Broadcast hub base URL")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&tokenSignKey, "token-sign-key", "", "Token verification key")
	flag.StringVar(&tokenIssuer, "token-issuer", "", "Token issuer")
	flag.StringVar(&broadcastKey, "broadcast-key", "", "Hub ingest authorization key")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Periodic sync job interval")
	flag.DurationVar(&connectivityInterval, "connectivity-interval", 0, "Reachability poll interval")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			TokenSignKey: tokenSignKey,
			TokenIssuer:  tokenIssuer,
			BroadcastKey: broadcastKey,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			HubDB: HubDB{
				DSN: hubDatabaseDSN,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Adapter: Adapter{
			HTTPAddress:     apiAddress,
			RealtimeAddress: realtimeAddress,
			RequestTimeout:  requestTimeout,
		},
		Workers: Workers{
			SyncInterval:         syncInterval,
			ConnectivityInterval: connectivityInterval,
		},
		JSONFilePath: jsonConfigPath,
	}
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

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
