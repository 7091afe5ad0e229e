package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Synternet/terraswap-core/cmd/flags"
	"github.com/Synternet/terraswap-core/internal/repository"
	"github.com/Synternet/terraswap-core/internal/repository/pg"
	"github.com/Synternet/terraswap-core/internal/repository/sqlite"
)

// Environment from .env files, loaded before flag defaults are read in init.
var dotenvErr = godotenv.Load()

var (
	flagVerbose         *bool
	flagTelemetryPeriod *time.Duration
	flagNatsPubUrls     *string
	flagUserPubCreds    *string
	flagNkeyPub         *string
	flagNatsAccNkey     *string
	flagJWTPub          *string
	flagTLSClientCert   *string
	flagTLSKey          *string
	flagCACert          *string
	flagPrefixName      *string

	flagNetwork       *string
	flagGRPCAPI       *string
	flagTendermintAPI *string
	flagFactory       *string
	flagNetworks      *flags.Endpoints
	flagWallet        *string
	flagQueryTimeout  *time.Duration

	flagDbHost     *string
	flagDbPort     *uint
	flagDbUser     *string
	flagDbPassword *string
	flagDbName     *string

	natsPubConnection *nats.Conn
	database          *repository.Repository
)

func setErrorHandlers(conn *nats.Conn) {
	if conn == nil {
		return
	}

	conn.SetErrorHandler(func(c *nats.Conn, s *nats.Subscription, err error) {
		slog.Error("NATS error", "err", err)
	})
	conn.SetDisconnectErrHandler(func(c *nats.Conn, err error) {
		slog.Error("NATS disconnected", "err", err)
	})
}

var rootCmd = &cobra.Command{
	Use:   "terraswap-core",
	Short: "Terraswap pair discovery, asset cache and quote engine",
	Long:  ``,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if *flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		if dotenvErr != nil && !errors.Is(dotenvErr, fs.ErrNotExist) {
			slog.Warn("Failed loading .env", "err", dotenvErr)
		}

		// Sacrifice some security for the sake of user experience by allowing to
		// supply NATS account NKey instead of passing created user NKey and user JWS.
		if *flagNatsAccNkey != "" {
			nkey, jwt, err := CreateUser(*flagNatsAccNkey)
			if err != nil {
				panic(fmt.Errorf("failed to generate user JWT: %w", err))
			}
			flagNkeyPub = nkey
			flagJWTPub = jwt
		}

		conn, err := makeNats("Terraswap Publisher", *flagNatsPubUrls, *flagUserPubCreds, *flagNkeyPub, *flagJWTPub, *flagCACert, *flagTLSClientCert, *flagTLSKey)
		if err != nil {
			panic(fmt.Errorf("failed to connect to publisher NATS %s: %w", *flagNatsPubUrls, err))
		}
		natsPubConnection = conn
		setErrorHandlers(conn)

		if *flagDbName == "" {
			return
		}

		var db *gorm.DB
		if *flagDbName == "sqlite" {
			db, err = sqlite.New(*flagDbHost, *flagVerbose)
			if err != nil {
				panic(err)
			}
		} else {
			db, err = pg.New(pg.Config{
				Host:     *flagDbHost,
				Port:     *flagDbPort,
				User:     *flagDbUser,
				Password: *flagDbPassword,
				Name:     *flagDbName,
			}, *flagVerbose)
			if err != nil {
				panic(err)
			}
		}
		repo, err := repository.New(db, slog.Default())
		if err != nil {
			panic(err)
		}
		database = repo
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if natsPubConnection != nil {
			natsPubConnection.Close()
		}
		if database != nil {
			database.Close()
		}
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	const (
		PUBLISHER_PREFIX = "PREFIX"
		DB_HOST          = "DB_HOST"
		DB_PORT          = "DB_PORT"
		DB_USER          = "DB_USER"
		DB_PASSWORD      = "DB_PASSW"
		DB_NAME          = "DB_NAME"

		NETWORK        = "NETWORK"
		GRPC_API       = "GRPC_API"
		TENDERMINT_API = "TENDERMINT_API"
		FACTORY        = "FACTORY"
		NETWORKS       = "NETWORKS"
		WALLET         = "WALLET"
		QUERY_TIMEOUT  = "QUERY_TIMEOUT"
	)
	setDefault(PUBLISHER_PREFIX, "synternet")
	setDefault(DB_HOST, "terraswap.db")
	setDefault(DB_PORT, "5432")
	setDefault(DB_USER, "terraswap_user")
	setDefault(DB_NAME, "sqlite")

	setDefault(NETWORK, "mainnet")
	setDefault(GRPC_API, "localhost:9090")
	setDefault(TENDERMINT_API, "tcp://localhost:26657")
	setDefault(FACTORY, "terra1466nf3zuxpya8q9emxukd7vftaf6h4psr0a07srl5zw74zh84yjqxl5qul")

	pf := rootCmd.PersistentFlags()

	flagNatsPubUrls = pf.StringP("nats-url", "n", os.Getenv("NATS_URL"), "NATS server URLs (separated by comma); publishing is disabled when empty")
	flagNatsAccNkey = pf.StringP("nats-acc-nkey", "", os.Getenv("NATS_ACC_NKEY"), "NATS account NKey (seed)")
	flagUserPubCreds = pf.StringP("nats-creds", "c", os.Getenv("NATS_CREDS"), "NATS User Credentials File (combined JWT and NKey file) ")
	flagJWTPub = pf.StringP("nats-jwt", "w", os.Getenv("NATS_JWT"), "NATS JWT")
	flagNkeyPub = pf.StringP("nats-nkey", "k", os.Getenv("NATS_NKEY"), "NATS NKey")

	flagTLSKey = pf.StringP("client-key", "", os.Getenv("CLIENT_KEY"), "NATS Private key file for client certificate")
	flagTLSClientCert = pf.StringP("client-cert", "", os.Getenv("CLIENT_CERT"), "NATS TLS client certificate file")
	flagCACert = pf.StringP("ca-cert", "", os.Getenv("CA_CERT"), "NATS CA certificate file")

	flagDbHost = pf.StringP("db-host", "", os.Getenv(DB_HOST), "Database Host (filepath in case of `sqlite` `db-name`)")

	envPort := os.Getenv(DB_PORT)
	port, err := strconv.ParseUint(envPort, 10, 64)
	if err != nil {
		port = 5432
		slog.Warn("Bad database port format, switching to default", "error", err, "port", port)
	}

	flagDbPort = pf.UintP("db-port", "", uint(port), "Database Port")
	flagDbUser = pf.StringP("db-user", "", os.Getenv(DB_USER), "Database User")
	flagDbName = pf.StringP("db-name", "", os.Getenv(DB_NAME), "Database Name (specify `sqlite` for SQLite database, empty disables persistence)")
	flagDbPassword = pf.StringP("db-passw", "", os.Getenv(DB_PASSWORD), "Database Password")

	flagPrefixName = pf.StringP("prefix", "", os.Getenv(PUBLISHER_PREFIX), "NATS topic prefix name as in {prefix}.{name}.pairs")

	flagNetwork = pf.String("network", os.Getenv(NETWORK), "Active network name")
	flagGRPCAPI = pf.String("grpc-api", os.Getenv(GRPC_API), "Full address to the active network's gRPC")
	flagTendermintAPI = pf.String("tendermint-api", os.Getenv(TENDERMINT_API), "Full address to the active network's Tendermint RPC used for probing")
	flagFactory = pf.String("factory", os.Getenv(FACTORY), "Terraswap factory contract of the active network")
	flagWallet = pf.String("wallet", os.Getenv(WALLET), "Wallet address whose balances are cached")

	networks, err := flags.NewEndpoints(os.Getenv(NETWORKS))
	if err != nil {
		slog.Warn("Bad NETWORKS format, ignoring", "error", err)
		networks, _ = flags.NewEndpoints("")
	}
	flagNetworks = pf.VarPF(networks, "networks", "", "Additional networks as name=grpc|tendermint|factory (separated by comma)").Value.(*flags.Endpoints)

	queryTimeout, err := time.ParseDuration(os.Getenv(QUERY_TIMEOUT))
	if err != nil {
		queryTimeout = time.Second * 5
	}
	flagQueryTimeout = pf.Duration("query-timeout", queryTimeout, "Timeout of a single chain query")

	_, verbosePresent := os.LookupEnv("VERBOSE")

	flagVerbose = pf.BoolP("verbose", "v", verbosePresent, "Verbose output")

	envTelemetryPeriod := os.Getenv("TELEMETRY_PERIOD")
	var telemetryPeriod time.Duration
	if envTelemetryPeriod != "" {
		var err error
		telemetryPeriod, err = time.ParseDuration(envTelemetryPeriod)
		if err != nil {
			telemetryPeriod = time.Second * 3
			slog.Warn("Invalid format for TELEMETRY_PERIOD environment variable.", "error", err, "default", telemetryPeriod)
		}
	} else {
		telemetryPeriod = time.Second * 3
	}

	flagTelemetryPeriod = pf.DurationP("telemetry-period", "T", telemetryPeriod, "Telemetry report period")
}
