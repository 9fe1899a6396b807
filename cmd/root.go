package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/reflection"

	"github.com/powchain/ledgerd/chain"
	"github.com/powchain/ledgerd/common"
	"github.com/powchain/ledgerd/common/logging"
	"github.com/powchain/ledgerd/frontend"
	"github.com/powchain/ledgerd/ledgerrpc"
	"github.com/powchain/ledgerd/storage"
)

var cfgFile string
var logger = logrus.New()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ledgerd",
	Short: "Ledgerd is a minimal proof-of-work ledger daemon",
	Long: `Ledgerd maintains an append-only proof-of-work blockchain:
         it forges and validates blocks and serves the chain over gRPC`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := &common.Options{
			GRPCBindAddr:        viper.GetString("grpc-bind-addr"),
			GRPCLogging:         viper.GetBool("grpc-logging-insecure"),
			HTTPBindAddr:        viper.GetString("http-bind-addr"),
			TLSCertPath:         viper.GetString("tls-cert"),
			TLSKeyPath:          viper.GetString("tls-key"),
			LogLevel:            viper.GetUint64("log-level"),
			LogFile:             viper.GetString("log-file"),
			LedgerConfPath:      viper.GetString("ledger-conf-path"),
			DataDir:             viper.GetString("data-dir"),
			NoTLSVeryInsecure:   viper.GetBool("no-tls-very-insecure"),
			GenCertVeryInsecure: viper.GetBool("gen-cert-very-insecure"),
			NoForge:             viper.GetBool("no-forge"),
			PingEnable:          viper.GetBool("ping-very-insecure"),
		}

		common.Log.Debugf("Options: %#v\n", opts)

		filesThatShouldExist := []string{
			opts.LogFile,
			opts.LedgerConfPath,
		}
		if !fileExists(opts.LogFile) {
			os.OpenFile(opts.LogFile, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
		}
		if !opts.NoTLSVeryInsecure && !opts.GenCertVeryInsecure {
			filesThatShouldExist = append(filesThatShouldExist,
				opts.TLSCertPath, opts.TLSKeyPath)
		}

		for _, filename := range filesThatShouldExist {
			if !fileExists(filename) {
				os.Stderr.WriteString(fmt.Sprintf("\n  ** File does not exist: %s\n\n", filename))
				common.Log.Fatal("required file ", filename, " does not exist")
			}
		}

		// Start server and block, or exit
		if err := startServer(opts); err != nil {
			common.Log.WithFields(logrus.Fields{
				"error": err,
			}).Fatal("couldn't create server")
		}
	},
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}

func startServer(opts *common.Options) error {
	if opts.LogFile != "" {
		// instead write parsable logs for logstash/splunk/etc
		output, err := os.OpenFile(opts.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			common.Log.WithFields(logrus.Fields{
				"error": err,
				"path":  opts.LogFile,
			}).Fatal("couldn't open log file")
		}
		defer output.Close()
		logger.SetOutput(output)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger.SetLevel(logrus.Level(opts.LogLevel))

	logging.LogToStderr = opts.GRPCLogging

	common.Log.WithFields(logrus.Fields{
		"gitCommit": common.GitCommit,
		"buildDate": common.BuildDate,
		"buildUser": common.BuildUser,
	}).Infof("Starting ledgerd process version %s", common.Version)

	// gRPC initialization
	var server *grpc.Server

	if opts.NoTLSVeryInsecure {
		common.Log.Warningln("Starting insecure no-TLS (plaintext) server")
		fmt.Println("Starting insecure server")
		server = grpc.NewServer(
			grpc.StatsHandler(&connStatsHandler{}),
			grpc.StreamInterceptor(
				grpc_middleware.ChainStreamServer(
					grpc_prometheus.StreamServerInterceptor),
			),
			grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
				logging.LogInterceptor,
				grpc_prometheus.UnaryServerInterceptor),
			))
	} else {
		var transportCreds credentials.TransportCredentials
		if opts.GenCertVeryInsecure {
			common.Log.Warning("Certificate and key not provided, generating self signed values")
			fmt.Println("Starting insecure self-certificate server")
			tlsCert := common.GenerateCerts()
			transportCreds = credentials.NewServerTLSFromCert(tlsCert)
		} else {
			var err error
			transportCreds, err = credentials.NewServerTLSFromFile(opts.TLSCertPath, opts.TLSKeyPath)
			if err != nil {
				common.Log.WithFields(logrus.Fields{
					"cert_file": opts.TLSCertPath,
					"key_path":  opts.TLSKeyPath,
					"error":     err,
				}).Fatal("couldn't load TLS credentials")
			}
		}
		server = grpc.NewServer(
			grpc.Creds(transportCreds),
			grpc.StatsHandler(&connStatsHandler{}),
			grpc.StreamInterceptor(grpc_middleware.ChainStreamServer(
				grpc_prometheus.StreamServerInterceptor),
			),
			grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
				logging.LogInterceptor,
				grpc_prometheus.UnaryServerInterceptor),
			))
	}
	grpc_prometheus.EnableHandlingTimeHistogram()
	grpc_prometheus.Register(server)
	go startHTTPServer(opts)

	// Enable reflection for debugging
	if opts.LogLevel >= uint64(logrus.WarnLevel) {
		reflection.Register(server)
	}

	forgerConfig, err := common.ParseForgerConfig(opts.LedgerConfPath)
	if err != nil {
		common.Log.WithFields(logrus.Fields{
			"error": err,
		}).Fatal("reading ledger conf")
	}
	if forgerConfig.Difficulty.IsZero() {
		// Unminable and rejects every candidate; almost certainly a
		// misconfiguration, so refuse to start.
		common.Log.Fatal("configured difficulty is zero, no block can ever be mined")
	}

	if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
		os.Stderr.WriteString(fmt.Sprintf("\n  ** Can't create data directory: %s\n\n", opts.DataDir))
		os.Exit(1)
	}
	db, err := sql.Open("sqlite3", filepath.Join(opts.DataDir, "ledger.db"))
	if err != nil {
		common.Log.WithFields(logrus.Fields{
			"error": err,
		}).Fatal("couldn't open block database")
	}
	defer db.Close()
	if err := storage.CreateTables(db); err != nil {
		common.Log.WithFields(logrus.Fields{
			"error": err,
		}).Fatal("couldn't create block table")
	}

	ledger := common.NewLedger(storage.Store{DB: db})
	replayChain(ledger, db)

	if !opts.NoForge {
		common.StartForger(ledger, forgerConfig)
	}

	// Ledger service initialization
	{
		service, err := frontend.NewLedgerStreamer(ledger, forgerConfig.Difficulty,
			!opts.NoForge, opts.PingEnable)
		if err != nil {
			common.Log.WithFields(logrus.Fields{
				"error": err,
			}).Fatal("couldn't create backend")
		}
		ledgerrpc.RegisterLedgerStreamerServer(server, service)
	}

	common.Log.Infof("Starting gRPC server on %s", opts.GRPCBindAddr)

	// Start listening
	listener, err := net.Listen("tcp", opts.GRPCBindAddr)
	if err != nil {
		common.Log.WithFields(logrus.Fields{
			"bind_addr": opts.GRPCBindAddr,
			"error":     err,
		}).Fatal("couldn't create listener")
	}

	// Signal handler for graceful stops
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-signals
		common.StopForger()
		common.Log.WithFields(logrus.Fields{
			"signal": s.String(),
		}).Info("caught signal, stopping gRPC server")
		os.Exit(1)
	}()

	err = server.Serve(listener)
	if err != nil {
		common.Log.WithFields(logrus.Fields{
			"error": err,
		}).Fatal("gRPC server exited")
	}
	return nil
}

// replayChain rebuilds the in-memory chain from the block journal. Every
// stored block was validated when it was accepted, so a replay failure
// means the database doesn't match this binary's validation rules and is
// fatal.
func replayChain(ledger *common.Ledger, db *sql.DB) {
	ctx := context.Background()
	height, err := storage.GetCurrentHeight(ctx, db)
	if err != nil {
		// No stored blocks; start from an empty chain.
		return
	}
	for h := 0; h <= height; h++ {
		encoding, err := storage.GetBlock(ctx, db, h)
		if err != nil {
			common.Log.WithFields(logrus.Fields{
				"height": h,
				"error":  err,
			}).Fatal("block journal has a gap")
		}
		var block chain.Block
		if err := block.UnmarshalBinary(encoding); err != nil {
			common.Log.WithFields(logrus.Fields{
				"height": h,
				"error":  err,
			}).Fatal("couldn't parse stored block")
		}
		if err := ledger.Replay(&block); err != nil {
			common.Log.WithFields(logrus.Fields{
				"height": h,
				"error":  err,
			}).Fatal("stored block failed validation")
		}
	}
	common.Log.Info("replayed ", height+1, " block(s) from the journal")
}

func startHTTPServer(opts *common.Options) {
	http.Handle("/metrics", promhttp.Handler())
	http.ListenAndServe(opts.HTTPBindAddr, nil)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is current directory, ledgerd.yaml)")
	rootCmd.Flags().String("http-bind-addr", "127.0.0.1:9068", "the address to listen for http on")
	rootCmd.Flags().String("grpc-bind-addr", "127.0.0.1:9067", "the address to listen for grpc on")
	rootCmd.Flags().Bool("grpc-logging-insecure", false, "enable grpc logging to stderr")
	rootCmd.Flags().String("tls-cert", "./cert.pem", "the path to a TLS certificate")
	rootCmd.Flags().String("tls-key", "./cert.key", "the path to a TLS key file")
	rootCmd.Flags().Int("log-level", int(logrus.InfoLevel), "log level (logrus 0-6)")
	rootCmd.Flags().String("log-file", "./server.log", "log file to write to")
	rootCmd.Flags().String("ledger-conf-path", "./ledgerd.conf", "conf file to pull forger settings from")
	rootCmd.Flags().String("data-dir", "/var/lib/ledgerd", "data directory (such as db)")
	rootCmd.Flags().Bool("no-tls-very-insecure", false, "run without the required TLS certificate, only for debugging, DO NOT use in production")
	rootCmd.Flags().Bool("gen-cert-very-insecure", false, "run with self-signed TLS certificate, only for debugging, DO NOT use in production")
	rootCmd.Flags().Bool("no-forge", false, "don't mine blocks locally; accept them via SubmitBlock only")
	rootCmd.Flags().Bool("ping-very-insecure", false, "allow Ping GRPC for testing")

	viper.BindPFlag("grpc-bind-addr", rootCmd.Flags().Lookup("grpc-bind-addr"))
	viper.SetDefault("grpc-bind-addr", "127.0.0.1:9067")
	viper.BindPFlag("grpc-logging-insecure", rootCmd.Flags().Lookup("grpc-logging-insecure"))
	viper.SetDefault("grpc-logging-insecure", false)
	viper.BindPFlag("http-bind-addr", rootCmd.Flags().Lookup("http-bind-addr"))
	viper.SetDefault("http-bind-addr", "127.0.0.1:9068")
	viper.BindPFlag("tls-cert", rootCmd.Flags().Lookup("tls-cert"))
	viper.SetDefault("tls-cert", "./cert.pem")
	viper.BindPFlag("tls-key", rootCmd.Flags().Lookup("tls-key"))
	viper.SetDefault("tls-key", "./cert.key")
	viper.BindPFlag("log-level", rootCmd.Flags().Lookup("log-level"))
	viper.SetDefault("log-level", int(logrus.InfoLevel))
	viper.BindPFlag("log-file", rootCmd.Flags().Lookup("log-file"))
	viper.SetDefault("log-file", "./server.log")
	viper.BindPFlag("ledger-conf-path", rootCmd.Flags().Lookup("ledger-conf-path"))
	viper.SetDefault("ledger-conf-path", "./ledgerd.conf")
	viper.BindPFlag("data-dir", rootCmd.Flags().Lookup("data-dir"))
	viper.SetDefault("data-dir", "/var/lib/ledgerd")
	viper.BindPFlag("no-tls-very-insecure", rootCmd.Flags().Lookup("no-tls-very-insecure"))
	viper.SetDefault("no-tls-very-insecure", false)
	viper.BindPFlag("gen-cert-very-insecure", rootCmd.Flags().Lookup("gen-cert-very-insecure"))
	viper.SetDefault("gen-cert-very-insecure", false)
	viper.BindPFlag("no-forge", rootCmd.Flags().Lookup("no-forge"))
	viper.SetDefault("no-forge", false)
	viper.BindPFlag("ping-very-insecure", rootCmd.Flags().Lookup("ping-very-insecure"))
	viper.SetDefault("ping-very-insecure", false)

	logger.SetFormatter(&logrus.TextFormatter{
		//DisableColors:          true,
		FullTimestamp:          true,
		DisableLevelTruncation: true,
	})

	onexit := func() {
		fmt.Printf("Ledgerd died with a Fatal error. Check logfile for details.\n")
	}

	common.Log = logger.WithFields(logrus.Fields{
		"app": "ledgerd",
	})

	logrus.RegisterExitHandler(onexit)

	// Indirect functions for test mocking (so unit tests can talk to stub functions)
	common.Time.Sleep = time.Sleep
	common.Time.Now = time.Now
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Look in the current directory for a configuration file
		viper.AddConfigPath(".")
		// Viper auto appends extension to this config name
		// For example, ledgerd.yml
		viper.SetConfigName("ledgerd")
	}

	// Replace `-` in config options with `_` for ENV keys
	replacer := strings.NewReplacer("-", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv() // read in environment variables that match
	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
