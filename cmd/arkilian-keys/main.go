// Package main implements the arkilian-keys binary.
// By default it serves the key sets of the configured indexes; with -fetch
// it prints the key set another node reports for one index.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	grpcapi "github.com/arkilian/sortedkeys/internal/api/grpc"
	"github.com/arkilian/sortedkeys/internal/app"
	"github.com/arkilian/sortedkeys/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		schemaFile  string
		grpcAddr    string
		logLevel    string
		fetchAddr   string
		indexName   string
		showVersion bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&schemaFile, "schema", "", "Path to schema file (YAML or JSON)")
	flag.StringVar(&grpcAddr, "grpc-addr", "", "gRPC server address")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&fetchAddr, "fetch", "", "Fetch a key set from the node at this address and exit")
	flag.StringVar(&indexName, "index", "", "Index to fetch (with -fetch)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "arkilian-keys - sorted index key exchange\n\n")
		fmt.Fprintf(os.Stderr, "Usage: arkilian-keys [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  arkilian-keys -schema /etc/arkilian/schema.yaml\n")
		fmt.Fprintf(os.Stderr, "  arkilian-keys -fetch node-b:9090 -index idx_tenant_time\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  ARKILIAN_NODE_ID        Node identifier used in logs\n")
		fmt.Fprintf(os.Stderr, "  ARKILIAN_SCHEMA_FILE    Schema file\n")
		fmt.Fprintf(os.Stderr, "  ARKILIAN_GRPC_ADDR      gRPC server address\n")
		fmt.Fprintf(os.Stderr, "  ARKILIAN_LOG_LEVEL      Log level\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("arkilian-keys version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := loadConfig(configFile, schemaFile, grpcAddr, logLevel)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		logrus.Fatalf("Failed to configure logging: %v", err)
	}

	if fetchAddr != "" {
		if err := fetch(os.Stdout, cfg, fetchAddr, indexName); err != nil {
			logger.WithError(err).Fatal("fetch failed")
		}
		return
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		logger.WithError(err).Fatal("failed to start application")
	}

	if err := application.WaitForShutdown(ctx); err != nil {
		logger.WithError(err).Error("shutdown error")
		os.Exit(1)
	}
}

// loadConfig loads configuration from file, environment, and command line
// flags, then resolves and validates it.
func loadConfig(configFile, schemaFile, grpcAddr, logLevel string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	// Flags have the highest priority.
	if schemaFile != "" {
		cfg.SchemaFile = schemaFile
	}
	if grpcAddr != "" {
		cfg.GRPC.Addr = grpcAddr
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// fetch prints the key set the node at addr reports for the index.
func fetch(w io.Writer, cfg *config.Config, addr, name string) error {
	if name == "" {
		return fmt.Errorf("-index is required with -fetch")
	}

	conn, err := grpcapi.Dial(addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Exchange.RequestTimeout)
	defer cancel()

	remote, err := grpcapi.NewKeyClient(conn).FetchKeySet(ctx, name)
	if err != nil {
		return err
	}
	return printKeySet(w, remote)
}

func printKeySet(w io.Writer, remote *grpcapi.RemoteKeySet) error {
	fmt.Fprintf(w, "index:       %s\n", remote.Index)
	fmt.Fprintf(w, "fingerprint: %016x\n\n", remote.Fingerprint)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCOLUMN\tTYPE\tCODE\tSORT\tNULLS\tPRECISION")
	unknown := 0
	for i, kc := range remote.Keys.Columns() {
		order := kc.Def.Order()
		typ := kc.Def.Type().String()
		if !kc.Def.Type().Known() {
			typ += "*"
			unknown++
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%d\n",
			i, kc.Name, typ, int32(kc.Def.Type()), order.Sort, order.Nulls, kc.Def.Precision())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if unknown > 0 {
		fmt.Fprintf(w, "\n* %d type code(s) not known to this node\n", unknown)
	}
	return nil
}
