// Package main implements arthub-harvest, a CLI that pages through a
// Datahub OAI-PMH endpoint and writes structured records as JSON lines.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/thedatahub/arthub-core/internal/config"
	"github.com/thedatahub/arthub-core/pkg/arthub"
)

const version = "0.2.0"

func main() {
	configFile := flag.String("config", "", "YAML config file")
	endpoint := flag.String("endpoint", "", "OAI-PMH endpoint URL (or first positional argument)")
	prefix := flag.String("prefix", "", "OAI metadataPrefix (default: oai_lido)")
	set := flag.String("set", "", "OAI set")
	from := flag.String("from", "", "harvest records from this date")
	until := flag.String("until", "", "harvest records until this date")
	handler := flag.String("handler", "", "record handler (dc, marc, mods, lido, generic, raw)")
	workdir := flag.String("workdir", "", "working directory for lookup tables (default: ~/.cache/arthub/<run-id>)")
	output := flag.String("o", "", "output file (default: stdout)")
	maxRequests := flag.Int("max", 0, "maximum number of protocol requests, 0 = unlimited")
	rateLimit := flag.Float64("rate", 0, "protocol requests per second")
	userAgent := flag.String("ua", "", "User-Agent header")
	identify := flag.Bool("identify", false, "probe the endpoint and exit")
	verbose := flag.Bool("verbose", false, "debug logging")
	showVersion := flag.Bool("version", false, "prints current program version")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	env := config.LoadEnv()
	if *verbose || env.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	params := map[string]any{}
	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			log.Fatalf("read config: %v", err)
		}
		if err := yaml.Unmarshal(data, &params); err != nil {
			log.Fatalf("parse config %s: %v", *configFile, err)
		}
	}

	if *endpoint == "" && flag.NArg() > 0 {
		*endpoint = flag.Arg(0)
	}

	// Flags override the config file.
	override(params, "endpoint", *endpoint)
	override(params, "metadata_prefix", *prefix)
	override(params, "set", *set)
	override(params, "handler", *handler)
	override(params, "user_agent", *userAgent)
	if *from != "" {
		params["from"] = parseDate(*from)
	}
	if *until != "" {
		params["until"] = parseDate(*until)
	}
	if *maxRequests == 0 {
		*maxRequests = env.MaxRequests
	}
	if *maxRequests > 0 {
		params["max_requests"] = *maxRequests
	}
	if *rateLimit == 0 && env.RateLimit > 0 {
		*rateLimit = float64(env.RateLimit)
	}
	if *rateLimit > 0 {
		params["requests_per_second"] = *rateLimit
	}

	// Credentials come from the environment, never the command line.
	override(params, "username", env.Username)
	override(params, "password", env.Password)
	override(params, "pid_username", env.PidUsername)
	override(params, "pid_password", env.PidPassword)

	runID := uuid.NewString()
	if *workdir == "" {
		home, err := homedir.Dir()
		if err != nil {
			log.Fatalf("resolve home directory: %v", err)
		}
		*workdir = filepath.Join(home, ".cache", "arthub", runID)
	}
	params["work_dir"] = *workdir

	if *identify {
		// Identify needs no lookup tables.
		delete(params, "pid_module")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"run":     runID,
		"version": version,
		"workdir": *workdir,
	}).Info("arthub-harvest starting")

	imp, err := arthub.Open(ctx, params)
	if err != nil {
		log.Fatalf("open importer: %v", err)
	}
	defer imp.Close()

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("create output file: %v", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)

	if *identify {
		ident, err := imp.Identify(ctx)
		if err != nil {
			log.Fatalf("identify: %v", err)
		}
		if err := enc.Encode(ident); err != nil {
			log.Fatalf("write identity: %v", err)
		}
		return
	}

	started := time.Now()
	it := imp.Records(ctx)
	defer it.Close()

	count := 0
	for it.Next() {
		if err := enc.Encode(it.Value()); err != nil {
			log.Fatalf("write record: %v", err)
		}
		count++
	}
	if err := it.Err(); err != nil {
		log.Fatalf("harvest failed after %d records: %v", count, err)
	}

	log.WithFields(log.Fields{
		"records":  count,
		"requests": it.Requests(),
		"elapsed":  time.Since(started).Round(time.Millisecond).String(),
	}).Info("harvest complete")
}

func override(params map[string]any, key, value string) {
	if value != "" {
		params[key] = value
	}
}

// parseDate accepts flexible date input ("2024-03-01", "1 Mar 2024") and
// normalizes it to the day granularity OAI endpoints expect.
func parseDate(value string) string {
	t, err := now.Parse(value)
	if err != nil {
		log.Fatalf("cannot parse date %q: %v", value, err)
	}
	return t.Format("2006-01-02")
}
