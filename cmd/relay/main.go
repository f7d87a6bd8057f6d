// Command relay prepares business data and contract text for an external
// analysis service and restores real names in what comes back.
//
// Usage:
//
//	# Anonymize a data package; the identity map stays local.
//	relay anonymize -in package.json -map ids.json > outgoing.json
//
//	# Restore names in the service's answer (streamed).
//	relay deanonymize -map ids.json < answer.txt
//
//	# Restore names in structured results.
//	relay deanonymize -map ids.json -records < insights.json
//
//	# Cut a contract down to its relevant, scrubbed excerpt.
//	relay contract -in contract.txt -names names.json -limit 10
//
//	# Serve the same operations over HTTP until interrupted.
//	RELAY_PORT=8090 RELAY_API_TOKEN=secret relay serve
//
// Settings come from relay-config.json, .env and the environment
// (LOG_LEVEL, RELAY_MAX_CHUNKS, RELAY_MIN_CHUNK_CHARS, RELAY_VALIDATE_INPUT,
// BIND_ADDRESS, RELAY_PORT, RELAY_API_TOKEN, RELAY_MAX_BODY_SIZE).
// Logs go to stderr and never contain real names.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"ai-privacy-relay/internal/anonymizer"
	"ai-privacy-relay/internal/api"
	"ai-privacy-relay/internal/config"
	"ai-privacy-relay/internal/logger"
	"ai-privacy-relay/internal/relay"
	"ai-privacy-relay/internal/scrub"
)

const usage = `usage: relay <command> [flags]

commands:
  anonymize    pseudonymise a data package (-in, -out, -map)
  deanonymize  restore real names from stdin (-map, -records)
  contract     select and scrub contract text (-in, -names, -limit)
  serve        run the HTTP API (-addr)
`

// errUsage signals a command-line mistake; main exits with status 2.
var errUsage = errors.New("usage")

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		logger.New("RELAY", cfg.LogLevel).Fatalf("main", "%v", err)
	}
}

// run executes one subcommand. It is main without the process exit.
func run(ctx context.Context, cfg *config.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}
	switch args[0] {
	case "anonymize":
		return runAnonymize(ctx, newService(cfg, stderr), args[1:], stdin, stdout, stderr)
	case "deanonymize":
		return runDeanonymize(ctx, newService(cfg, stderr), args[1:], stdin, stdout, stderr)
	case "contract":
		return runContract(ctx, cfg, args[1:], stdin, stdout, stderr)
	case "serve":
		return runServe(ctx, cfg, args[1:], stderr)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprintf(stderr, "relay: unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}
}

func newService(cfg *config.Config, stderr io.Writer) *relay.Service {
	return relay.New(cfg, logger.NewWithWriter("RELAY", cfg.LogLevel, stderr), nil)
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parse wraps flag errors so they map to exit status 2.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func runAnonymize(ctx context.Context, svc *relay.Service, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("anonymize", stderr)
	in := fs.String("in", "", "data package JSON (default stdin)")
	out := fs.String("out", "", "anonymized output (default stdout)")
	mapPath := fs.String("map", "", "where to write the identity map (required)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *mapPath == "" {
		fmt.Fprintln(stderr, "anonymize: -map is required")
		return errUsage
	}

	raw, err := readInput(*in, stdin)
	if err != nil {
		return err
	}
	p, err := svc.DecodePackage(ctx, raw)
	if err != nil {
		return err
	}
	a, err := svc.PrepareAnalysis(ctx, p)
	if err != nil {
		return err
	}

	ids, err := json.MarshalIndent(a.Identities, "", "  ")
	if err != nil {
		return fmt.Errorf("encode identity map: %w", err)
	}
	// The map is the only link back to real names; keep it private.
	if err := os.WriteFile(*mapPath, ids, 0o600); err != nil {
		return fmt.Errorf("write identity map: %w", err)
	}
	return writeJSON(*out, stdout, a)
}

func runDeanonymize(ctx context.Context, svc *relay.Service, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("deanonymize", stderr)
	mapPath := fs.String("map", "", "identity map written by anonymize (required)")
	records := fs.Bool("records", false, "stdin is a JSON array of records")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *mapPath == "" {
		fmt.Fprintln(stderr, "deanonymize: -map is required")
		return errUsage
	}

	ids, err := readIdentityMap(*mapPath)
	if err != nil {
		return err
	}

	if *records {
		var in []anonymizer.Record
		if err := json.NewDecoder(stdin).Decode(&in); err != nil {
			return fmt.Errorf("decode records: %w", err)
		}
		return writeJSON("", stdout, svc.InterpretRecords(ctx, in, ids))
	}

	if _, err := io.Copy(stdout, svc.InterpretStream(ctx, stdin, ids)); err != nil {
		return fmt.Errorf("deanonymize stream: %w", err)
	}
	return nil
}

func runContract(ctx context.Context, cfg *config.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("contract", stderr)
	in := fs.String("in", "", "contract text (default stdin)")
	namesPath := fs.String("names", "", "known names JSON")
	limit := fs.Int("limit", cfg.MaxChunks, "maximum chunks to keep")
	if err := parse(fs, args); err != nil {
		return err
	}

	text, err := readInput(*in, stdin)
	if err != nil {
		return err
	}
	var names scrub.KnownNames
	if *namesPath != "" {
		raw, err := os.ReadFile(*namesPath)
		if err != nil {
			return fmt.Errorf("read known names: %w", err)
		}
		if err := json.Unmarshal(raw, &names); err != nil {
			return fmt.Errorf("decode known names: %w", err)
		}
	}

	local := *cfg
	local.MaxChunks = *limit
	return writeJSON("", stdout, newService(&local, stderr).PrepareContract(ctx, string(text), names))
}

func runServe(ctx context.Context, cfg *config.Config, args []string, stderr io.Writer) error {
	fs := newFlagSet("serve", stderr)
	addr := fs.String("addr", "", "listen address host:port (default from config)")
	if err := parse(fs, args); err != nil {
		return err
	}

	local := *cfg
	if *addr != "" {
		host, port, err := net.SplitHostPort(*addr)
		if err != nil {
			return fmt.Errorf("%w: -addr: %v", errUsage, err)
		}
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%w: -addr port: %v", errUsage, err)
		}
		local.BindAddress, local.Port = host, n
	}

	log := logger.NewWithWriter("API", local.LogLevel, stderr)
	srv := api.New(&local, newService(&local, stderr), log)
	return srv.ListenAndServe(ctx)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

func readIdentityMap(path string) (*anonymizer.IdentityMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read identity map: %w", err)
	}
	ids := anonymizer.NewIdentityMap()
	if err := json.Unmarshal(raw, ids); err != nil {
		return nil, fmt.Errorf("decode identity map: %w", err)
	}
	return ids, nil
}

func writeJSON(path string, stdout io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
