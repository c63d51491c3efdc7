package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/hanpama/gqlmodules/internal/assemble"
	"github.com/hanpama/gqlmodules/internal/config"
	"github.com/hanpama/gqlmodules/internal/eventbus"
	"github.com/hanpama/gqlmodules/internal/executable"
	"github.com/hanpama/gqlmodules/internal/logging"
	"github.com/hanpama/gqlmodules/internal/manifest"
	"github.com/hanpama/gqlmodules/internal/metrics"
	"github.com/hanpama/gqlmodules/internal/otel"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const rootUsage = `gqlmodules - assemble GraphQL schemas from module manifests

USAGE:
  gqlmodules [-config <file>] <command> [flags]

COMMANDS:
  compile-sdl      Assemble a manifest and print the merged SDL
  exec             Run an operation against an assembled manifest
  help             Show help for any command

Settings are read from -config (default: ./gqlmodules.{yaml,toml,json}) and
GQLMODULES_* environment variables, e.g. GQLMODULES_LOG_LEVEL=debug.
`

const compileSDLUsage = `compile-sdl FLAGS:
  -manifest <file>   TOML manifest (default: manifest setting)
  -out <file>        Write SDL to file (default: stdout)
  (Validation always runs; exits non-zero on errors)
`

const execUsage = `exec FLAGS:
  -manifest <file>     TOML manifest (default: manifest setting)
  -query <doc>         Operation document
  -query-file <file>   Read the operation document from file
  -operation <name>    Operation name
  -variables <json>    Variables as a JSON object
  -root <file>         JSON file used as the root value
  -pretty              Indent the JSON result
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

type env struct {
	cfg    *config.Config
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdout, stderr io.Writer) error {
	configPath := ""
	global := flag.NewFlagSet("gqlmodules", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	global.StringVar(&configPath, "config", configPath, "Settings file")
	if err := global.Parse(args); err != nil {
		fmt.Fprint(stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	var handler func(*env, []string) error
	switch cmd {
	case "compile-sdl":
		handler = cmdCompileSDL
	case "exec":
		handler = cmdExec
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Env, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)
	shutdown, err := otel.Setup(cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if cfg.Metrics.File != "" {
		reg := prometheus.NewRegistry()
		unsubscribe := metrics.New(reg).Subscribe()
		defer func() {
			unsubscribe()
			if err := metrics.WriteToTextfile(cfg.Metrics.File, reg); err != nil {
				logger.Error("write metrics", zap.String("file", cfg.Metrics.File), zap.Error(err))
			}
		}()
	}

	return handler(&env{cfg: cfg, logger: logger, stdout: stdout, stderr: stderr}, cmdArgs)
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "compile-sdl":
		fmt.Fprint(stdout, compileSDLUsage)
	case "exec":
		fmt.Fprint(stdout, execUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

// build loads the manifest at path and assembles it with the schema
// settings of e.
func (e *env) build(path string, opts ...executable.Option) (*executable.Schema, error) {
	if path == "" {
		return nil, fmt.Errorf("-manifest is required")
	}
	m, err := manifest.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	e.logger.Debug("manifest loaded", zap.String("path", path), zap.Int("modules", len(m.Modules)))

	mode := executable.ValidationMode(e.cfg.Schema.ResolverValidation)
	opts = append([]executable.Option{
		executable.WithLogger(e.logger),
		executable.WithResolverValidation(executable.ResolverValidation{RequireResolversToMatchSchema: mode}),
		executable.WithInheritResolversFromInterfaces(e.cfg.Schema.InheritResolvers),
	}, opts...)
	s, err := assemble.FromManifest(m, opts...)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	return s, nil
}

func cmdCompileSDL(e *env, args []string) error {
	manifestPath := e.cfg.Manifest
	outFile := ""
	fs := flag.NewFlagSet("compile-sdl", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&manifestPath, "manifest", manifestPath, "TOML manifest")
	fs.StringVar(&outFile, "out", outFile, "Write SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(e.stderr, compileSDLUsage)
		return err
	}

	s, err := e.build(manifestPath)
	if err != nil {
		return err
	}
	sdl := s.SDL()
	if outFile == "" {
		fmt.Fprint(e.stdout, sdl)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(sdl), 0644); err != nil {
		return err
	}
	e.logger.Info("SDL written", zap.String("file", outFile))
	return nil
}

func cmdExec(e *env, args []string) error {
	manifestPath := e.cfg.Manifest
	query := ""
	queryFile := ""
	operation := ""
	variables := ""
	rootFile := ""
	pretty := false
	fs := flag.NewFlagSet("exec", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&manifestPath, "manifest", manifestPath, "TOML manifest")
	fs.StringVar(&query, "query", query, "Operation document")
	fs.StringVar(&queryFile, "query-file", queryFile, "Operation document file")
	fs.StringVar(&operation, "operation", operation, "Operation name")
	fs.StringVar(&variables, "variables", variables, "Variables as a JSON object")
	fs.StringVar(&rootFile, "root", rootFile, "JSON root value file")
	fs.BoolVar(&pretty, "pretty", pretty, "Indent the JSON result")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(e.stderr, execUsage)
		return err
	}

	if queryFile != "" {
		if query != "" {
			return fmt.Errorf("-query and -query-file are mutually exclusive")
		}
		data, err := os.ReadFile(queryFile)
		if err != nil {
			return fmt.Errorf("read query: %w", err)
		}
		query = string(data)
	}
	if query == "" {
		fmt.Fprint(e.stderr, execUsage)
		return fmt.Errorf("-query or -query-file is required")
	}
	req := executable.Request{Query: query, OperationName: operation}
	if variables != "" {
		if err := json.Unmarshal([]byte(variables), &req.Variables); err != nil {
			return fmt.Errorf("parse variables: %w", err)
		}
	}
	var opts []executable.Option
	if rootFile != "" {
		data, err := os.ReadFile(rootFile)
		if err != nil {
			return fmt.Errorf("read root value: %w", err)
		}
		var root any
		if err := json.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("parse root value: %w", err)
		}
		opts = append(opts, executable.WithRootValue(root))
	}

	s, err := e.build(manifestPath, opts...)
	if err != nil {
		return err
	}
	res := s.Execute(context.Background(), req)
	enc := json.NewEncoder(e.stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		return err
	}
	if len(res.Errors) > 0 {
		e.logger.Warn("operation returned errors", zap.Int("errors", len(res.Errors)))
	}
	return nil
}
