// Command tiercache drives a memory+disk tiered cache from the shell: one-shot
// get/set/remove/clear/keys, a synthetic benchmark, and an HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/IvanBrykalov/tiercache/cache"
	"github.com/IvanBrykalov/tiercache/internal/config"
	"github.com/IvanBrykalov/tiercache/internal/logging"
)

const usage = `usage: tiercache [-config FILE] <command> [args]

commands:
  get KEY          print the value of KEY
  set KEY VALUE    store VALUE under KEY
  remove KEY       delete KEY
  clear            delete every entry
  keys             list keys stored on disk
  bench [flags]    run a synthetic workload (see tiercache bench -h)
  serve            serve the cache over HTTP`

// cliOptions is the parsed command line.
type cliOptions struct {
	configPath string
	command    string
	args       []string
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

// errNotFound makes get exit non-zero without an error message.
var errNotFound = errors.New("not found")

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		fmt.Fprintln(stdErr, usage)
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// parseCLIFlags reads global flags; the config path falls back to
// TIERCACHE_CONFIG.
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("tiercache", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configFlag string
	fs.StringVar(&configFlag, "config", "", "config file (env TIERCACHE_CONFIG)")
	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("parse flags: %w", err)
	}
	if fs.NArg() == 0 {
		return cliOptions{}, errors.New("missing command")
	}

	path := os.Getenv("TIERCACHE_CONFIG")
	if configFlag != "" {
		path = configFlag
	}

	opts := cliOptions{configPath: path, command: fs.Arg(0), args: fs.Args()[1:]}
	if err := checkArity(opts); err != nil {
		return cliOptions{}, err
	}
	return opts, nil
}

func checkArity(opts cliOptions) error {
	want := map[string]int{"get": 1, "set": 2, "remove": 1, "clear": 0, "keys": 0, "serve": 0}
	n, ok := want[opts.command]
	switch {
	case opts.command == "bench":
		return nil
	case !ok:
		return fmt.Errorf("unknown command %q", opts.command)
	case len(opts.args) != n:
		return fmt.Errorf("%s takes %d argument(s), got %d", opts.command, n, len(opts.args))
	}
	return nil
}

// run executes a parsed command and returns the exit code.
func run(opts cliOptions) int {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "load config: %v\n", err)
		return 1
	}
	logger, err := logging.InitLogger(*cfg)
	if err != nil {
		fmt.Fprintf(stdErr, "init logger: %v\n", err)
		return 1
	}
	if cfg.LogFilePath == "" && opts.command != "serve" {
		// Keep stdout for command output.
		logger.SetOutput(stdErr)
	}

	switch opts.command {
	case "bench":
		err = runBench(cfg, logger, opts.args)
	case "serve":
		err = runServe(cfg, logger, opts.configPath)
	default:
		err = runOneShot(cfg, logger, opts)
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errNotFound):
		return 1
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(stdErr, err.Error())
		return 2
	default:
		fmt.Fprintf(stdErr, "%s: %v\n", opts.command, err)
		return 1
	}
}

func runOneShot(cfg *config.Config, logger *logrus.Logger, opts cliOptions) error {
	st, err := buildStack(cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	c := st.cache

	switch opts.command {
	case "get":
		v, ok, err := cache.Load[[]byte](ctx, c, opts.args[0])
		if err != nil {
			return err
		}
		logger.WithFields(logging.CacheFields("get", opts.args[0], ok)).Debug("lookup")
		if !ok {
			return errNotFound
		}
		_, err = stdOut.Write(v)
		return err
	case "set":
		return cache.Store[[]byte](ctx, c, opts.args[0], []byte(opts.args[1]))
	case "remove":
		return cache.Delete[[]byte](ctx, c, opts.args[0])
	case "clear":
		return cache.Purge[[]byte](ctx, c)
	case "keys":
		ch := make(chan []string, 1)
		st.disk.Keys(func(keys []string) { ch <- keys })
		select {
		case keys := <-ch:
			if len(keys) > 0 {
				fmt.Fprintln(stdOut, strings.Join(keys, "\n"))
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, opts.command)
}
