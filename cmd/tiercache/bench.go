package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/tiercache/cache"
	"github.com/IvanBrykalov/tiercache/internal/config"
)

var errUsage = errors.New("usage")

type benchFlags struct {
	workers  int
	duration time.Duration
	readPct  int
	keys     int
	zipfS    float64
	zipfV    float64
	seed     int64
	preload  int
	valueLen int

	pprofAddr   string
	metricsAddr string
}

func parseBenchFlags(args []string) (benchFlags, error) {
	var f benchFlags
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	fs.SetOutput(stdErr)
	fs.IntVar(&f.workers, "workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
	fs.DurationVar(&f.duration, "duration", 10*time.Second, "benchmark duration")
	fs.IntVar(&f.readPct, "reads", 80, "read percentage [0..100]")
	fs.IntVar(&f.keys, "keys", 100_000, "keyspace size")
	fs.Float64Var(&f.zipfS, "zipf_s", 1.1, "Zipf s > 1 (skew)")
	fs.Float64Var(&f.zipfV, "zipf_v", 1.0, "Zipf v")
	fs.Int64Var(&f.seed, "seed", time.Now().UnixNano(), "random seed")
	fs.IntVar(&f.preload, "preload", 1_000, "entries written before the run")
	fs.IntVar(&f.valueLen, "value", 128, "value size in bytes")
	fs.StringVar(&f.pprofAddr, "pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
	fs.StringVar(&f.metricsAddr, "http", "", "serve Prometheus metrics at addr; empty = disabled")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return f, err
		}
		return f, fmt.Errorf("%w: %v", errUsage, err)
	}
	switch {
	case f.keys < 1:
		return f, fmt.Errorf("%w: -keys must be positive", errUsage)
	case f.zipfS <= 1:
		return f, fmt.Errorf("%w: -zipf_s must be > 1", errUsage)
	case f.readPct < 0 || f.readPct > 100:
		return f, fmt.Errorf("%w: -reads must be within [0..100]", errUsage)
	}
	if f.workers <= 0 {
		f.workers = 1
	}
	return f, nil
}

type benchStats struct {
	reads, writes, hits, misses, total atomic.Uint64
}

func runBench(cfg *config.Config, logger *logrus.Logger, args []string) error {
	f, err := parseBenchFlags(args)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	st, err := buildStack(cfg, logger, reg)
	if err != nil {
		return err
	}
	defer st.Close()

	// ---- pprof / Prometheus (on DefaultServeMux) ----
	if f.pprofAddr != "" {
		go func() {
			logger.WithField("addr", f.pprofAddr).Info("pprof: serving")
			logger.Warn(http.ListenAndServe(f.pprofAddr, nil))
		}()
	}
	if f.metricsAddr != "" {
		http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			logger.WithField("addr", f.metricsAddr).Info("metrics: serving")
			logger.Warn(http.ListenAndServe(f.metricsAddr, nil))
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.duration)
	defer cancel()

	value := make([]byte, f.valueLen)
	rand.New(rand.NewSource(f.seed)).Read(value)

	// ---- Preload for a realistic hit-rate ----
	for i := 0; i < min(f.preload, f.keys); i++ {
		if err := cache.Store[[]byte](context.Background(), st.cache, "k:"+strconv.Itoa(i), value); err != nil {
			return err
		}
	}

	var stats benchStats
	keysMax := uint64(f.keys - 1)
	start := time.Now()

	var g errgroup.Group
	for w := 0; w < f.workers; w++ {
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(f.seed + int64(w)*9973))
			localZipf := rand.NewZipf(localR, f.zipfS, f.zipfV, keysMax)
			keyByZipf := func() string {
				return "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for ctx.Err() == nil {
				stats.total.Add(1)
				if int(localR.Int31n(100)) < f.readPct {
					stats.reads.Add(1)
					_, ok, err := cache.Load[[]byte](context.Background(), st.cache, keyByZipf())
					if err != nil {
						return err
					}
					if ok {
						stats.hits.Add(1)
					} else {
						stats.misses.Add(1)
					}
				} else {
					stats.writes.Add(1)
					if err := cache.Store[[]byte](context.Background(), st.cache, keyByZipf(), value); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	report(stdOut, cfg, f, &stats, elapsed, st.mem.Len())
	return nil
}

func report(w io.Writer, cfg *config.Config, f benchFlags, s *benchStats, elapsed time.Duration, resident int) {
	reads, hits := s.reads.Load(), s.hits.Load()
	hitRate := 0.0
	if reads > 0 {
		hitRate = float64(hits) / float64(reads) * 100
	}
	ops := s.total.Load()

	fmt.Fprintf(w, "policy=%s memory=%d codec=%s workers=%d keys=%d dur=%v seed=%d\n",
		cfg.Policy, cfg.MemoryEntries, cfg.Codec, f.workers, f.keys, elapsed.Round(time.Millisecond), f.seed)
	fmt.Fprintf(w, "ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), reads, s.writes.Load())
	fmt.Fprintf(w, "hits=%d  misses=%d  hit-rate=%.2f%%\n", hits, s.misses.Load(), hitRate)
	fmt.Fprintf(w, "memory resident=%d\n", resident)
}
