package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/IvanBrykalov/tiercache/cache"
	"github.com/IvanBrykalov/tiercache/codec"
	"github.com/IvanBrykalov/tiercache/disk"
	"github.com/IvanBrykalov/tiercache/internal/config"
	"github.com/IvanBrykalov/tiercache/internal/util"
	"github.com/IvanBrykalov/tiercache/memory"
	"github.com/IvanBrykalov/tiercache/metrics/prom"
	"github.com/IvanBrykalov/tiercache/policy/twoq"
	"github.com/IvanBrykalov/tiercache/tiered"
)

// stack is the memory → disk cache used by every command.
type stack struct {
	mem   *memory.Cache[[]byte]
	disk  *disk.Cache[[]byte]
	cache *tiered.Cache[[]byte]
}

func buildStack(cfg *config.Config, logger logrus.FieldLogger, reg prometheus.Registerer) (*stack, error) {
	ns := cfg.MetricsNamespace

	memOpt := memory.Options[[]byte]{
		MaxEntries: cfg.MemoryEntries,
		DefaultTTL: cfg.MemoryTTL,
		Metrics:    prom.New(reg, ns, "memory", nil),
	}
	if cfg.Policy == "2q" {
		// 2Q queues are sized per shard.
		shards := util.ShardCount(0)
		perShard := (cfg.MemoryEntries + shards - 1) / shards
		if perShard <= 0 {
			perShard = 1024
		}
		memOpt.Shards = shards
		memOpt.Policy = twoq.New[[]byte](max(perShard/4, 1), max(perShard/2, 1))
	}
	mem := memory.New(memOpt)

	cd, err := buildCodec(cfg)
	if err != nil {
		return nil, err
	}
	dsk, err := disk.New(cfg.Dir, cd,
		disk.WithLogger(logger),
		disk.WithMetrics(prom.New(reg, ns, "disk", nil)),
		disk.WithMaxReaders(cfg.MaxReaders),
	)
	if err != nil {
		_ = mem.Close()
		return nil, err
	}

	tc := tiered.New([]cache.Cache[[]byte]{mem, dsk},
		tiered.WithLogger[[]byte](logger.WithField("tier", "tiered")),
		tiered.WithMetrics[[]byte](prom.NewTiered(reg, ns, "tiered", nil)),
	)
	return &stack{mem: mem, disk: dsk, cache: tc}, nil
}

func buildCodec(cfg *config.Config) (codec.Codec[[]byte], error) {
	var cd codec.Codec[[]byte]
	switch cfg.Codec {
	case "json":
		cd = codec.JSON[[]byte]()
	case "msgpack":
		cd = codec.Msgpack[[]byte]()
	default:
		return nil, fmt.Errorf("unknown codec %q", cfg.Codec)
	}
	if cfg.Compress {
		return codec.Zstd(cd)
	}
	return cd, nil
}

// Close drains the disk tier and closes the memory tier.
func (s *stack) Close() {
	_ = s.disk.Close()
	_ = s.mem.Close()
}
