package bake

import (
	"runtime"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"go.uber.org/zap"
)

// DefaultWorkers returns the number of logical CPUs.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// logHost reports the machine the bake runs on and warns when the transfer
// buffers are unlikely to fit in available memory.
func logHost(log *zap.Logger, workers int, transferBytes uint64) {
	fields := []zap.Field{zap.Int("workers", workers)}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		fields = append(fields, zap.String("cpu", infos[0].ModelName), zap.Float64("mhz", infos[0].Mhz))
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Info("bake host", fields...)
		return
	}
	fields = append(fields,
		zap.Uint64("available_mb", vm.Available>>20),
		zap.Uint64("transfer_mb", transferBytes>>20),
	)
	log.Info("bake host", fields...)

	if transferBytes > vm.Available {
		log.Warn("transfer buffers exceed available memory",
			zap.Uint64("needed_mb", transferBytes>>20),
			zap.Uint64("available_mb", vm.Available>>20))
	}
}
