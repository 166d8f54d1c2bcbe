package monitor

import (
	"sync/atomic"
)

// WorkloadStats counts index traffic. All methods are safe for concurrent use.
type WorkloadStats struct {
	ReadCount   uint64
	WriteCount  uint64
	DeleteCount uint64
	SearchCount uint64
	HitCount    uint64 // query cache hits
	RejectCount uint64 // records refused by validation
}

// Snapshot is a point-in-time copy of WorkloadStats.
type Snapshot struct {
	Reads          uint64  `json:"reads"`
	Writes         uint64  `json:"writes"`
	Deletes        uint64  `json:"deletes"`
	Searches       uint64  `json:"searches"`
	CacheHits      uint64  `json:"cache_hits"`
	Rejects        uint64  `json:"rejects"`
	ReadWriteRatio float64 `json:"read_write_ratio"`
}

func NewWorkloadStats() *WorkloadStats {
	return &WorkloadStats{}
}

func (ws *WorkloadStats) RecordRead() {
	atomic.AddUint64(&ws.ReadCount, 1)
}

func (ws *WorkloadStats) RecordWrite() {
	atomic.AddUint64(&ws.WriteCount, 1)
}

func (ws *WorkloadStats) RecordDelete() {
	atomic.AddUint64(&ws.DeleteCount, 1)
}

func (ws *WorkloadStats) RecordSearch() {
	atomic.AddUint64(&ws.SearchCount, 1)
}

func (ws *WorkloadStats) RecordHit() {
	atomic.AddUint64(&ws.HitCount, 1)
}

func (ws *WorkloadStats) RecordReject() {
	atomic.AddUint64(&ws.RejectCount, 1)
}

// GetReadWriteRatio treats searches as reads.
func (ws *WorkloadStats) GetReadWriteRatio() float64 {
	reads := atomic.LoadUint64(&ws.ReadCount) + atomic.LoadUint64(&ws.SearchCount)
	writes := atomic.LoadUint64(&ws.WriteCount) + atomic.LoadUint64(&ws.DeleteCount)

	if writes == 0 {
		if reads > 0 {
			return 100.0
		}
		return 0.0
	}
	return float64(reads) / float64(writes)
}

func (ws *WorkloadStats) Snapshot() Snapshot {
	return Snapshot{
		Reads:          atomic.LoadUint64(&ws.ReadCount),
		Writes:         atomic.LoadUint64(&ws.WriteCount),
		Deletes:        atomic.LoadUint64(&ws.DeleteCount),
		Searches:       atomic.LoadUint64(&ws.SearchCount),
		CacheHits:      atomic.LoadUint64(&ws.HitCount),
		Rejects:        atomic.LoadUint64(&ws.RejectCount),
		ReadWriteRatio: ws.GetReadWriteRatio(),
	}
}
