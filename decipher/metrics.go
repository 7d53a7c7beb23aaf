package decipher

import (
	"sync/atomic"
	"time"
)

type metrics struct {
	resolves    atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	scans       atomic.Int64
	decodes     atomic.Int64
	failures    atomic.Int64
	decodeNanos atomic.Int64
}

// Stats is a point-in-time copy of an engine's counters.
type Stats struct {
	Resolves    int64 `json:"resolves"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	// Scans counts Locate+ExtractHelpers runs over script text.
	Scans             int64         `json:"scans"`
	Decodes           int64         `json:"decodes"`
	Failures          int64         `json:"failures"`
	TotalDecodeTime   time.Duration `json:"total_decode_time"`
	AverageDecodeTime time.Duration `json:"average_decode_time"`
}

func (m *metrics) observeDecode(d time.Duration, err error) {
	m.decodes.Add(1)
	m.decodeNanos.Add(int64(d))
	if err != nil {
		m.failures.Add(1)
	}
}

func (m *metrics) snapshot() Stats {
	s := Stats{
		Resolves:        m.resolves.Load(),
		CacheHits:       m.cacheHits.Load(),
		CacheMisses:     m.cacheMisses.Load(),
		Scans:           m.scans.Load(),
		Decodes:         m.decodes.Load(),
		Failures:        m.failures.Load(),
		TotalDecodeTime: time.Duration(m.decodeNanos.Load()),
	}
	if s.Decodes > 0 {
		s.AverageDecodeTime = s.TotalDecodeTime / time.Duration(s.Decodes)
	}
	return s
}
