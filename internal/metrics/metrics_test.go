package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveComputation(t *testing.T) {
	before := testutil.ToFloat64(ScoringComputations.WithLabelValues(KindExplain))
	ObserveComputation(KindExplain, time.Now())
	after := testutil.ToFloat64(ScoringComputations.WithLabelValues(KindExplain))
	assert.Equal(t, before+1, after)
}

func TestCacheCounters(t *testing.T) {
	hits := testutil.ToFloat64(ScoreCache.WithLabelValues("hit"))
	misses := testutil.ToFloat64(ScoreCache.WithLabelValues("miss"))

	CacheHit()
	CacheMiss()
	CacheMiss()

	assert.Equal(t, hits+1, testutil.ToFloat64(ScoreCache.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(ScoreCache.WithLabelValues("miss")))
}
