package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/books", "200"))
	RecordHTTPRequest("GET", "/api/v1/books", 200, 12*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/books", "200"))
	assert.InDelta(t, 1, after-before, 0.0001)
}

func TestRecordAuth(t *testing.T) {
	okBefore := testutil.ToFloat64(AuthAttempts.WithLabelValues("login", "success"))
	failBefore := testutil.ToFloat64(AuthAttempts.WithLabelValues("login", "failure"))

	RecordAuth("login", nil)
	RecordAuth("login", errors.New("bad password"))
	RecordAuth("login", errors.New("bad password"))

	assert.InDelta(t, 1, testutil.ToFloat64(AuthAttempts.WithLabelValues("login", "success"))-okBefore, 0.0001)
	assert.InDelta(t, 2, testutil.ToFloat64(AuthAttempts.WithLabelValues("login", "failure"))-failBefore, 0.0001)
}

func TestRecordSearch(t *testing.T) {
	savedBefore := testutil.ToFloat64(SnapshotsSaved)
	filterBefore := testutil.ToFloat64(SearchesTotal.WithLabelValues("filter"))

	RecordSearch(3, true)
	RecordSearch(0, false)

	assert.InDelta(t, 1, testutil.ToFloat64(SnapshotsSaved)-savedBefore, 0.0001)
	assert.InDelta(t, 2, testutil.ToFloat64(SearchesTotal.WithLabelValues("filter"))-filterBefore, 0.0001)
}

func TestRecordSeed_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(SeedRows.WithLabelValues("ratings"))
	RecordSeed("ratings", 0)
	RecordSeed("ratings", 7)
	assert.InDelta(t, 7, testutil.ToFloat64(SeedRows.WithLabelValues("ratings"))-before, 0.0001)
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPActiveRequests)
	TrackActiveRequest(true)
	assert.InDelta(t, before+1, testutil.ToFloat64(HTTPActiveRequests), 0.0001)
	TrackActiveRequest(false)
	assert.InDelta(t, before, testutil.ToFloat64(HTTPActiveRequests), 0.0001)
}
