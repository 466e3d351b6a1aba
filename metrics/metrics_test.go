// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetricsByDefault(t *testing.T) {
	assert.IsType(t, &noopMetrics{}, metrics)
	assert.Nil(t, HTTPHandler())

	// all meter ops are harmless no-ops
	Counter("noop_counter").Add(1)
	Gauge("noop_gauge").Set(5)
	CounterVec("noop_cv", []string{"a"}).AddWithLabel(1, map[string]string{"a": "b"})
	GaugeVec("noop_gv", []string{"a"}).SetWithLabel(1, map[string]string{"a": "b"})
}

func TestPrometheusMetrics(t *testing.T) {
	InitializePrometheusMetrics()
	assert.IsType(t, &prometheusMetrics{}, metrics)

	Counter("test_counter").Add(3)
	Gauge("test_gauge").Set(7)
	CounterVec("test_counter_vec", []string{"outcome"}).
		AddWithLabel(1, map[string]string{"outcome": "ok"})

	// same meter is reused
	assert.Equal(t, Counter("test_counter"), Counter("test_counter"))

	server := httptest.NewServer(HTTPHandler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	payload := string(body)
	assert.True(t, strings.Contains(payload, "codechain_metrics_test_counter 3"))
	assert.True(t, strings.Contains(payload, "codechain_metrics_test_gauge 7"))
}

func TestLazyLoad(t *testing.T) {
	calls := 0
	loader := LazyLoad(func() int {
		calls++
		return 42
	})
	assert.Equal(t, 42, loader())
	assert.Equal(t, 42, loader())
	assert.Equal(t, 1, calls)
}
