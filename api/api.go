// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/CodeChain-io/codechain-sub002/api/governance"
	"github.com/CodeChain-io/codechain-sub002/gov"
	"github.com/CodeChain-io/codechain-sub002/metrics"
)

// New returns the http handler of the governance read API.
func New(engine *gov.Engine, allowedOrigins string, enableMetrics bool) http.Handler {
	origins := strings.Split(strings.TrimSpace(allowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()
	governance.New(engine).Mount(router, "/governance")
	if enableMetrics {
		router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)
	return handler
}
