package health

import (
	"encoding/json"
	"net/http"
)

// ReadinessReporter answers whether the service can serve suggestions and
// which backends it is currently connected to.
type ReadinessReporter interface {
	Readiness() (ready bool, backends []string)
}

func Readiness(rr ReadinessReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		type resp struct {
			Status   string   `json:"status"`
			Backends []string `json:"backends,omitempty"`
		}
		ready, backends := rr.Readiness()
		out := resp{Status: "not_ready"}
		if ready {
			out.Status = "ready"
			out.Backends = backends
		}
		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
