package instance

import "os"

// GetID identifies this worker replica in log output. It prefers the
// SMDATA_INSTANCE_ID variable set by the deployment, then the pod
// hostname, then a static default for local runs.
func GetID() string {
	if id := os.Getenv("SMDATA_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
