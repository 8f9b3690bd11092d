package domain

import "time"

// LoadStatus is the state of a one-shot load.
type LoadStatus string

const (
	LoadStatusLoading LoadStatus = "loading"
	LoadStatusReady   LoadStatus = "ready"
	LoadStatusFailed  LoadStatus = "failed"
)

// Terminal reports whether no further transition can happen.
func (s LoadStatus) Terminal() bool {
	return s == LoadStatusReady || s == LoadStatusFailed
}

// LoadState describes a dataset or boundary load.
type LoadState struct {
	Name     string     `json:"name"`
	Source   string     `json:"source,omitempty"`
	Status   LoadStatus `json:"status"`
	Error    string     `json:"error,omitempty"`
	Count    int        `json:"count,omitempty"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}
