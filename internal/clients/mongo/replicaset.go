package mongo

import "sync/atomic"

var isReplicaSet atomic.Bool

// IsReplicaSet reports whether the connected deployment is a replica set.
// It is probed once per Init and reported by the health check.
func IsReplicaSet() bool { return isReplicaSet.Load() }
