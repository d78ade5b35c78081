package constants

import "time"

// JobLeaseDuration is how long a claimed saga job stays owned by a worker
// before it becomes re-claimable.
const JobLeaseDuration = 30 * time.Minute

// JobPollInterval is how often the worker scans for pending jobs.
const JobPollInterval = 2 * time.Second
