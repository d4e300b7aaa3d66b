/*
Package workers sizes and bounds the pools that run ingestion work.

# Sizing

Containers often limit CPUs below what the host reports. runtime.NumCPU
returns the host count, while GOMAXPROCS follows the container limit, so pool
sizes are derived from GOMAXPROCS:

	imagePool := workers.NewPool("image", workers.ForCPU(8))  // decode and encode in-process
	videoPool := workers.NewPool("video", workers.ForIO(16))  // jobs wait on ffmpeg

On a pod limited to 2 CPUs, ForCPU(8) returns 2 and ForIO(16) returns 4.

Operators can pin every pool to a fixed size:

	env:
	- name: INGEST_WORKERS
	  value: "4"

The override is still capped by each call's limit. Zero, negative and
non-numeric values are ignored.

# Pools

A [Pool] admits at most Size jobs at once. [Pool.Submit] blocks the caller
until a slot frees up or its context ends, runs the job on the caller's
goroutine and returns the job's error. Handlers therefore keep their
request-scoped context and cancellation without a result channel.

Each pool exports two gauges labelled with its name:
media_ingest_worker_pool_active and media_ingest_worker_pool_waiting.
*/
package workers
