// Package memory keeps image decoding inside the container's memory budget.
//
// [ConfigureFromEnv] derives GOMEMLIMIT from MEMORY_LIMIT (typically set from
// the pod's limits.memory through the Downward API) so the garbage collector
// works harder before the kernel OOM killer steps in:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.75"
//
// A [Monitor] samples heap usage and pauses admission of new image jobs above
// the pause threshold until usage drops under the resume threshold. Video jobs
// run in ffmpeg child processes and are not gated.
package memory
