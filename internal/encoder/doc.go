// Package encoder is the process boundary around the external video encoder.
//
// Transcoding and frame extraction build a [Command] with a [CommandBuilder]
// and run it through a [Gateway]. [FFmpeg] is the production gateway: it runs
// each command under exec.CommandContext with a wall-clock timeout, captures
// stdout and stderr, removes the command's output file on failure, and tracks
// running processes so [FFmpeg.Cleanup] can kill them at shutdown.
//
// Tests substitute the gateway with encodertest.Gateway.
package encoder
