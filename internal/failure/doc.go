/*
Package failure defines the error taxonomy shared by every stage of the
ingest pipeline.

Each stage converts platform errors (os, exec, image decoders, net/http) into
a *Error carrying a stable Kind and a human-readable Detail, so callers never
see a raw OS or process error:

	asset, err := images.ToCanonicalWebP(ctx, candidate)
	switch failure.KindOf(err) {
	case "":
	    // success
	case failure.KindDecodeError:
	    // corrupt or unsupported source
	}

Sentinel values support errors.Is matching by kind, so wrapping with %w keeps
the kind reachable:

	if errors.Is(err, failure.ErrFileTooLarge) { ... }
*/
package failure
