// Package logging wraps zap for the prunelab commands.
//
// Entries go to stderr so stdout stays free for tables and result paths.
// Every method takes a context; run id, command and experiment stored in
// it with WithRunID, WithCommand and WithExperiment are added to each
// entry. TraceLevel sits below Debug for per-batch detail.
//
//	l, err := logging.New(logging.NewDefaultConfig(), os.Stderr)
//	if err != nil {
//	    return err
//	}
//	defer l.Sync()
//
//	ctx = logging.WithExperiment(ctx, "snip")
//	l.Info(ctx, "records loaded", zap.Int("records", n))
//
// Code deep in a call chain gets the logger back with FromContext.
package logging
