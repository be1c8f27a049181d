// Package codec provides the codec session that turns a sequence of feature
// sets into a bitstream file and back.
//
// A Session is a small state machine. It is Idle between calls and Active
// while an Encode or Decode runs; each call starts from a reset state
// (poc 0, no reference, no cluster assignment) and holds the session lock
// until it returns.
//
//	sess, err := codec.NewSession(
//	    codec.WithQP(36),
//	    codec.WithQPDensity(4),
//	    codec.WithNCluster(64),
//	    codec.WithIntraPeriod(8),
//	)
//	if err != nil {
//	    return err // configuration errors never touch the file system
//	}
//
//	res, err := sess.Encode(ctx, seq, "features.ftc")
//	...
//	out, err := sess.Decode(ctx, "features.ftc")
//
// # Coding Type Schedule
//
// The set at picture order count poc is intra coded when the intra period
// is -1 or poc is a multiple of it; every other set is inter coded against
// the reconstruction of the previous set. Clustering runs on intra sets
// only, inter sets reuse the last assignment.
//
// # Resources
//
// Encode creates the output file and removes it again when encoding fails
// or the context is cancelled. Decode maps the input read-only where the
// platform supports it and reads it into memory otherwise; the mapping is
// released before Decode returns.
package codec
