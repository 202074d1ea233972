/*
The sync package implements the reconciliation loop that keeps local
directories in sync with casync archives.

Each target has a primary archive, an optional backup archive, and a
destination directory. Every cycle compares three digests:
1) The digest of the primary archive, if it's reachable.
2) The digest of the backup archive, if one is configured and reachable.
3) The cached digest of the destination, as of the last successful pull.

If the primary changed, it's extracted into the destination. If the primary
is unreachable but the backup differs from the destination, the backup is
extracted instead. Afterwards, if the backup doesn't hold the destination's
content, the destination is archived into the backup.

The cache is a heuristic. The destination isn't digested on every cycle, so
changes made to it outside of this package go unnoticed until the next pull.

The Scheduler runs the cycle of every target on its own interval, and never
runs two cycles for the same destination at the same time.
*/
package sync
