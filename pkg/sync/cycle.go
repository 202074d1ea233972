package sync

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sidkik/casync-sync/pkg/casync"
	"github.com/sidkik/casync-sync/pkg/config"
	"github.com/sidkik/casync-sync/pkg/errors"
)

// Digest is a digest that may be absent, e.g. because the archive it
// describes couldn't be reached. An absent digest never equals a present
// one, even if the present one is empty.
type Digest struct {
	Value string
	OK    bool
}

// Present returns a Digest holding `value`.
func Present(value string) Digest {
	return Digest{Value: value, OK: true}
}

// Equal returns whether two digests describe the same content.
func (d Digest) Equal(other Digest) bool {
	return d.OK == other.OK && d.Value == other.Value
}

func (d Digest) String() string {
	if !d.OK {
		return "<absent>"
	}
	return d.Value
}

// Source identifies the archive a pull extracted from.
type Source string

const (
	// SourceNone means that the destination wasn't pulled into.
	SourceNone Source = ""
	// SourcePrimary is the primary archive.
	SourcePrimary Source = "primary"
	// SourceBackup is the backup archive.
	SourceBackup Source = "backup"
)

// Result describes what a single reconciliation cycle observed and did.
type Result struct {
	Target string

	// The digests read at the start of the cycle.
	Primary Digest
	Backup  Digest

	// Cached is the destination's digest in the cache at the end of the
	// cycle.
	Cached Digest

	Pulled  Source
	PullErr error

	Pushed  bool
	PushErr error
}

// Failed returns whether any action attempted by the cycle failed. Failing to
// read a digest isn't a failed action.
func (r Result) Failed() bool {
	return r.PullErr != nil || r.PushErr != nil
}

// Reconciler runs reconciliation cycles. It's safe to run cycles for
// different destinations concurrently, but cycles for the same destination
// must be serialized by the caller.
type Reconciler struct {
	archiver casync.Archiver
	cache    Cache
	metrics  *Metrics
	log      logrus.FieldLogger
}

// NewReconciler returns a Reconciler that operates on archives through
// `archiver` and remembers destination digests in `cache`.
func NewReconciler(log logrus.FieldLogger, archiver casync.Archiver, cache Cache, metrics *Metrics) *Reconciler {
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Reconciler{
		archiver: archiver,
		cache:    cache,
		metrics:  metrics,
		log:      log,
	}
}

// RunCycle brings `target.Destination` in line with the target's archives.
// It pulls at most once, from the primary archive if it changed or from the
// backup if the primary is unreachable. It then pushes the destination to
// the backup if the backup doesn't hold it yet.
func (r *Reconciler) RunCycle(ctx context.Context, target config.Target) Result {
	start := time.Now()
	defer func() {
		r.metrics.Cycles.With("target", target.Name).Add(1)
		r.metrics.CycleDurationSeconds.With("target", target.Name).Observe(time.Since(start).Seconds())
	}()

	log := r.log.WithFields(logrus.Fields{
		"target":      target.Name,
		"destination": target.Destination,
	})
	res := Result{Target: target.Name}

	res.Primary = r.digest(ctx, log, target, "primary", target.Index, primaryOptions(target))
	if target.HasBackup() {
		res.Backup = r.digest(ctx, log, target, "backup", target.BackupIndex, backupOptions(target))
	}

	cached := r.cached(target.Destination)
	switch {
	case res.Primary.OK && !cached.Equal(res.Primary):
		res.Pulled = SourcePrimary
		res.PullErr = r.pull(ctx, log, target, SourcePrimary, target.Index, primaryOptions(target))
	case !res.Primary.OK && target.HasBackup() && res.Backup.OK &&
		cached.OK && !cached.Equal(res.Backup):
		res.Pulled = SourceBackup
		res.PullErr = r.pull(ctx, log, target, SourceBackup, target.BackupIndex, backupOptions(target))
	}

	// The pull may have changed or invalidated the cached digest.
	cached = r.cached(target.Destination)
	if target.HasBackup() && cached.OK && !cached.Equal(res.Backup) {
		if !res.Primary.OK {
			log.Warn("Pushing destination to backup while the primary archive is unreachable")
		}
		res.Pushed = true
		res.PushErr = r.push(ctx, log, target)
	}

	res.Cached = cached
	return res
}

func (r *Reconciler) cached(destination string) Digest {
	value, ok := r.cache.Get(destination)
	return Digest{Value: value, OK: ok}
}

func (r *Reconciler) digest(ctx context.Context, log logrus.FieldLogger, target config.Target,
	archive, index string, opts casync.Options) Digest {
	ctx, cancel := withTimeout(ctx, target.Timeout)
	defer cancel()

	value, err := r.archiver.Digest(ctx, index, opts)
	if err != nil {
		r.metrics.DigestFailures.With("target", target.Name, "archive", archive).Add(1)
		log.WithError(errors.DigestUnavailable{Target: index, Err: err}).
			WithField("archive", archive).
			Warn("Failed to read archive digest")
		return Digest{}
	}
	return Present(value)
}

// pull extracts `index` into the destination, and caches the resulting
// digest of the destination. If anything fails, the cached digest is
// dropped since the destination's content is no longer known.
func (r *Reconciler) pull(ctx context.Context, log logrus.FieldLogger, target config.Target,
	source Source, index string, opts casync.Options) error {
	log = log.WithField("source", source)

	digest, err := r.extract(ctx, target, index, opts)
	r.metrics.Pulls.With("target", target.Name, "source", string(source), "result", resultLabel(err)).Add(1)
	if err != nil {
		r.cache.Invalidate(target.Destination)
		log.WithError(err).Error("Failed to extract archive into destination")
		return err
	}

	r.cache.Set(target.Destination, digest)
	log.WithField("digest", digest).Info("Extracted archive into destination")
	return nil
}

func (r *Reconciler) extract(ctx context.Context, target config.Target,
	index string, opts casync.Options) (string, error) {
	if err := checkPullDestination(target.Destination); err != nil {
		return "", err
	}

	extractCtx, cancel := withTimeout(ctx, target.Timeout)
	defer cancel()
	if _, err := r.archiver.Extract(extractCtx, index, target.Destination, opts); err != nil {
		return "", errors.WithContext(err, "extract")
	}

	digestCtx, cancel := withTimeout(ctx, target.Timeout)
	defer cancel()
	digest, err := r.archiver.Digest(digestCtx, target.Destination, destinationOptions)
	if err != nil {
		return "", errors.WithContext(
			errors.DigestUnavailable{Target: target.Destination, Err: err},
			"digest destination")
	}
	return digest, nil
}

// push archives the destination into the backup. Failures are only logged:
// the cached digest still describes the destination.
func (r *Reconciler) push(ctx context.Context, log logrus.FieldLogger, target config.Target) error {
	err := r.make(ctx, target)
	r.metrics.Pushes.With("target", target.Name, "result", resultLabel(err)).Add(1)
	if err != nil {
		log.WithError(err).Error("Failed to save destination to backup")
		return err
	}

	log.WithField("backupIndex", target.BackupIndex).Info("Saved destination to backup")
	return nil
}

func (r *Reconciler) make(ctx context.Context, target config.Target) error {
	if err := checkPushSource(target.Destination, target.BackupIndex); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, target.Timeout)
	defer cancel()
	if _, err := r.archiver.Make(ctx, target.BackupIndex, target.Destination, backupOptions(target)); err != nil {
		return errors.WithContext(err, "make backup")
	}
	return nil
}

// withTimeout is context.WithTimeout, except that a non-positive timeout
// means no timeout.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
