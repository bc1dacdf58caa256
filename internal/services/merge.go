package services

import (
	"cmp"
	"math"
	"time"

	"github.com/tbourn/go-srs-backend/internal/domain"
	"github.com/tbourn/go-srs-backend/internal/fsrs"
)

// minTraceStability is the stability given to a replica that counts
// reviews but carries no stability.
var minTraceStability = fsrs.DefaultParameters().StabilityFloor

// Merge reconciles two replicas of the same word state. It is commutative
// and idempotent and never fails.
//
// The memory and schedule fields (stability, difficulty, retrievability,
// next and last review dates, status, state_updated_at, device_id) come
// together from one winning replica, since they are the joint output of a
// single model transition. The winner is the replica that has a memory
// trace when the other has none, then the one with the newer
// state_updated_at, then the larger review_count, then the larger device
// id, then a comparison of the field values themselves.
//
// An ignore set on an untraced replica after the winner's last change is
// kept: the result takes status ignored with that replica's
// state_updated_at and device_id, and the memory fields of the winner.
//
// Counters and version take the maximum, created_at the earliest, and the
// difficulty prior follows the earliest-created replica. Malformed input
// is clamped rather than rejected.
func Merge(local, remote domain.WordState) domain.WordState {
	a, b := sanitize(local), sanitize(remote)

	out, other := a, b
	if compareReplicas(b, a) > 0 {
		out, other = b, a
	}
	if !other.HasTrace() && other.Status == domain.StatusIgnored &&
		other.StateUpdatedAt.After(out.StateUpdatedAt) {
		out.Status = domain.StatusIgnored
		out.StateUpdatedAt = other.StateUpdatedAt
		out.DeviceID = other.DeviceID
	}
	out.NextReviewDate = cloneTime(out.NextReviewDate)
	out.LastReviewDate = cloneTime(out.LastReviewDate)

	out.ReviewCount = max(a.ReviewCount, b.ReviewCount)
	out.LapseCount = max(a.LapseCount, b.LapseCount)
	out.Version = max(a.Version, b.Version)

	switch c := compareCreated(a.CreatedAt, b.CreatedAt); {
	case c < 0:
		out.CreatedAt, out.InitialDifficulty = a.CreatedAt, a.InitialDifficulty
	case c > 0:
		out.CreatedAt, out.InitialDifficulty = b.CreatedAt, b.InitialDifficulty
	default:
		out.CreatedAt = a.CreatedAt
		out.InitialDifficulty = math.Max(a.InitialDifficulty, b.InitialDifficulty)
	}
	return out
}

// MergeAmbiguous reports whether two replicas carry different field groups
// stamped with the same state_updated_at by different devices, which
// usually means clock skew between them.
func MergeAmbiguous(a, b domain.WordState) bool {
	return a.StateUpdatedAt.Equal(b.StateUpdatedAt) &&
		a.DeviceID != b.DeviceID &&
		compareFields(a, b) != 0
}

// compareReplicas orders replicas by merge precedence; > 0 means a wins.
func compareReplicas(a, b domain.WordState) int {
	if at, bt := a.HasTrace(), b.HasTrace(); at != bt {
		if at {
			return 1
		}
		return -1
	}
	if c := a.StateUpdatedAt.Compare(b.StateUpdatedAt); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ReviewCount, b.ReviewCount); c != 0 {
		return c
	}
	if c := cmp.Compare(a.DeviceID, b.DeviceID); c != 0 {
		return c
	}
	return compareFields(a, b)
}

// compareFields is a total order over the winner-copied field group.
func compareFields(a, b domain.WordState) int {
	if c := cmp.Compare(a.Stability, b.Stability); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Difficulty, b.Difficulty); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Retrievability, b.Retrievability); c != 0 {
		return c
	}
	if c := compareTimePtr(a.NextReviewDate, b.NextReviewDate); c != 0 {
		return c
	}
	if c := compareTimePtr(a.LastReviewDate, b.LastReviewDate); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Status, b.Status); c != 0 {
		return c
	}
	if c := a.StateUpdatedAt.Compare(b.StateUpdatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.DeviceID, b.DeviceID)
}

// compareCreated orders creation times; an unset time sorts last.
func compareCreated(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	}
	return a.Compare(b)
}

// nil sorts first.
func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func sanitize(ws domain.WordState) domain.WordState {
	ws.ReviewCount = max(ws.ReviewCount, 0)
	ws.LapseCount = max(ws.LapseCount, 0)
	if ws.LapseCount > ws.ReviewCount {
		ws.ReviewCount = ws.LapseCount
	}
	if math.IsNaN(ws.Stability) || ws.Stability < 0 {
		ws.Stability = 0
	}
	if ws.ReviewCount > 0 && ws.Stability == 0 {
		ws.Stability = minTraceStability
	}
	if math.IsNaN(ws.Difficulty) || ws.Difficulty < 0 {
		ws.Difficulty = 0
	}
	if math.IsNaN(ws.Retrievability) {
		ws.Retrievability = 0
	}
	ws.Retrievability = math.Min(math.Max(ws.Retrievability, 0), 1)
	if math.IsNaN(ws.InitialDifficulty) || ws.InitialDifficulty < 0 {
		ws.InitialDifficulty = 0
	}
	if !ws.Status.Valid() {
		ws.Status = domain.StatusNew
		if ws.ReviewCount > 0 {
			ws.Status = domain.StatusLearning
		}
	}
	return ws
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
