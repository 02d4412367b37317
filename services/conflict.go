package services

import (
	"clinicore-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// overlaps implements the half-open interval check: [start, end) conflicts
// with [otherStart, otherEnd) iff start < otherEnd && otherStart < end.
// Touching boundaries are not a conflict. HH:MM strings compare
// lexicographically in chronological order.
func overlaps(start, end, otherStart, otherEnd string) bool {
	return start < otherEnd && otherStart < end
}

// ConflictDetector checks a proposed slot against existing non-cancelled,
// non-no-show bookings of the same assignee on the same date.
type ConflictDetector struct{}

// HasConflict must run inside the transaction that will persist the write.
// On Postgres it first takes an advisory transaction lock keyed on the
// assignee and date, so a concurrent request for the same day blocks until
// this transaction commits. Serializing on the key rather than existing
// rows is what closes the check-then-insert race when the day is still
// empty: FOR UPDATE alone has nothing to lock then, and two first bookings
// would both see zero rows. The row locks are kept on top so same-day rows
// cannot change state underneath the check. sqlite has no advisory locks or
// FOR UPDATE; its single-writer model serializes the pair anyway.
func (d *ConflictDetector) HasConflict(tx *gorm.DB, assigneeID uuid.UUID, date, start, end string, excludeID *uuid.UUID) (bool, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(? || ?, 0))",
			assigneeID.String(), date).Error; err != nil {
			return false, err
		}
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var existing []models.Appointment
	if err := q.
		Where("assignee_id = ? AND date = ?", assigneeID, date).
		Where("status NOT IN ?", []models.AppointmentStatus{models.StatusCancelled, models.StatusNoShow}).
		Find(&existing).Error; err != nil {
		return false, err
	}

	for _, other := range existing {
		if excludeID != nil && other.ID == *excludeID {
			continue
		}
		if overlaps(start, end, other.StartTime, other.EndTime) {
			return true, nil
		}
	}
	return false, nil
}
