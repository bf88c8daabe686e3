/*
lock.go - Statement lock gate

PURPOSE:
  Once a monthly statement exists in an active (non-voided) status for a
  (trainer, month, year) key, the base entries of that period are frozen:
  the CRUD layer must reject create/update/delete for the key. The engine
  only exposes the predicate; enforcement is the caller's job.

STATE MACHINE (per key):
  unlocked -> locked   when an active statement (draft/issued/approved/
                       paid) exists
  locked   -> unlocked only when that statement is voided or deleted

ATOMICITY:
  IsLocked gives no atomicity across concurrent statement creation. Two
  callers can both observe unlocked and both proceed; the storage layer
  serializes with a unique active-statement index per key.
*/
package billing

// IsLocked reports whether an active statement exists for the
// (trainer, month, year) key among the supplied statements.
func IsLocked(trainer string, month, year int, statements []MonthlyStatement) bool {
	for _, s := range statements {
		if s.Trainer == trainer && s.Month == month && s.Year == year && s.Status.Active() {
			return true
		}
	}
	return false
}
