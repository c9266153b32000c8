package workflow

// Trigger is an action applied to an invoice lifecycle
type Trigger string

const (
	TriggerPay     Trigger = "PAY"
	TriggerArchive Trigger = "ARCHIVE"
	TriggerRestore Trigger = "RESTORE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
