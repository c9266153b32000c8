package workflow

// InvoiceLifecycle returns the invoice lifecycle configuration.
//
// PAY is only configured from DRAFT/ACTIVE. When settles reports true the
// payment clears the balance and the invoice moves to PAID/ACTIVE, otherwise
// it stays in DRAFT/ACTIVE. ARCHIVE and RESTORE flip the archival flag and
// never touch the settlement status; repeating either is a no-op.
func InvoiceLifecycle(settles GuardFunc) StateMachineBuilder {
	if settles == nil {
		settles = func() bool { return false }
	}

	b := NewBuilder()

	b.Configure(StateDraftActive).
		PermitIf(TriggerPay, StatePaidActive, settles).
		Permit(TriggerPay, StateDraftActive).
		Permit(TriggerArchive, StateDraftArchived).
		Permit(TriggerRestore, StateDraftActive)

	b.Configure(StatePaidActive).
		Permit(TriggerArchive, StatePaidArchived).
		Permit(TriggerRestore, StatePaidActive)

	b.Configure(StateDraftArchived).
		Permit(TriggerArchive, StateDraftArchived).
		Permit(TriggerRestore, StateDraftActive)

	b.Configure(StatePaidArchived).
		Permit(TriggerArchive, StatePaidArchived).
		Permit(TriggerRestore, StatePaidActive)

	return b
}
