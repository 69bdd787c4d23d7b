package app

// Operation statuses recorded in the operations table.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// CommandOperation tracks a CLI command that may mutate the alarm store.
// Operations are created in memory with ID=0. Only mutating commands
// persist them (giving them an auto-increment ID from the database).
type CommandOperation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string
}

// NewCommandOperation creates a new in-memory operation.
func NewCommandOperation(operation, parameters string) *CommandOperation {
	return &CommandOperation{
		Operation:  operation,
		Parameters: parameters,
		Status:     StatusSuccess,
	}
}

// Persisted returns true if this operation has been saved to the database.
func (op *CommandOperation) Persisted() bool {
	return op.ID != 0
}

// Record marks the operation failed if err is non-nil and returns err.
func (op *CommandOperation) Record(err error) error {
	if err != nil {
		op.Status = StatusError
	}
	return err
}
