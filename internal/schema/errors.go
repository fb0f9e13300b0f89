package schema

import "fmt"

// TableNotAllowedError is returned for a table outside the whitelist.
type TableNotAllowedError struct {
	Table string
}

func (e *TableNotAllowedError) Error() string {
	return fmt.Sprintf("table %q is not allowed", e.Table)
}

// InvalidColumnError names a requested column missing from a table.
type InvalidColumnError struct {
	Table  string
	Column string
	Role   Role
}

func (e *InvalidColumnError) Error() string {
	return fmt.Sprintf("%s column %q does not exist in table %q", e.Role, e.Column, e.Table)
}
