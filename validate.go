package worm

import "github.com/tinywasm/fmt"

func validate(action Action, m Model) error {
	t := m.Table()
	if t == nil || t.Name == "" {
		return ErrEmptyTable
	}
	if t.Virtual && (action == ActionUpsert || action == ActionDeleteByKey || action == ActionUpdate || action == ActionDelete) {
		return ErrVirtualTable
	}
	if t.Abstract {
		return ErrAbstractTable
	}

	if action == ActionUpsert {
		if t.Len() != len(m.Values()) {
			return fmt.Err(ErrValidation, "fields and values length mismatch")
		}
	}

	return nil
}
