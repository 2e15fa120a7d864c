// Package store persists the server-side role table.
//
// Error contract: Find and Update return sentinel.ErrNotFound for unknown
// subjects; Insert returns sentinel.ErrConflict when the subject already has
// a row. Update applies its mutation atomically with respect to other writers.
//
// RunInTx groups writes with other work sharing the transaction: when fn
// fails, every write made through ctx inside it is rolled back.
package store

import (
	"context"

	"coursegate/internal/roles/models"
	id "coursegate/pkg/domain"
	dErrors "coursegate/pkg/domain-errors"
)

// Mutation edits a record in place inside Update.
type Mutation func(rec *models.Record) error

// TxFunc runs inside RunInTx. ctx carries the transaction.
type TxFunc func(ctx context.Context) error

func validateRecord(rec *models.Record) error {
	if rec == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "record is required")
	}
	if _, err := id.ParseSubjectID(rec.SubjectID.String()); err != nil {
		return err
	}
	if !rec.Role.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "record role is invalid")
	}
	return nil
}
