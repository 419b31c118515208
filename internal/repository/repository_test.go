package repository

import (
	"errors"

	"github.com/vaporlimpio/reservas-api/internal/model"
)

// Shared fixtures for the repository tests.

func errDuplicate() error {
	return errors.New("Error 1062 (23000): Duplicate entry")
}

func statusFixture(name string) model.Status {
	return model.Status{Name: name}
}

func u64(v uint64) *uint64   { return &v }
func str(v string) *string   { return &v }
func f64(v float64) *float64 { return &v }
