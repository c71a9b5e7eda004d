// Package storage содержит общие ошибки слоя хранения и вспомогательные
// функции для тестов против PostgreSQL.
package storage

import "errors"

var (
	// ErrNotFound: запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrUniqueViolation: нарушено ограничение уникальности (SQLSTATE 23505).
	ErrUniqueViolation = errors.New("unique constraint violation")
)
