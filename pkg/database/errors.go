package database

import (
	"errors"

	"gorm.io/gorm"
)

// KeyConflict names the key a rejected insert collided with.
type KeyConflict int

const (
	NoConflict KeyConflict = iota
	// UnknownKeyConflict is a unique violation whose key the driver did not
	// report, e.g. after gorm translated it to ErrDuplicatedKey.
	UnknownKeyConflict
	PrimaryKeyConflict
	UniqueKeyConflict
)

// sqlite extended result codes
const (
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// ClassifyKeyConflict reports whether err is a primary key or unique index
// violation.
func ClassifyKeyConflict(err error) KeyConflict {
	if err == nil {
		return NoConflict
	}
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		switch coded.Code() {
		case sqliteConstraintPrimaryKey:
			return PrimaryKeyConflict
		case sqliteConstraintUnique:
			return UniqueKeyConflict
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return UnknownKeyConflict
	}
	return NoConflict
}
