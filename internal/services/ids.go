package services

import (
	"context"
	"errors"
	"strings"

	"github.com/gofrs/uuid"
)

const (
	taskIDPrefix  = "DC-"
	doubtIDPrefix = "DQ-"

	maxIDAttempts = 5
)

// newRecordID returns prefix followed by six upper-case hex characters.
func newRecordID(prefix string) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return prefix + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:6]), nil
}

// uniqueRecordID draws ids until exists reports a free one.
func uniqueRecordID(ctx context.Context, prefix string, exists func(context.Context, string) (bool, error)) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id, err := newRecordID(prefix)
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", errors.New("could not allocate a free record id")
}
