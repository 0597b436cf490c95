package main

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"torrentfront/internal/auth"
)

type userStore interface {
	UpsertUser(ctx context.Context, u auth.User) error
}

// importUsers reads username,password[,is_admin] rows after a header line.
// Rows without a username or password are skipped.
func importUsers(ctx context.Context, store userStore, in io.Reader) (int, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return 0, errors.Wrap(err, "read header")
	}
	for _, col := range []string{"username", "password"} {
		if _, ok := header[col]; !ok {
			return 0, errors.Errorf("missing %q column", col)
		}
	}

	imported := 0
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, errors.Wrapf(err, "line %d", line)
		}

		username := valueAt(header, row, "username")
		password := valueAt(header, row, "password")
		if username == "" || password == "" {
			log.WithField("line", line).Warn("skipping row without username or password")
			continue
		}

		isAdmin := false
		if raw := valueAt(header, row, "is_admin"); raw != "" {
			if isAdmin, err = strconv.ParseBool(raw); err != nil {
				return imported, errors.Wrapf(err, "line %d: is_admin", line)
			}
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return imported, errors.Wrapf(err, "line %d", line)
		}
		if err := store.UpsertUser(ctx, auth.User{
			ID:           uuid.NewString(),
			Username:     username,
			PasswordHash: hash,
			IsAdmin:      isAdmin,
		}); err != nil {
			return imported, errors.Wrapf(err, "line %d", line)
		}
		imported++
	}
	return imported, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
