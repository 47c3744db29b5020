package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// LoadList reads a JSON array stored under key. A missing key or a document
// that no longer parses yields an empty list; only storage failures are
// returned.
func LoadList[T any](ctx context.Context, s Store, key string) ([]T, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return []T{}, fmt.Errorf("load %s: %w", key, err)
	}

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		slog.WarnContext(ctx, "corrupt persisted list, using empty",
			slog.String("key", key), slog.Any("err", err))
		return []T{}, nil
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// LoadObject reads a JSON object stored under key. Missing or corrupt
// documents yield nil.
func LoadObject[T any](ctx context.Context, s Store, key string) (*T, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		slog.WarnContext(ctx, "corrupt persisted object, ignoring",
			slog.String("key", key), slog.Any("err", err))
		return nil, nil
	}
	return &out, nil
}

func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.Put(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
