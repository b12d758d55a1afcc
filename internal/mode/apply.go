package mode

import (
	"context"

	"github.com/specialistvlad/axisgrid/internal/synth"
)

// Field returns an ApplyFunc that sets one request field.
func Field(field string) ApplyFunc {
	return func(_ context.Context, env Env, value any) error {
		return synth.SetField(env.Request, field, value)
	}
}

// Override returns an ApplyFunc that sets a per-request override of a
// backend option.
func Override(key string) ApplyFunc {
	return func(_ context.Context, env Env, value any) error {
		env.Request.SetOverride(key, value)
		return nil
	}
}

// Catalog returns a ValuesFunc that lists a backend catalog, followed by
// any fixed extra entries.
func Catalog(kind synth.CatalogKind, extra ...string) ValuesFunc {
	return func(ctx context.Context, env Env) ([]string, error) {
		values, err := env.Backend.Catalog(ctx, kind)
		if err != nil {
			return nil, err
		}
		return append(values, extra...), nil
	}
}

// Catalogs returns a ValuesFunc concatenating several live catalogs in order.
func Catalogs(kinds ...synth.CatalogKind) ValuesFunc {
	return func(ctx context.Context, env Env) ([]string, error) {
		var out []string
		for _, kind := range kinds {
			values, err := env.Backend.Catalog(ctx, kind)
			if err != nil {
				return nil, err
			}
			out = append(out, values...)
		}
		return out, nil
	}
}

// Fixed returns a ValuesFunc over a constant list.
func Fixed(values ...string) ValuesFunc {
	return func(context.Context, Env) ([]string, error) {
		return append([]string(nil), values...), nil
	}
}
