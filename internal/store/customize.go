package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"personify/internal/util/jsonutil"
)

// Op is a list-edit operation applied to a persona property.
type Op string

const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpReplace Op = "replace"
)

// Customization is one per-industry edit of a list-valued persona
// property, e.g. add "integration complexity" to pain_points for every
// audio-visual persona.
type Customization struct {
	Property string   `json:"property"`
	Op       Op       `json:"op"`
	Values   []string `json:"values"`
}

// CustomizationStore persists per-industry persona customizations in
// Postgres, falling back to a JSON file when no database is reachable.
// Keys are normalized industry names.
type CustomizationStore struct {
	db   *sql.DB
	path string

	mu  sync.Mutex
	mem map[string][]Customization
	log *zap.Logger
}

const customizationsSchema = `
CREATE TABLE IF NOT EXISTS persona_customizations (
    industry TEXT NOT NULL,
    property TEXT NOT NULL,
    op       TEXT NOT NULL,
    vals     JSONB NOT NULL,
    PRIMARY KEY (industry, property)
)`

// OpenCustomizations connects to Postgres when dsn is set and reachable;
// otherwise it runs in file mode against fallbackPath. File mode with
// an empty path keeps everything in memory.
func OpenCustomizations(ctx context.Context, dsn, fallbackPath string, log *zap.Logger) *CustomizationStore {
	if log == nil {
		log = zap.NewNop()
	}
	s := &CustomizationStore{path: fallbackPath, mem: map[string][]Customization{}, log: log}
	if dsn != "" {
		db, err := sql.Open("pgx", dsn)
		if err == nil {
			if err = db.PingContext(ctx); err == nil {
				if _, err = db.ExecContext(ctx, customizationsSchema); err == nil {
					s.db = db
					return s
				}
			}
			_ = db.Close()
		}
		log.Warn("customization store falling back to file mode", zap.Error(err))
	}
	s.loadFile()
	return s
}

// NormalizeIndustry canonicalizes an industry name for keying.
func NormalizeIndustry(industry string) string {
	s := strings.ToLower(strings.TrimSpace(industry))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), "_")
}

// Put stores or replaces the customization for (industry, property).
func (s *CustomizationStore) Put(ctx context.Context, industry string, c Customization) error {
	key := NormalizeIndustry(industry)
	if key == "" || c.Property == "" {
		return fmt.Errorf("store: industry and property are required")
	}
	switch c.Op {
	case OpAdd, OpRemove, OpReplace:
	default:
		return fmt.Errorf("store: unknown op %q", c.Op)
	}
	if s.db != nil {
		vals, err := json.Marshal(c.Values)
		if err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO persona_customizations (industry, property, op, vals)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (industry, property)
			DO UPDATE SET op = EXCLUDED.op, vals = EXCLUDED.vals`,
			key, c.Property, string(c.Op), vals)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.mem[key]
	replaced := false
	for i, have := range list {
		if have.Property == c.Property {
			list[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, c)
	}
	s.mem[key] = list
	return s.saveFileLocked()
}

// Delete removes the customization for (industry, property).
func (s *CustomizationStore) Delete(ctx context.Context, industry, property string) error {
	key := NormalizeIndustry(industry)
	if s.db != nil {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM persona_customizations WHERE industry = $1 AND property = $2`, key, property)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.mem[key]
	for i, have := range list {
		if have.Property == property {
			s.mem[key] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return s.saveFileLocked()
}

// List returns all customizations for an industry.
func (s *CustomizationStore) List(ctx context.Context, industry string) ([]Customization, error) {
	key := NormalizeIndustry(industry)
	if s.db != nil {
		rows, err := s.db.QueryContext(ctx,
			`SELECT property, op, vals FROM persona_customizations WHERE industry = $1 ORDER BY property`, key)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var out []Customization
		for rows.Next() {
			var c Customization
			var op string
			var vals []byte
			if err := rows.Scan(&c.Property, &op, &vals); err != nil {
				return nil, err
			}
			c.Op = Op(op)
			if err := json.Unmarshal(vals, &c.Values); err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, rows.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Customization(nil), s.mem[key]...), nil
}

// Apply overlays an industry's customizations onto a persona in place.
// Unknown or non-list properties are created as lists; removal matches
// case-insensitively.
func (s *CustomizationStore) Apply(ctx context.Context, persona map[string]any, industry string) error {
	if s == nil {
		return nil
	}
	customizations, err := s.List(ctx, industry)
	if err != nil {
		return err
	}
	for _, c := range customizations {
		cur := toList(persona[c.Property])
		switch c.Op {
		case OpReplace:
			cur = toAnyList(c.Values)
		case OpAdd:
			for _, v := range c.Values {
				if !containsFold(cur, v) {
					cur = append(cur, v)
				}
			}
		case OpRemove:
			var kept []any
			for _, have := range cur {
				drop := false
				for _, v := range c.Values {
					if strings.EqualFold(fmt.Sprint(have), v) {
						drop = true
						break
					}
				}
				if !drop {
					kept = append(kept, have)
				}
			}
			cur = kept
		}
		if cur == nil {
			cur = []any{}
		}
		persona[c.Property] = cur
	}
	return nil
}

// Close releases the database handle in DB mode.
func (s *CustomizationStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *CustomizationStore) loadFile() {
	if s.path == "" {
		return
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := jsonutil.UnmarshalFlex(raw, &s.mem); err != nil {
		s.log.Warn("could not parse customization file", zap.String("path", s.path), zap.Error(err))
		s.mem = map[string][]Customization{}
	}
}

func (s *CustomizationStore) saveFileLocked() error {
	if s.path == "" {
		return nil
	}
	raw, err := jsonutil.MarshalNoEscapeIndent(s.mem, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o644)
}

func toList(v any) []any {
	switch x := v.(type) {
	case []any:
		return append([]any(nil), x...)
	case []string:
		return toAnyList(x)
	case nil:
		return nil
	default:
		return []any{x}
	}
}

func toAnyList(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func containsFold(list []any, v string) bool {
	for _, have := range list {
		if strings.EqualFold(fmt.Sprint(have), v) {
			return true
		}
	}
	return false
}
