package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openFileStore(t *testing.T, path string) *CustomizationStore {
	t.Helper()
	s := OpenCustomizations(context.Background(), "", path, nil)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNormalizeIndustry(t *testing.T) {
	cases := map[string]string{
		"Audio Visual":      "audio_visual",
		"  audio-visual  ":  "audio_visual",
		"Audio/Visual (AV)": "audio_visual_av",
		"SaaS":              "saas",
		"":                  "",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeIndustry(in), "input %q", in)
	}
}

func TestPutListDelete(t *testing.T) {
	ctx := context.Background()
	s := openFileStore(t, filepath.Join(t.TempDir(), "customizations.json"))

	require.NoError(t, s.Put(ctx, "Audio Visual", Customization{
		Property: "pain_points", Op: OpAdd, Values: []string{"integration complexity"},
	}))
	require.NoError(t, s.Put(ctx, "audio_visual", Customization{
		Property: "goals", Op: OpReplace, Values: []string{"standardized stacks"},
	}))

	list, err := s.List(ctx, "AUDIO visual")
	require.NoError(t, err)
	require.Len(t, list, 2, "industry keys are normalized before use")

	// Same (industry, property) pair replaces, never duplicates.
	require.NoError(t, s.Put(ctx, "audio visual", Customization{
		Property: "goals", Op: OpAdd, Values: []string{"faster rollouts"},
	}))
	list, err = s.List(ctx, "audio visual")
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, s.Delete(ctx, "audio visual", "goals"))
	list, err = s.List(ctx, "audio visual")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "pain_points", list[0].Property)
}

func TestPutRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s := openFileStore(t, "")

	require.Error(t, s.Put(ctx, "", Customization{Property: "goals", Op: OpAdd}))
	require.Error(t, s.Put(ctx, "av", Customization{Op: OpAdd}))
	require.Error(t, s.Put(ctx, "av", Customization{Property: "goals", Op: "merge"}))
}

func TestFilePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "customizations.json")

	first := openFileStore(t, path)
	require.NoError(t, first.Put(ctx, "manufacturing", Customization{
		Property: "pain_points", Op: OpAdd, Values: []string{"supply chain risk"},
	}))

	second := openFileStore(t, path)
	list, err := second.List(ctx, "manufacturing")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, []string{"supply chain risk"}, list[0].Values)
}

func TestApplyOverlaysPersona(t *testing.T) {
	ctx := context.Background()
	s := openFileStore(t, "")
	require.NoError(t, s.Put(ctx, "av", Customization{
		Property: "pain_points", Op: OpAdd, Values: []string{"integration complexity", "firmware drift"},
	}))
	require.NoError(t, s.Put(ctx, "av", Customization{
		Property: "goals", Op: OpReplace, Values: []string{"standardized stacks"},
	}))
	require.NoError(t, s.Put(ctx, "av", Customization{
		Property: "services", Op: OpRemove, Values: []string{"Training"},
	}))

	persona := map[string]any{
		"pain_points": []any{"Integration Complexity", "long procurement cycles"},
		"goals":       []any{"reliable deployments"},
		"services":    []any{"training", "installation support"},
	}
	require.NoError(t, s.Apply(ctx, persona, "AV"))

	// Add dedupes case-insensitively, replace swaps wholesale, remove folds case.
	require.Equal(t, []any{"Integration Complexity", "long procurement cycles", "firmware drift"}, persona["pain_points"])
	require.Equal(t, []any{"standardized stacks"}, persona["goals"])
	require.Equal(t, []any{"installation support"}, persona["services"])
}

func TestApplyCreatesMissingProperty(t *testing.T) {
	ctx := context.Background()
	s := openFileStore(t, "")
	require.NoError(t, s.Put(ctx, "av", Customization{
		Property: "certifications", Op: OpAdd, Values: []string{"CTS"},
	}))

	persona := map[string]any{}
	require.NoError(t, s.Apply(ctx, persona, "av"))
	require.Equal(t, []any{"CTS"}, persona["certifications"])
}

func TestApplyNilStoreIsNoop(t *testing.T) {
	var s *CustomizationStore
	require.NoError(t, s.Apply(context.Background(), map[string]any{}, "av"))
}
