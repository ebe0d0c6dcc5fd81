package canonical

import (
	"context"
	"errors"
	"testing"

	embedmock "github.com/voxhire/voxhire/pkg/provider/embeddings/mock"
)

func newTestMatcher(t *testing.T, vectors map[string][]float32, opts ...MatcherOption) (*Matcher, *embedmock.Provider) {
	t.Helper()
	embedder := &embedmock.Provider{Vectors: vectors}
	return NewMatcher(embedder, NewMemIndex(), opts...), embedder
}

func TestMatch_ExactLabelAtDistanceZero(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMatcher(t, map[string][]float32{
		"python": {1, 0, 0},
		"react":  {0, 1, 0},
	})

	if err := m.AddCanonical(ctx, CollectionSkills, "Python"); err != nil {
		t.Fatal(err)
	}
	if err := m.AddCanonical(ctx, CollectionSkills, "React"); err != nil {
		t.Fatal(err)
	}

	label, ok, err := m.Match(ctx, CollectionSkills, "Python")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || label != "python" {
		t.Errorf("Match = (%q, %v), want (python, true)", label, ok)
	}
}

func TestMatch_ReturnsNormalizedLabel(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMatcher(t, map[string][]float32{
		"python": {1, 0, 0},
	})
	if err := m.AddCanonical(ctx, CollectionSkills, "Python"); err != nil {
		t.Fatal(err)
	}

	// The canonical label is the normalized form, whatever casing was added
	// or matched against.
	for _, candidate := range []string{"Python", "python", "PYTHON"} {
		label, ok, err := m.Match(ctx, CollectionSkills, candidate)
		if err != nil {
			t.Fatal(err)
		}
		if !ok || label != "python" {
			t.Errorf("Match(%q) = (%q, %v), want (python, true)", candidate, label, ok)
		}
	}
}

func TestMatch_NearbyCandidateAccepted(t *testing.T) {
	ctx := context.Background()
	// "pythom" is almost collinear with "python": distance well under 0.2.
	m, _ := newTestMatcher(t, map[string][]float32{
		"python": {1, 0, 0},
		"pythom": {0.99, 0.14, 0},
	})
	if err := m.AddCanonical(ctx, CollectionSkills, "Python"); err != nil {
		t.Fatal(err)
	}

	label, ok, err := m.Match(ctx, CollectionSkills, "pythom")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || label != "python" {
		t.Errorf("Match = (%q, %v), want (python, true)", label, ok)
	}
}

func TestMatch_DistantCandidateRejected(t *testing.T) {
	ctx := context.Background()
	// Orthogonal vectors: distance 1, far beyond the 0.2 acceptance bound.
	m, _ := newTestMatcher(t, map[string][]float32{
		"python":    {1, 0, 0},
		"gardening": {0, 1, 0},
	})
	if err := m.AddCanonical(ctx, CollectionSkills, "Python"); err != nil {
		t.Fatal(err)
	}

	_, ok, err := m.Match(ctx, CollectionSkills, "gardening")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("distant candidate accepted, want rejection")
	}
}

func TestMatch_BoundaryDistanceRejected(t *testing.T) {
	ctx := context.Background()
	// cos = 0.8 exactly → distance 0.2, which must NOT be accepted
	// (acceptance is strict: distance < 1 - threshold).
	m, _ := newTestMatcher(t, map[string][]float32{
		"python": {1, 0, 0},
		"edge":   {0.8, 0.6, 0},
	})
	if err := m.AddCanonical(ctx, CollectionSkills, "Python"); err != nil {
		t.Fatal(err)
	}

	_, ok, err := m.Match(ctx, CollectionSkills, "edge")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("candidate at exactly the threshold distance accepted, want rejection")
	}
}

func TestMatch_EmptyCandidate(t *testing.T) {
	m, embedder := newTestMatcher(t, nil)
	label, ok, err := m.Match(context.Background(), CollectionNames, "   ")
	if err != nil || ok || label != "" {
		t.Errorf("Match = (%q, %v, %v), want empty miss without error", label, ok, err)
	}
	if len(embedder.EmbedCalls) != 0 {
		t.Error("embedder called for empty candidate")
	}
}

func TestMatch_EmptyCollection(t *testing.T) {
	m, _ := newTestMatcher(t, nil)
	_, ok, err := m.Match(context.Background(), CollectionRoles, "Backend Engineer")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("match against empty collection succeeded")
	}
}

func TestMatch_EmbedErrorPropagates(t *testing.T) {
	embedder := &embedmock.Provider{Err: errors.New("embedding backend down")}
	m := NewMatcher(embedder, NewMemIndex())

	if _, _, err := m.Match(context.Background(), CollectionNames, "Asha"); err == nil {
		t.Fatal("expected error from embedder")
	}
}

func TestAddCanonical_IdempotentAcrossCasing(t *testing.T) {
	ctx := context.Background()
	embedder := &embedmock.Provider{Vectors: map[string][]float32{"asha": {1, 0, 0}}}
	index := NewMemIndex()
	m := NewMatcher(embedder, index)

	for _, label := range []string{"Asha", "asha", "ASHA"} {
		if err := m.AddCanonical(ctx, CollectionNames, label); err != nil {
			t.Fatal(err)
		}
	}
	if n := index.Len(CollectionNames); n != 1 {
		t.Errorf("index entries = %d, want 1", n)
	}
}

func TestAddCanonical_RejectsEmptyLabel(t *testing.T) {
	m, _ := newTestMatcher(t, nil)
	if err := m.AddCanonical(context.Background(), CollectionNames, "  "); err == nil {
		t.Fatal("expected error for blank label")
	}
}

func TestMatch_PhoneticPrePassShortCircuits(t *testing.T) {
	ctx := context.Background()
	// The embedding vectors are orthogonal, so only the phonetic pre-pass can
	// produce this match.
	m, embedder := newTestMatcher(t, map[string][]float32{
		"asha":  {1, 0, 0},
		"aasha": {0, 1, 0},
	}, WithPhoneticPrePass())

	if err := m.AddCanonical(ctx, CollectionNames, "Asha"); err != nil {
		t.Fatal(err)
	}
	embedCallsAfterAdd := len(embedder.EmbedCalls)

	label, ok, err := m.Match(ctx, CollectionNames, "Aasha")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || label != "asha" {
		t.Fatalf("Match = (%q, %v), want phonetic hit normalized to asha", label, ok)
	}
	if len(embedder.EmbedCalls) != embedCallsAfterAdd {
		t.Error("embedder called despite phonetic short-circuit")
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	embedder := &embedmock.Provider{EmbedFunc: func(string) []float32 { return []float32{1, 0, 0} }}
	index := NewMemIndex()
	m := NewMatcher(embedder, index)

	if err := m.Seed(ctx, CollectionRoles, []string{"Backend Engineer", "Frontend Developer"}); err != nil {
		t.Fatal(err)
	}
	if n := index.Len(CollectionRoles); n != 2 {
		t.Errorf("seeded entries = %d, want 2", n)
	}
}
