package specdb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/m4tt-willi4ms/cctbx-project/linalg"
	"github.com/m4tt-willi4ms/cctbx-project/spec"
)

func testSpec(copies int) *spec.Spec {
	g := spec.Group{}
	for i := 0; i < copies; i++ {
		g.Copies = append(g.Copies, spec.Copy{
			Chain:       string(rune('A' + i)),
			Ranges:      [][2]int{{1, 20}, {25, 40}},
			Rotation:    linalg.RotationZ(float64(i) * 0.25),
			Translation: linalg.Vec3{float64(i) * 12.5, -3, 0.125},
			RMSD:        0.1 * float64(i),
			Center:      linalg.Vec3{1, 2, 3},
			Residues:    36,
		})
	}
	return &spec.Spec{Groups: []spec.Group{g}}
}

func exercise(t *testing.T, s *Store) {
	ctx := context.Background()
	if err := s.Put(ctx, "2abc", testSpec(2)); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "1xyz", testSpec(3)); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "1xyz")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, testSpec(3)) {
		t.Fatalf("Stored and loaded specifications differ:\n%+v\n%+v",
			testSpec(3), got)
	}

	if err := s.Put(ctx, "1xyz", testSpec(4)); err != nil {
		t.Fatal(err)
	}
	sums, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []Summary{{"1xyz", 1, 4}, {"2abc", 1, 2}}
	if !reflect.DeepEqual(sums, want) {
		t.Fatalf("Expected %v but got %v.", want, sums)
	}

	if _, err := s.Get(ctx, "none"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound but got %v.", err)
	}
	if err := s.Delete(ctx, "2abc"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "2abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound but got %v.", err)
	}
	if err := s.Put(ctx, " ", testSpec(1)); err == nil {
		t.Fatalf("Expected an error for an empty name.")
	}
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "specs.db")
	s, err := Open(context.Background(), DriverSQLite, path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	exercise(t, s)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(context.Background(), DriverSQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	sums, err := reopened.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 1 || sums[0].Name != "1xyz" {
		t.Fatalf("Expected the specification to persist, got %v.", sums)
	}
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("NCS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NCS_TEST_POSTGRES_DSN is not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, DriverPostgres, dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ncs_specs`); err != nil {
		t.Fatal(err)
	}
	exercise(t, s)
}

func TestQueryPlaceholders(t *testing.T) {
	tests := []struct {
		driver, want string
	}{
		{DriverSQLite, "SELECT a FROM t WHERE b = ? AND c = ?"},
		{DriverPostgres, "SELECT a FROM t WHERE b = $1 AND c = $2"},
	}
	for _, test := range tests {
		s := &Store{driver: test.driver}
		got := s.query("SELECT a FROM t WHERE b = ? AND c = ?")
		if got != test.want {
			t.Errorf("%s: expected '%s' but got '%s'", test.driver, test.want, got)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", ""); err == nil {
		t.Fatalf("Expected an error for an unsupported driver.")
	}
}
