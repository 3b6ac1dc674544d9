package models

import (
	"path/filepath"
	"testing"
)

func TestJournal(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "journal.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	j, err := NewJournal(db, "median", "/data")
	if err != nil {
		t.Fatal(err)
	}
	if j.Run().ID == 0 {
		t.Fatal("run was not assigned an ID")
	}

	entries := []struct{ in, status, msg string }{
		{"a.tif", "ok", ""},
		{"b.tif", "failed", "degenerate image: every pixel has value 0"},
		{"c.tif", "ok", ""},
	}
	for _, e := range entries {
		if err := j.Record(e.in, e.in+"_adjusted", e.status, e.msg); err != nil {
			t.Fatal(err)
		}
	}

	outcomes, err := ListOutcomes(db, j.Run().ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 3 || outcomes[1].Error != entries[1].msg {
		t.Errorf("ListOutcomes() = %+v", outcomes)
	}

	done, err := CompletedInputs(db, "ok")
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != 2 || !done["a.tif"] || !done["c.tif"] {
		t.Errorf("CompletedInputs() = %v, want a.tif and c.tif", done)
	}

	runs, err := ListRuns(db, 10)
	if err != nil || len(runs) != 1 {
		t.Errorf("ListRuns() = %v, %v, want one run", runs, err)
	}
}

func TestRunRequiresPolicy(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "journal.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := NewJournal(db, "", "/data"); err == nil {
		t.Error("expected an error for a run without policy")
	}
}
