package cmd

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/ArnaudCalmettes/histonorm/batch"
	"github.com/ArnaudCalmettes/histonorm/imp"
	"github.com/ArnaudCalmettes/histonorm/models"
	"github.com/spf13/viper"
)

// setKey overrides a config key for the duration of a test.
func setKey(t *testing.T, key string, value interface{}) {
	t.Helper()
	old := viper.Get(key)
	viper.Set(key, value)
	t.Cleanup(func() { viper.Set(key, old) })
}

func setFlag(t *testing.T, flag *bool, value bool) {
	t.Helper()
	old := *flag
	*flag = value
	t.Cleanup(func() { *flag = old })
}

func writeCells(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, 4, 4))
	for i := 0; i < 16; i++ {
		v := uint16(100)
		if i >= 8 {
			v = 20000
		}
		img.SetGray16(i%4, i/4, color.Gray16{Y: v})
	}
	if err := imp.Save(path, img, imp.Uncompressed); err != nil {
		t.Fatal(err)
	}
}

// lastRun returns the outcomes of the most recent journaled run, by input.
func lastRun(t *testing.T, path string) map[string]string {
	t.Helper()
	db, err := models.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	runs, err := models.ListRuns(db, 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns() = %v, %v", runs, err)
	}
	outcomes, err := models.ListOutcomes(db, runs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	res := make(map[string]string)
	for _, o := range outcomes {
		res[o.Input] = o.Status
	}
	return res
}

func TestNormalizeWithJournal(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.tif")
	bad := filepath.Join(dir, "bad.tif")
	writeCells(t, good)
	if err := os.WriteFile(bad, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	journal := filepath.Join(t.TempDir(), "journal.sqlite")
	setKey(t, "journal", journal)
	setKey(t, "log.level", "disabled")

	if err := normalize([]string{dir}); err == nil {
		t.Fatal("expected an error since bad.tif can't be read")
	}
	out := batch.OutputName(good, batch.DefaultSuffix)
	img, err := imp.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	g, err := imp.ToGray16(img)
	if err != nil {
		t.Fatal(err)
	}
	if bg, fg := g.Gray16At(0, 0).Y, g.Gray16At(3, 3).Y; bg != 100 || fg != 10000 {
		t.Errorf("output pixels = %d, %d, want 100, 10000", bg, fg)
	}

	got := lastRun(t, journal)
	if len(got) != 2 || got[good] != batch.StatusOK || got[bad] != batch.StatusFailed {
		t.Errorf("journal = %v, want good.tif ok and bad.tif failed", got)
	}

	// Resuming only retries what failed.
	if err := os.Remove(out); err != nil {
		t.Fatal(err)
	}
	setFlag(t, &resume, true)
	if err := normalize([]string{dir}); err == nil {
		t.Fatal("expected an error since bad.tif can't be read")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("good.tif was normalized again (stat err = %v)", err)
	}
	got = lastRun(t, journal)
	if len(got) != 1 || got[bad] != batch.StatusFailed {
		t.Errorf("journal = %v, want only bad.tif failed", got)
	}
}

func TestNormalizeSkipExisting(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.tif")
	writeCells(t, good)
	out := batch.OutputName(good, batch.DefaultSuffix)
	marker := []byte("previous output")
	if err := os.WriteFile(out, marker, 0o644); err != nil {
		t.Fatal(err)
	}
	setKey(t, "journal", "")
	setKey(t, "log.level", "disabled")

	setFlag(t, &skipExisting, true)
	if err := normalize([]string{dir}); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(out); !bytes.Equal(data, marker) {
		t.Error("existing output was overwritten")
	}

	setFlag(t, &skipExisting, false)
	if err := normalize([]string{dir}); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(out); bytes.Equal(data, marker) {
		t.Error("existing output was kept without --skip-existing")
	}
}

func TestMigrateDB(t *testing.T) {
	setKey(t, "log.level", "disabled")

	setKey(t, "journal", "")
	if err := migrateDB(); err == nil {
		t.Error("expected an error without a journal path")
	}

	path := filepath.Join(t.TempDir(), "journal.sqlite")
	setKey(t, "journal", path)
	if err := migrateDB(); err != nil {
		t.Fatal(err)
	}
	db, err := models.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if !db.HasTable(&models.Run{}) || !db.HasTable(&models.Outcome{}) {
		t.Error("journal tables are missing")
	}
}
