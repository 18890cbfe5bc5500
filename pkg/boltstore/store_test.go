package boltstore

import (
	"path/filepath"
	"testing"

	"github.com/crystal-mush/rpkit/pkg/gamedb"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "game.bolt")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, path
}

func TestStoreRoundTrip(t *testing.T) {
	s, path := openTemp(t)

	db := s.DB()
	room := db.Create("Plaza", gamedb.TypeRoom)
	alice := db.Create("Alice", gamedb.TypePlayer)
	alice.Location = room.DBRef
	alice.SetAttr("finger_ic_job", "Smith")
	alice.Stats.Put(gamedb.StatKey{Category: "merits", Type: "social", Name: "Language(Gaelic)"}, gamedb.StatValue{Perm: 1})

	if err := s.PutObjects(room, alice); err != nil {
		t.Fatalf("PutObjects: %v", err)
	}
	if !s.HasData() {
		t.Fatal("HasData = false after write")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if err := s2.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	got, ok := s2.DB().Get(alice.DBRef)
	if !ok {
		t.Fatalf("object #%d missing after reload", alice.DBRef)
	}
	if v, _ := got.GetAttr("finger_ic_job"); v != "Smith" {
		t.Errorf("attr = %q, want Smith", v)
	}
	if _, ok := got.Stats.Get(gamedb.StatKey{Category: "merits", Type: "social", Name: "Language(Gaelic)"}); !ok {
		t.Error("stat row lost in round trip")
	}
	if s2.DB().NextRef != alice.DBRef+1 {
		t.Errorf("NextRef = %d, want %d", s2.DB().NextRef, alice.DBRef+1)
	}
	if ref := s2.DB().LookupPlayer("ALICE"); ref != alice.DBRef {
		t.Errorf("LookupPlayer = %d, want %d", ref, alice.DBRef)
	}
}

func TestStoreDeleteObject(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	bob := s.DB().Create("Bob", gamedb.TypePlayer)
	if err := s.PutObject(bob); err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if err := s.DeleteObject(bob.DBRef); err != nil {
		t.Fatalf("DeleteObject: %v", err)
	}
	if s.HasData() {
		t.Error("HasData = true after delete")
	}
}

func TestStoreBackup(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	obj := s.DB().Create("Lantern", gamedb.TypeThing)
	if err := s.PutObject(obj); err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	backup := filepath.Join(t.TempDir(), "snap.bolt")
	if err := s.Backup(backup); err != nil {
		t.Fatalf("Backup: %v", err)
	}

	b, err := Open(backup, nil)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer b.Close()
	if err := b.LoadAll(); err != nil {
		t.Fatalf("LoadAll backup: %v", err)
	}
	if _, ok := b.DB().Get(obj.DBRef); !ok {
		t.Error("backup is missing the object")
	}
}

func TestRefKeyOrdering(t *testing.T) {
	for _, ref := range []gamedb.DBRef{gamedb.Nothing, 0, 1, 12345} {
		if got := keyToRef(refToKey(ref)); got != ref {
			t.Errorf("keyToRef(refToKey(%d)) = %d", ref, got)
		}
	}
	if string(refToKey(gamedb.Nothing)) >= string(refToKey(0)) {
		t.Error("negative refs must sort before zero")
	}
}
