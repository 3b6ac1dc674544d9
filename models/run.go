package models

import (
	"errors"
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite" // sqlite3 driver
)

// Open opens the journal database and migrates its tables.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate performs automatic migration of the journal tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Run{}, &Outcome{}).Error
}

// A Run is one invocation of the normalize command.
type Run struct {
	gorm.Model
	Policy   string
	Roots    string
	Outcomes []Outcome
}

func (r Run) String() string {
	return fmt.Sprintf("Run{id=%v, policy=%v, roots=%v}", r.ID, r.Policy, r.Roots)
}

// BeforeSave is executed just before a Run is saved into the DB
func (r *Run) BeforeSave() error {
	if r.Policy == "" {
		return errors.New("run policy can't be empty")
	}
	return nil
}

// Create creates a new run in the DB
func (r *Run) Create(db *gorm.DB) error {
	return db.Create(r).Error
}

// ListRuns returns the latest runs, most recent first.
func ListRuns(db *gorm.DB, limit int) (runs []Run, err error) {
	err = db.Order("id desc").Limit(limit).Find(&runs).Error
	return
}
