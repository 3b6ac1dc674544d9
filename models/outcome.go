package models

import (
	"github.com/jinzhu/gorm"
)

// An Outcome records what happened to one input image during a run. It
// holds no image statistic: the output image is the only product.
type Outcome struct {
	gorm.Model
	RunID  uint   `gorm:"index"`
	Input  string `gorm:"index"`
	Output string
	Status string
	Error  string
}

// Create creates a new outcome in the DB
func (o *Outcome) Create(db *gorm.DB) error {
	return db.Create(o).Error
}

// ListOutcomes returns the outcomes of given run
func ListOutcomes(db *gorm.DB, runID uint) (outcomes []Outcome, err error) {
	err = db.Where("run_id = ?", runID).Order("id").Find(&outcomes).Error
	return
}

// CompletedInputs returns the inputs that were successfully normalized by
// any previous run.
func CompletedInputs(db *gorm.DB, status string) (map[string]bool, error) {
	var inputs []string
	if err := db.Model(&Outcome{}).Where("status = ?", status).Pluck("DISTINCT input", &inputs).Error; err != nil {
		return nil, err
	}
	res := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		res[in] = true
	}
	return res, nil
}

// Journal appends the outcomes of a run to the DB.
type Journal struct {
	db  *gorm.DB
	run *Run
}

// NewJournal creates the run record outcomes will be attached to.
func NewJournal(db *gorm.DB, policy, roots string) (*Journal, error) {
	run := &Run{Policy: policy, Roots: roots}
	if err := run.Create(db); err != nil {
		return nil, err
	}
	return &Journal{db: db, run: run}, nil
}

// Run returns the run being journaled.
func (j *Journal) Run() Run {
	return *j.run
}

// Record stores the outcome of one image.
func (j *Journal) Record(input, output, status, errMsg string) error {
	o := Outcome{
		RunID:  j.run.ID,
		Input:  input,
		Output: output,
		Status: status,
		Error:  errMsg,
	}
	return o.Create(j.db)
}
