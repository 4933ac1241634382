// Package journal keeps an append-only log of every trial result of a harness run, so that
// results can be re-read after the run, including one that was interrupted or crashed.
package journal

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/wal"

	"github.com/ivy-tools/trial-harness/trial"
)

// DirName is the name of the journal directory inside a run's output directory.
const DirName = "journal"

// Record is the persisted form of one trial.Result.
type Record struct {
	Test       string            `json:"test"`
	Dir        string            `json:"dir"`
	Sequence   int               `json:"seq"`
	Outcome    trial.OutcomeKind `json:"outcome"`
	Code       int               `json:"code,omitempty"`
	Step       string            `json:"step,omitempty"`
	Start      time.Time         `json:"start"`
	DurationMs int64             `json:"duration_ms"`
}

// RecordOf converts a result to its persisted form.
func RecordOf(r trial.Result) Record {
	return Record{
		Test:       r.Trial.Test.Name(),
		Dir:        r.Trial.Test.Dir(),
		Sequence:   r.Trial.Sequence,
		Outcome:    r.Outcome.Kind,
		Code:       r.Outcome.Code,
		Step:       r.Outcome.Step,
		Start:      r.Start,
		DurationMs: r.Duration.Milliseconds(),
	}
}

// TrialOutcome reconstructs the trial outcome.
func (r Record) TrialOutcome() trial.Outcome {
	return trial.Outcome{Kind: r.Outcome, Code: r.Code, Step: r.Step}
}

type Journal struct {
	mutex sync.Mutex
	log   *wal.Log

	// index of the next entry; the underlying log starts counting at 1
	next uint64
}

// Open opens the journal at path, creating it if necessary. Records appended by an earlier
// process are kept and new records follow them.
func Open(path string) (*Journal, error) {
	log, err := wal.Open(path, &wal.Options{
		NoSync: true,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "could not open journal")
	}
	last, err := log.LastIndex()
	if err != nil {
		_ = log.Close()
		return nil, errors.WithMessage(err, "could not read last journal index")
	}
	return &Journal{log: log, next: last + 1}, nil
}

// Append persists one result.
func (j *Journal) Append(r trial.Result) error {
	data, err := json.Marshal(RecordOf(r))
	if err != nil {
		return errors.WithMessage(err, "could not encode journal record")
	}

	j.mutex.Lock()
	defer j.mutex.Unlock()
	if err := j.log.Write(j.next, data); err != nil {
		return errors.WithMessagef(err, "could not write journal entry %d", j.next)
	}
	j.next++
	return nil
}

// LoadAll calls forEach with every record, oldest first.
func (j *Journal) LoadAll(forEach func(Record)) error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	first, err := j.log.FirstIndex()
	if err != nil {
		return errors.WithMessage(err, "could not read first journal index")
	}
	if first == 0 {
		// journal is empty
		return nil
	}
	last, err := j.log.LastIndex()
	if err != nil {
		return errors.WithMessage(err, "could not read last journal index")
	}

	for i := first; i <= last; i++ {
		data, err := j.log.Read(i)
		if err != nil {
			return errors.WithMessagef(err, "could not read journal entry %d", i)
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return errors.WithMessagef(err, "journal entry %d is corrupt", i)
		}
		forEach(rec)
	}
	return nil
}

// Close closes the journal.
func (j *Journal) Close() error {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	return errors.WithMessage(j.log.Close(), "could not close journal")
}
