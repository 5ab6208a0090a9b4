// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package prefs persists per-device quality preferences and a history of
// structure loads in a bbolt database.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gogpu/lod"
	"go.etcd.io/bbolt"
)

// Bucket names.
const (
	PreferencesBucket = "preferences"
	LoadsBucket       = "loads"
)

// ErrNotFound is returned when no preference is stored for a device.
var ErrNotFound = errors.New("prefs: not found")

// Preference is the user's stored choice for one device.
type Preference struct {
	Quality    lod.QualityLevel `json:"quality"`
	AutoAdjust bool             `json:"auto_adjust"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// ControllerOptions returns the controller options that restore p.
func (p Preference) ControllerOptions() []lod.ControllerOption {
	return []lod.ControllerOption{
		lod.WithInitialQuality(p.Quality),
		lod.WithAutoAdjust(p.AutoAdjust),
	}
}

// LoadRecord is the persisted summary of a lod.LoadReport.
type LoadRecord struct {
	SessionID   string           `json:"session_id" yaml:"session_id"`
	StructureID string           `json:"structure_id" yaml:"structure_id"`
	Device      string           `json:"device" yaml:"device"`
	Atoms       int              `json:"atoms" yaml:"atoms"`
	FinalLevel  lod.QualityLevel `json:"final_level" yaml:"final_level"`
	Stages      int              `json:"stages" yaml:"stages"`
	Completed   bool             `json:"completed" yaml:"completed"`
	Cancelled   bool             `json:"cancelled" yaml:"cancelled"`
	Duration    time.Duration    `json:"duration" yaml:"duration"`
	RecordedAt  time.Time        `json:"recorded_at" yaml:"recorded_at"`
}

// DeviceKey returns the key preferences are stored under for d.
func DeviceKey(d lod.DeviceCapability) string {
	return fmt.Sprintf("%s/%s", d.Tier, d.Adapter)
}

// Store is a bbolt-backed preference store. It is safe for concurrent use.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("prefs: create database directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("prefs: open database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range []string{PreferencesBucket, LoadsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("prefs: create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores p for device. UpdatedAt is set to the current time.
func (s *Store) Save(device string, p Preference) error {
	if !p.Quality.Valid() {
		return fmt.Errorf("prefs: %w: %d", lod.ErrInvalidQuality, int(p.Quality))
	}
	p.UpdatedAt = s.now()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("prefs: marshal preference: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(PreferencesBucket)).Put([]byte(device), data)
	})
}

// Load returns the preference stored for device, or ErrNotFound.
func (s *Store) Load(device string) (Preference, error) {
	var p Preference
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(PreferencesBucket)).Get([]byte(device))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, device)
		}
		return json.Unmarshal(data, &p)
	})
	return p, err
}

// Delete removes the preference for device. Deleting a missing key is not
// an error.
func (s *Store) Delete(device string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(PreferencesBucket)).Delete([]byte(device))
	})
}

// RecordLoad appends a summary of r to the load history.
func (s *Store) RecordLoad(device string, r *lod.LoadReport) error {
	if r == nil {
		return nil
	}
	rec := LoadRecord{
		SessionID:   r.SessionID,
		StructureID: r.StructureID,
		Device:      device,
		Atoms:       r.Complexity.AtomCount,
		FinalLevel:  r.FinalLevel,
		Stages:      len(r.Stages),
		Completed:   r.Completed(),
		Cancelled:   r.Cancelled,
		Duration:    r.Duration,
		RecordedAt:  s.now(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("prefs: marshal load record: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(LoadsBucket)).Put([]byte(rec.SessionID), data)
	})
}

// Loads returns the recorded loads for device, oldest first. An empty
// device returns all records.
func (s *Store) Loads(device string) ([]LoadRecord, error) {
	var out []LoadRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(LoadsBucket)).ForEach(func(_, v []byte) error {
			var rec LoadRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("prefs: unmarshal load record: %w", err)
			}
			if device == "" || rec.Device == device {
				out = append(out, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}
