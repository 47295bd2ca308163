package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/medly/medly-api/internal/model"
	"github.com/medly/medly-api/internal/repository"
	apperrors "github.com/medly/medly-api/pkg/errors"
)

// File formats accepted by the seeder. A file holds either a single org
// document or a bare list of hospitals.
type (
	OrgDocument struct {
		Hospitals []HospitalSeed `json:"hospitals"`
	}

	HospitalSeed struct {
		Name        string           `json:"name"`
		Address     *string          `json:"address"`
		Departments []DepartmentSeed `json:"departments"`
	}

	DepartmentSeed struct {
		Name    string       `json:"name"`
		Rooms   []RoomSeed   `json:"rooms"`
		Doctors []DoctorSeed `json:"doctors"`
	}

	RoomSeed struct {
		Code string  `json:"code"`
		Name *string `json:"name"`
	}

	DoctorSeed struct {
		Name  string  `json:"name"`
		Role  *string `json:"role"`
		Phone *string `json:"phone"`
	}
)

// Result counts entities touched by one seeding run. Ensure semantics make
// reruns cheap: existing rows are matched by name, not duplicated.
type Result struct {
	Hospitals   int `json:"hospitals"`
	Departments int `json:"departments"`
	Doctors     int `json:"doctors"`
	Rooms       int `json:"rooms"`
	Files       int `json:"files"`
}

type Seeder struct {
	tx        repository.TxRunner
	hospitals repository.HospitalRepository
	doctors   repository.DoctorRepository
	rooms     repository.RoomRepository
}

func NewSeeder(
	tx repository.TxRunner,
	hospitals repository.HospitalRepository,
	doctors repository.DoctorRepository,
	rooms repository.RoomRepository,
) *Seeder {
	return &Seeder{tx: tx, hospitals: hospitals, doctors: doctors, rooms: rooms}
}

// SeedDocument applies one parsed org document in a single transaction.
func (s *Seeder) SeedDocument(ctx context.Context, doc *OrgDocument) (*Result, error) {
	result := &Result{}
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.applyDocument(ctx, tx, doc, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SeedFiles applies the named files in one transaction.
func (s *Seeder) SeedFiles(ctx context.Context, files []string) (*Result, error) {
	if len(files) == 0 {
		return nil, apperrors.Validation("no seed files given")
	}
	docs := make([]*OrgDocument, 0, len(files))
	for _, f := range files {
		doc, err := loadFile(f)
		if err != nil {
			return nil, apperrors.Validationf("seed file %s: %v", filepath.Base(f), err)
		}
		docs = append(docs, doc)
	}

	result := &Result{Files: len(files)}
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, doc := range docs {
			if err := s.applyDocument(ctx, tx, doc, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SeedPath loads every matching JSON file under path. A plain file is loaded
// directly; a directory is scanned with the glob pattern, recursively when
// asked. All files apply in one transaction so a malformed file aborts the
// whole run.
func (s *Seeder) SeedPath(ctx context.Context, path, pattern string, recursive bool) (*Result, error) {
	if pattern == "" {
		pattern = "*.json"
	}
	files, err := collectFiles(path, pattern, recursive)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperrors.Validationf("no files matching %q under %s", pattern, path)
	}

	docs := make([]*OrgDocument, 0, len(files))
	for _, f := range files {
		doc, err := loadFile(f)
		if err != nil {
			return nil, apperrors.Validationf("seed file %s: %v", filepath.Base(f), err)
		}
		docs = append(docs, doc)
	}

	result := &Result{Files: len(files)}
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, doc := range docs {
			if err := s.applyDocument(ctx, tx, doc, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("files", result.Files).
		Int("hospitals", result.Hospitals).
		Int("doctors", result.Doctors).
		Msg("organization data seeded")
	return result, nil
}

func (s *Seeder) applyDocument(ctx context.Context, tx *sqlx.Tx, doc *OrgDocument, result *Result) error {
	for _, hs := range doc.Hospitals {
		name := strings.TrimSpace(hs.Name)
		if name == "" {
			return apperrors.Validation("hospital name must not be empty")
		}
		h, err := s.hospitals.EnsureByName(ctx, tx, name)
		if err != nil {
			return err
		}
		result.Hospitals++

		for _, ds := range hs.Departments {
			depName := strings.TrimSpace(ds.Name)
			if depName == "" {
				return apperrors.Validationf("hospital %s: department name must not be empty", name)
			}
			dep, err := s.hospitals.EnsureDepartment(ctx, tx, h.ID, depName)
			if err != nil {
				return err
			}
			result.Departments++

			for _, rs := range ds.Rooms {
				if strings.TrimSpace(rs.Code) == "" {
					continue
				}
				if _, err := s.rooms.Ensure(ctx, tx, h.ID, dep.ID, rs.Code, rs.Name); err != nil {
					return err
				}
				result.Rooms++
			}

			for _, dr := range ds.Doctors {
				docName := strings.TrimSpace(dr.Name)
				if docName == "" {
					continue
				}
				var roles model.StringList
				if dr.Role != nil && *dr.Role != "" {
					roles = model.StringList{*dr.Role}
				}
				if _, err := s.doctors.EnsureByName(ctx, tx, dep.ID, docName, dr.Phone, roles); err != nil {
					return err
				}
				result.Doctors++
			}
		}
	}
	return nil
}

// loadFile parses a seed file, accepting either a full document or a bare
// hospital list.
func loadFile(path string) (*OrgDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc OrgDocument
	if err := json.Unmarshal(raw, &doc); err == nil && len(doc.Hospitals) > 0 {
		return &doc, nil
	}
	var hospitals []HospitalSeed
	if err := json.Unmarshal(raw, &hospitals); err == nil && len(hospitals) > 0 {
		return &OrgDocument{Hospitals: hospitals}, nil
	}
	return nil, fmt.Errorf("no hospitals found")
}

func collectFiles(path, pattern string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.Validationf("seed path %s: %v", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	if recursive {
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ok, err := filepath.Match(pattern, d.Name())
			if err != nil {
				return err
			}
			if ok {
				files = append(files, p)
			}
			return nil
		})
	} else {
		files, err = filepath.Glob(filepath.Join(path, pattern))
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
