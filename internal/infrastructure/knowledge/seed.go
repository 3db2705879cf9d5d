package knowledge

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile mirrors the knowledge-base tables in YAML so the dataset can be
// versioned and loaded without hand-written SQL.
type SeedFile struct {
	FAQs []struct {
		Question string `yaml:"question"`
		Answer   string `yaml:"answer"`
		Category string `yaml:"category"`
		Keywords string `yaml:"keywords"`
	} `yaml:"faqs"`
	Prerequisites []struct {
		CourseCode          string `yaml:"course_code"`
		CourseName          string `yaml:"course_name"`
		PrerequisiteCourses string `yaml:"prerequisite_courses"`
		Description         string `yaml:"description"`
	} `yaml:"prerequisites"`
	Programs []struct {
		ProgramName string `yaml:"program_name"`
		DegreeType  string `yaml:"degree_type"`
		Department  string `yaml:"department"`
		Description string `yaml:"description"`
		WebsiteURL  string `yaml:"website_url"`
	} `yaml:"programs"`
	Deadlines []struct {
		DeadlineType string `yaml:"deadline_type"`
		Date         string `yaml:"date"`
		Semester     string `yaml:"semester"`
		Description  string `yaml:"description"`
	} `yaml:"deadlines"`
	CampusResources []struct {
		ResourceName string `yaml:"resource_name"`
		Location     string `yaml:"location"`
		Description  string `yaml:"description"`
		WebsiteURL   string `yaml:"website_url"`
	} `yaml:"campus_resources"`
	Scholarships []struct {
		ScholarshipName string `yaml:"scholarship_name"`
		Amount          string `yaml:"amount"`
		Eligibility     string `yaml:"eligibility"`
	} `yaml:"scholarships"`
	StudentClubs []struct {
		ClubName    string `yaml:"club_name"`
		Category    string `yaml:"category"`
		Description string `yaml:"description"`
	} `yaml:"student_clubs"`
}

// Seed loads a YAML dataset into SQLite and rebuilds the search index.
// Existing rows are kept; seeding is additive.
func (s *Store) Seed(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, f := range seed.FAQs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO faqs (question, answer, category, keywords) VALUES (?, ?, ?, ?)`,
			f.Question, f.Answer, f.Category, f.Keywords); err != nil {
			return fmt.Errorf("insert faq: %w", err)
		}
	}
	for _, p := range seed.Prerequisites {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO prerequisites (course_code, course_name, prerequisite_courses, description) VALUES (?, ?, ?, ?)`,
			p.CourseCode, p.CourseName, p.PrerequisiteCourses, p.Description); err != nil {
			return fmt.Errorf("insert prerequisite: %w", err)
		}
	}
	for _, p := range seed.Programs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO programs (program_name, degree_type, department, description, website_url) VALUES (?, ?, ?, ?, ?)`,
			p.ProgramName, p.DegreeType, p.Department, p.Description, p.WebsiteURL); err != nil {
			return fmt.Errorf("insert program: %w", err)
		}
	}
	for _, d := range seed.Deadlines {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO deadlines (deadline_type, date, semester, description) VALUES (?, ?, ?, ?)`,
			d.DeadlineType, d.Date, d.Semester, d.Description); err != nil {
			return fmt.Errorf("insert deadline: %w", err)
		}
	}
	for _, r := range seed.CampusResources {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO campus_resources (resource_name, location, description, website_url) VALUES (?, ?, ?, ?)`,
			r.ResourceName, r.Location, r.Description, r.WebsiteURL); err != nil {
			return fmt.Errorf("insert resource: %w", err)
		}
	}
	for _, sc := range seed.Scholarships {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scholarships (scholarship_name, amount, eligibility) VALUES (?, ?, ?)`,
			sc.ScholarshipName, sc.Amount, sc.Eligibility); err != nil {
			return fmt.Errorf("insert scholarship: %w", err)
		}
	}
	for _, c := range seed.StudentClubs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO student_clubs (club_name, category, description) VALUES (?, ?, ?)`,
			c.ClubName, c.Category, c.Description); err != nil {
			return fmt.Errorf("insert club: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}

	if err := s.Reindex(ctx); err != nil {
		return err
	}
	s.logger.Info("knowledge base seeded", "path", path, "documents", s.index.Count())
	return nil
}
