package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"campus-assistant/internal/application/port/output"
	"campus-assistant/internal/domain/entity"

	_ "modernc.org/sqlite"
)

const defaultResultCount = 3

var _ output.StructuredSearchPort = (*Store)(nil)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS faqs (
		faq_id INTEGER PRIMARY KEY AUTOINCREMENT,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		category TEXT,
		keywords TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS prerequisites (
		prereq_id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_code TEXT NOT NULL,
		course_name TEXT NOT NULL,
		prerequisite_courses TEXT,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS programs (
		program_id INTEGER PRIMARY KEY AUTOINCREMENT,
		program_name TEXT NOT NULL,
		degree_type TEXT,
		department TEXT,
		description TEXT,
		website_url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS deadlines (
		deadline_id INTEGER PRIMARY KEY AUTOINCREMENT,
		deadline_type TEXT NOT NULL,
		date TEXT NOT NULL,
		semester TEXT,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS campus_resources (
		resource_id INTEGER PRIMARY KEY AUTOINCREMENT,
		resource_name TEXT NOT NULL,
		location TEXT,
		description TEXT,
		website_url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS scholarships (
		scholarship_id INTEGER PRIMARY KEY AUTOINCREMENT,
		scholarship_name TEXT NOT NULL,
		amount TEXT,
		eligibility TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS student_clubs (
		club_id INTEGER PRIMARY KEY AUTOINCREMENT,
		club_name TEXT NOT NULL,
		category TEXT,
		description TEXT
	)`,
}

// Store is the structured lookup capability: SQLite persistence with a bleve
// full-text index rebuilt from the tables on open and after seeding.
type Store struct {
	db     *sql.DB
	index  *Index
	logger output.LoggerPort
}

func Open(path string, logger output.LoggerPort) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	index, err := NewMemIndex()
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, index: index, logger: logger}
	if err := s.Reindex(context.Background()); err != nil {
		s.Close()
		return nil, err
	}
	logger.Info("knowledge store opened", "path", path, "documents", index.Count())
	return s, nil
}

func (s *Store) Close() error {
	s.index.Close()
	return s.db.Close()
}

// Search runs a full-text match over the indexed documents and maps the top
// hits to a LookupResult. Zero hits is not an error, it is Found=false.
func (s *Store) Search(ctx context.Context, query string) (*entity.LookupResult, error) {
	hits, err := s.index.Search(ctx, query, defaultResultCount)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &entity.LookupResult{Found: false}, nil
	}

	records := make([]entity.LookupRecord, 0, len(hits))
	for _, h := range hits {
		records = append(records, entity.LookupRecord{
			Fields: map[string]string{
				"id":       h.Doc.ID,
				"category": h.Doc.Category,
				"source":   h.Doc.Source,
			},
			Content:  h.Doc.Content,
			Category: h.Doc.Category,
			Source:   h.Doc.Source,
			Score:    h.Score,
		})
	}
	return &entity.LookupResult{Found: true, Records: records, MatchedCount: len(records)}, nil
}

// Reindex flattens every table row into a searchable document.
func (s *Store) Reindex(ctx context.Context) error {
	flatteners := []struct {
		query   string
		flatten func(rows *sql.Rows) (Document, error)
	}{
		{`SELECT faq_id, question, answer, COALESCE(category,'general'), COALESCE(keywords,'') FROM faqs`, flattenFAQ},
		{`SELECT prereq_id, course_code, course_name, COALESCE(prerequisite_courses,'None'), COALESCE(description,'') FROM prerequisites`, flattenPrerequisite},
		{`SELECT program_id, program_name, COALESCE(degree_type,''), COALESCE(department,''), COALESCE(description,'') FROM programs`, flattenProgram},
		{`SELECT deadline_id, deadline_type, date, COALESCE(semester,''), COALESCE(description,'') FROM deadlines`, flattenDeadline},
		{`SELECT resource_id, resource_name, COALESCE(location,''), COALESCE(description,''), COALESCE(website_url,'') FROM campus_resources`, flattenResource},
		{`SELECT scholarship_id, scholarship_name, COALESCE(amount,''), COALESCE(eligibility,'') FROM scholarships`, flattenScholarship},
		{`SELECT club_id, club_name, COALESCE(category,''), COALESCE(description,'') FROM student_clubs`, flattenClub},
	}

	for _, f := range flatteners {
		rows, err := s.db.QueryContext(ctx, f.query)
		if err != nil {
			return fmt.Errorf("reindex query: %w", err)
		}
		for rows.Next() {
			doc, err := f.flatten(rows)
			if err != nil {
				rows.Close()
				return err
			}
			if err := s.index.Put(doc); err != nil {
				rows.Close()
				return err
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("reindex scan: %w", err)
		}
		rows.Close()
	}
	return nil
}

func flattenFAQ(rows *sql.Rows) (Document, error) {
	var id int
	var question, answer, category, keywords string
	if err := rows.Scan(&id, &question, &answer, &category, &keywords); err != nil {
		return Document{}, fmt.Errorf("scan faq: %w", err)
	}
	return Document{
		ID:       fmt.Sprintf("faq-%d", id),
		Content:  fmt.Sprintf("Q: %s\nA: %s", question, answer),
		Category: category,
		Source:   "faq",
		Keywords: keywords,
	}, nil
}

func flattenPrerequisite(rows *sql.Rows) (Document, error) {
	var id int
	var code, name, prereqs, desc string
	if err := rows.Scan(&id, &code, &name, &prereqs, &desc); err != nil {
		return Document{}, fmt.Errorf("scan prerequisite: %w", err)
	}
	content := fmt.Sprintf("%s - %s: Prerequisites: %s.", code, name, prereqs)
	if desc != "" {
		content += " " + desc
	}
	return Document{
		ID:       fmt.Sprintf("prereq-%d", id),
		Content:  content,
		Category: "academics",
		Source:   "prerequisites",
		Keywords: code + " " + strings.ReplaceAll(code, " ", ""),
	}, nil
}

func flattenProgram(rows *sql.Rows) (Document, error) {
	var id int
	var name, degree, dept, desc string
	if err := rows.Scan(&id, &name, &degree, &dept, &desc); err != nil {
		return Document{}, fmt.Errorf("scan program: %w", err)
	}
	return Document{
		ID:       fmt.Sprintf("program-%d", id),
		Content:  fmt.Sprintf("%s (%s): %s", name, degree, desc),
		Category: "academics",
		Source:   "programs",
		Keywords: dept,
	}, nil
}

func flattenDeadline(rows *sql.Rows) (Document, error) {
	var id int
	var dtype, date, semester, desc string
	if err := rows.Scan(&id, &dtype, &date, &semester, &desc); err != nil {
		return Document{}, fmt.Errorf("scan deadline: %w", err)
	}
	content := fmt.Sprintf("Deadline: %s\nDate: %s", dtype, date)
	if semester != "" {
		content += "\nSemester: " + semester
	}
	if desc != "" {
		content += "\n" + desc
	}
	return Document{
		ID:       fmt.Sprintf("deadline-%d", id),
		Content:  content,
		Category: "deadlines",
		Source:   "deadlines",
	}, nil
}

func flattenResource(rows *sql.Rows) (Document, error) {
	var id int
	var name, location, desc, url string
	if err := rows.Scan(&id, &name, &location, &desc, &url); err != nil {
		return Document{}, fmt.Errorf("scan resource: %w", err)
	}
	content := fmt.Sprintf("Resource: %s\nLocation: %s\nDescription: %s", name, location, desc)
	if url != "" {
		content += "\nWebsite: " + url
	}
	return Document{
		ID:       fmt.Sprintf("resource-%d", id),
		Content:  content,
		Category: "campus",
		Source:   "campus_resources",
	}, nil
}

func flattenScholarship(rows *sql.Rows) (Document, error) {
	var id int
	var name, amount, eligibility string
	if err := rows.Scan(&id, &name, &amount, &eligibility); err != nil {
		return Document{}, fmt.Errorf("scan scholarship: %w", err)
	}
	return Document{
		ID:       fmt.Sprintf("scholarship-%d", id),
		Content:  fmt.Sprintf("Scholarship: %s\nAmount: %s\nEligibility: %s", name, amount, eligibility),
		Category: "financial",
		Source:   "scholarships",
	}, nil
}

func flattenClub(rows *sql.Rows) (Document, error) {
	var id int
	var name, category, desc string
	if err := rows.Scan(&id, &name, &category, &desc); err != nil {
		return Document{}, fmt.Errorf("scan club: %w", err)
	}
	return Document{
		ID:       fmt.Sprintf("club-%d", id),
		Content:  fmt.Sprintf("Club: %s\nCategory: %s\nDescription: %s", name, category, desc),
		Category: "student_life",
		Source:   "student_clubs",
	}, nil
}
