package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// courseStore implements driven.CourseStore.
type courseStore struct {
	store *Store
}

var _ driven.CourseStore = (*courseStore)(nil)

// Save inserts or replaces a course and its lessons in one transaction.
func (s *courseStore) Save(ctx context.Context, course *domain.Course) error {
	if course == nil || course.Title == "" {
		return domain.ErrInvalidInput
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO courses (title, link, instructor, content_hash, uri, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET
			link = excluded.link,
			instructor = excluded.instructor,
			content_hash = excluded.content_hash,
			uri = excluded.uri,
			ingested_at = excluded.ingested_at
	`, course.Title, course.Link, course.Instructor, course.ContentHash, course.URI,
		formatNullableTime(course.IngestedAt))
	if err != nil {
		return fmt.Errorf("saving course: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM lessons WHERE course_title = ?", course.Title); err != nil {
		return fmt.Errorf("clearing lessons: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lessons (course_title, position, number, title, link)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing lesson insert: %w", err)
	}
	defer stmt.Close()

	for i, l := range course.Lessons {
		if _, err := stmt.ExecContext(ctx, course.Title, i, l.Number, l.Title, l.Link); err != nil {
			return fmt.Errorf("saving lesson %d: %w", l.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing course: %w", err)
	}
	return nil
}

// Get retrieves a course by exact title.
func (s *courseStore) Get(ctx context.Context, title string) (*domain.Course, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT title, link, instructor, content_hash, uri, ingested_at
		FROM courses WHERE title = ?
	`, title)

	course, err := scanCourse(row)
	if err != nil {
		return nil, err
	}

	lessons, err := s.lessons(ctx, title)
	if err != nil {
		return nil, err
	}
	course.Lessons = lessons[title]
	return course, nil
}

// List returns every course ordered by title.
func (s *courseStore) List(ctx context.Context) ([]domain.Course, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT title, link, instructor, content_hash, uri, ingested_at
		FROM courses ORDER BY title
	`)
	if err != nil {
		return nil, fmt.Errorf("querying courses: %w", err)
	}
	defer rows.Close()

	var courses []domain.Course //nolint:prealloc // size unknown from query
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating courses: %w", err)
	}

	lessons, err := s.lessons(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range courses {
		courses[i].Lessons = lessons[courses[i].Title]
	}
	return courses, nil
}

// Delete removes a course. Its lessons go with it through the foreign key.
func (s *courseStore) Delete(ctx context.Context, title string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM courses WHERE title = ?", title); err != nil {
		return fmt.Errorf("deleting course: %w", err)
	}
	return nil
}

// lessons loads lessons grouped by course title, in document order.
// An empty title loads every course's lessons.
func (s *courseStore) lessons(ctx context.Context, title string) (map[string][]domain.Lesson, error) {
	query := "SELECT course_title, number, title, link FROM lessons"
	var args []any
	if title != "" {
		query += " WHERE course_title = ?"
		args = append(args, title)
	}
	query += " ORDER BY course_title, position"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lessons: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.Lesson)
	for rows.Next() {
		var course string
		var l domain.Lesson
		if err := rows.Scan(&course, &l.Number, &l.Title, &l.Link); err != nil {
			return nil, fmt.Errorf("scanning lesson: %w", err)
		}
		out[course] = append(out[course], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lessons: %w", err)
	}
	return out, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCourse scans a course row without its lessons.
func scanCourse(row rowScanner) (*domain.Course, error) {
	var c domain.Course
	var ingestedAt sql.NullString
	if err := row.Scan(&c.Title, &c.Link, &c.Instructor, &c.ContentHash, &c.URI, &ingestedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning course: %w", err)
	}
	c.IngestedAt = parseNullableTime(ingestedAt)
	return &c, nil
}
