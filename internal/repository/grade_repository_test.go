package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudiario/escola-api/internal/models"
)

func gradeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "subject_id", "nota1", "nota2", "nota3", "nota4", "created_at", "updated_at"})
}

func TestGradeRepositoryFindByStudentSubjectNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, subject_id, nota1, nota2, nota3, nota4, created_at, updated_at FROM grade_records WHERE student_id = $1 AND subject_id = $2 LIMIT 1")).
		WithArgs("s1", "d1").
		WillReturnError(sql.ErrNoRows)

	record, err := repo.FindByStudentSubject(context.Background(), "s1", "d1")
	assert.Nil(t, record)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryUpsertGeneratesID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec("INSERT INTO grade_records .*ON CONFLICT \\(student_id, subject_id\\)").
		WillReturnResult(sqlmock.NewResult(1, 1))

	value := 7.5
	record := &models.GradeRecord{StudentID: "s1", SubjectID: "d1", Nota2: &value}
	require.NoError(t, repo.Upsert(context.Background(), record))

	assert.NotEmpty(t, record.ID)
	assert.False(t, record.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryMapByStudents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	first := 8.0
	rows := gradeRows().
		AddRow("g1", "s1", "d1", first, nil, nil, nil, time.Now(), time.Now()).
		AddRow("g2", "s3", "d1", nil, 5.5, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM grade_records WHERE subject_id = $1 AND student_id IN ($2,$3,$4)")).
		WithArgs("d1", "s1", "s2", "s3").
		WillReturnRows(rows)

	result, err := repo.MapByStudents(context.Background(), "d1", []string{"s1", "s2", "s3"})
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.NotNil(t, result["s1"].Nota1)
	assert.Equal(t, 8.0, *result["s1"].Nota1)
	assert.Nil(t, result["s2"])
	require.NotNil(t, result["s3"].Nota2)
	assert.Equal(t, 5.5, *result["s3"].Nota2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryMapByStudentsEmptyRoster(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	result, err := repo.MapByStudents(context.Background(), "d1", nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestGradeRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	rows := gradeRows().
		AddRow("g1", "s1", "d1", 9.0, nil, nil, nil, time.Now(), time.Now()).
		AddRow("g2", "s1", "d2", nil, nil, 4.25, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM grade_records WHERE student_id = $1")).
		WithArgs("s1").
		WillReturnRows(rows)

	result, err := repo.ListByStudent(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.NotNil(t, result["d2"].Nota3)
	assert.Equal(t, 4.25, *result["d2"].Nota3)
	assert.NoError(t, mock.ExpectationsWereMet())
}
