package store

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/pkg/errors"

	"todo-dag/app/models"
)

func value(record *neo4j.Record, key string) (any, error) {
	v, ok := record.Get(key)
	if !ok {
		return nil, errors.Errorf("record has no %q column", key)
	}
	return v, nil
}

func intValue(record *neo4j.Record, key string) (int64, error) {
	v, err := value(record, key)
	if err != nil {
		return 0, err
	}
	i, ok := v.(int64)
	if !ok {
		return 0, errors.Errorf("column %q: expected integer, got %T", key, v)
	}
	return i, nil
}

func stringValue(record *neo4j.Record, key string) (string, error) {
	v, err := value(record, key)
	if err != nil || v == nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf("column %q: expected string, got %T", key, v)
	}
	return s, nil
}

func timeValue(record *neo4j.Record, key string) (*time.Time, error) {
	v, err := value(record, key)
	if err != nil || v == nil {
		return nil, err
	}
	switch t := v.(type) {
	case time.Time:
		return &t, nil
	case neo4j.LocalDateTime:
		lt := t.Time()
		return &lt, nil
	default:
		return nil, errors.Errorf("column %q: expected datetime, got %T", key, v)
	}
}

func taskFromRecord(record *neo4j.Record) (models.Task, error) {
	var t models.Task
	var err error
	if t.ID, err = intValue(record, "id"); err != nil {
		return t, err
	}
	if t.Title, err = stringValue(record, "title"); err != nil {
		return t, err
	}
	if t.DueDate, err = timeValue(record, "due_date"); err != nil {
		return t, err
	}
	created, err := timeValue(record, "created_at")
	if err != nil {
		return t, err
	}
	if created == nil {
		return t, errors.Errorf("task %d has no created_at", t.ID)
	}
	t.CreatedAt = *created
	if t.ImageURL, err = stringValue(record, "image_url"); err != nil {
		return t, err
	}
	return t, nil
}

func dependencyFromRecord(record *neo4j.Record) (models.Dependency, error) {
	var d models.Dependency
	var err error
	if d.ID, err = stringValue(record, "id"); err != nil {
		return d, err
	}
	if d.ParentID, err = intValue(record, "parent_id"); err != nil {
		return d, err
	}
	if d.ChildID, err = intValue(record, "child_id"); err != nil {
		return d, err
	}
	created, err := timeValue(record, "created_at")
	if err != nil {
		return d, err
	}
	if created != nil {
		d.CreatedAt = *created
	}
	return d, nil
}
